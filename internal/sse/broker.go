// Package sse streams journal changes to connected browsers as Server-Sent
// Events.
package sse

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/starford/maeum/internal/entrystore"
	"github.com/starford/maeum/internal/models"
	"github.com/starford/maeum/internal/report"
)

// Event names sent to clients.
const (
	EventEntryCreated    = "entry.created"
	EventEntryDeleted    = "entry.deleted"
	EventEntriesReloaded = "entries.reloaded"
	EventStatsUpdated    = "stats.updated"
	EventAnalysisUpdated = "analysis.updated"
)

// Event is one message on the stream. Data is sent as JSON.
type Event struct {
	Type string
	Data any
}

// ChangePayload is the data of the entry events.
type ChangePayload struct {
	IDs   []string    `json:"ids"`
	Count int         `json:"count"`
	Mood  models.Mood `json:"mood,omitempty"`
}

// StatsPayload tells clients to refetch derived views.
type StatsPayload struct {
	At int64 `json:"at"` // epoch milliseconds
}

// AnalysisPayload announces a freshly cached pattern analysis.
type AnalysisPayload struct {
	Generation   uint64       `json:"generation"`
	State        report.State `json:"state"`
	Fallback     bool         `json:"fallback,omitempty"`
	Insufficient bool         `json:"insufficient,omitempty"`
}

const (
	defaultThrottle  = 2 * time.Second
	defaultHeartbeat = 15 * time.Second
	defaultBuffer    = 64
	retryMillis      = 3000
)

// Broker fans journal events out to SSE clients.
//
// One loop goroutine owns the client set, the event sequence and the stats
// throttle; the exported methods talk to it over channels.
type Broker struct {
	throttle  time.Duration
	heartbeat time.Duration
	buffer    int

	join    chan chan []byte
	leave   chan chan []byte
	events  chan Event
	changes chan entrystore.Change
	count   chan chan int

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Broker.
type Option func(*Broker)

// WithStatsThrottle sets the minimum gap between stats.updated events.
func WithStatsThrottle(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.throttle = d
		}
	}
}

// WithHeartbeat sets how often idle streams receive a keepalive comment.
// Zero disables it.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) {
		if d >= 0 {
			b.heartbeat = d
		}
	}
}

// WithClientBuffer sets how many undelivered messages a client may queue
// before further events are dropped for it.
func WithClientBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// NewBroker starts a broker.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		throttle:  defaultThrottle,
		heartbeat: defaultHeartbeat,
		buffer:    defaultBuffer,
		join:      make(chan chan []byte),
		leave:     make(chan chan []byte),
		events:    make(chan Event, 256),
		changes:   make(chan entrystore.Change, 256),
		count:     make(chan chan int),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(b)
	}

	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.done)

	clients := make(map[chan []byte]struct{})
	var seq uint64
	var lastStats time.Time

	send := func(ev Event) {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return
		}
		seq++
		msg := encode(seq, ev.Type, payload)
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// Slow client; it misses this event.
			}
		}
	}

	for {
		select {
		case <-b.quit:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.join:
			clients[ch] = struct{}{}

		case ch := <-b.leave:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.events:
			send(ev)

		case c := <-b.changes:
			ev, ok := changeEvent(c)
			if !ok {
				continue
			}
			send(ev)
			if now := time.Now(); now.Sub(lastStats) >= b.throttle {
				lastStats = now
				send(Event{Type: EventStatsUpdated, Data: StatsPayload{At: now.UnixMilli()}})
			}

		case reply := <-b.count:
			reply <- len(clients)
		}
	}
}

func changeEvent(c entrystore.Change) (Event, bool) {
	p := ChangePayload{IDs: c.IDs, Count: len(c.IDs)}
	if p.IDs == nil {
		p.IDs = []string{}
	}
	switch c.Kind {
	case entrystore.ChangeCreated:
		if c.Entry != nil {
			p.Mood = c.Entry.Mood
		}
		return Event{Type: EventEntryCreated, Data: p}, true
	case entrystore.ChangeDeleted:
		return Event{Type: EventEntryDeleted, Data: p}, true
	case entrystore.ChangeReloaded:
		return Event{Type: EventEntriesReloaded, Data: p}, true
	}
	return Event{}, false
}

// encode renders one SSE frame.
func encode(seq uint64, typ string, payload []byte) []byte {
	msg := make([]byte, 0, len(typ)+len(payload)+32)
	msg = append(msg, "id: "...)
	msg = strconv.AppendUint(msg, seq, 10)
	msg = append(msg, "\nevent: "...)
	msg = append(msg, typ...)
	msg = append(msg, "\ndata: "...)
	msg = append(msg, payload...)
	return append(msg, "\n\n"...)
}

// Close stops the loop and closes every client channel. It is safe to call
// more than once.
func (b *Broker) Close() {
	b.stopOnce.Do(func() { close(b.quit) })
	<-b.done
}

// Subscribe registers a client. The channel is closed on Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, b.buffer)
	select {
	case b.join <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	select {
	case b.leave <- ch:
	case <-b.done:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case b.count <- reply:
	case <-b.done:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-b.done:
		return 0
	}
}

// Publish sends an arbitrary event to every client.
func (b *Broker) Publish(ev Event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// PublishChange announces a committed journal mutation, followed by a
// throttled stats.updated event.
func (b *Broker) PublishChange(c entrystore.Change) {
	select {
	case b.changes <- c:
	case <-b.done:
	}
}

// PublishAnalysis announces a newly cached pattern analysis.
func (b *Broker) PublishAnalysis(res report.Result) {
	b.Publish(Event{Type: EventAnalysisUpdated, Data: AnalysisPayload{
		Generation:   res.Generation,
		State:        res.State,
		Fallback:     res.Fallback,
		Insufficient: res.Insufficient,
	}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "retry: "+strconv.Itoa(retryMillis)+"\n\n")
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
