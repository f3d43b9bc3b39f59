package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/maeum/internal/entrystore"
	"github.com/starford/maeum/internal/models"
	"github.com/starford/maeum/internal/report"
)

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishAnalysis(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishAnalysis(report.Result{Generation: 4, State: report.StateReady, Fallback: true})

	msg := recv(t, ch)
	for _, want := range []string{"id: 1\n", "event: analysis.updated\n", `"generation":4`, `"state":"ready"`, `"fallback":true`} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in %q", want, msg)
		}
	}
	if strings.Contains(msg, "insufficient") {
		t.Errorf("unset flag serialized: %q", msg)
	}
}

func TestPublishChange_StatsThrottle(t *testing.T) {
	b := NewBroker(WithStatsThrottle(time.Minute))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	created := models.MoodEntry{ID: "a", Mood: models.MoodHappy}
	b.PublishChange(entrystore.Change{Kind: entrystore.ChangeCreated, IDs: []string{"a"}, Entry: &created})
	b.PublishChange(entrystore.Change{Kind: entrystore.ChangeDeleted, IDs: []string{"a", "b"}})

	got := []string{recv(t, ch), recv(t, ch), recv(t, ch)}
	if !strings.Contains(got[0], "event: entry.created") || !strings.Contains(got[0], `"mood":"HAPPY"`) {
		t.Errorf("first = %q", got[0])
	}
	if !strings.Contains(got[1], "event: stats.updated") {
		t.Errorf("second = %q", got[1])
	}
	if !strings.Contains(got[2], "event: entry.deleted") || !strings.Contains(got[2], `"count":2`) {
		t.Errorf("third = %q", got[2])
	}
	if !strings.HasPrefix(got[2], "id: 3\n") {
		t.Errorf("sequence not monotonic: %q", got[2])
	}

	// The second stats event falls inside the throttle window.
	select {
	case msg := <-ch:
		t.Errorf("unexpected message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishChange_UnknownKindIgnored(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(entrystore.Change{Kind: "renamed"})
	b.Publish(Event{Type: "custom", Data: map[string]string{}})

	if msg := recv(t, ch); !strings.Contains(msg, "event: custom") {
		t.Errorf("got %q, want custom", msg)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(WithHeartbeat(0))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChange(entrystore.Change{Kind: entrystore.ChangeReloaded})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("missing retry hint: %q", body)
	}
	if !strings.Contains(body, "event: entries.reloaded") || !strings.Contains(body, `"ids":[]`) {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSSEHandler_Heartbeat(t *testing.T) {
	b := NewBroker(WithHeartbeat(10 * time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	b.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), ": ping\n\n") {
		t.Errorf("no keepalive in %q", w.Body.String())
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(WithClientBuffer(4))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 10; i++ {
		b.Publish(Event{Type: "test", Data: i})
	}
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatal("broker loop blocked")
	}
	if len(ch) != 4 {
		t.Errorf("queued = %d, want 4", len(ch))
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}
	if _, ok := <-b.Subscribe(); ok {
		t.Error("subscribe after close should return a closed channel")
	}

	b.PublishAnalysis(report.Result{})
	b.PublishChange(entrystore.Change{Kind: entrystore.ChangeDeleted, IDs: []string{"x"}})
}
