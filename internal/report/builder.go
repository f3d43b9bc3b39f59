package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/starford/maeum/internal/apperr"
	"github.com/starford/maeum/internal/models"
	"golang.org/x/sync/singleflight"
)

// DefaultMinEntries is the journal size below which no analysis is requested.
const DefaultMinEntries = 3

const (
	insufficientSummary = "기록이 조금 더 쌓이면 당신만의 특별한 마음 패턴을 발견해드릴 수 있어요."
	failureSummary      = "패턴을 분석하는 중에 잠시 오류가 발생했어요."
)

// Analyzer turns a rendered journal into a pattern analysis.
type Analyzer interface {
	Analyze(ctx context.Context, instructions, prompt string) (models.PatternAnalysis, error)
}

// Speaker synthesizes text into base64 mono 24 kHz signed 16-bit PCM.
type Speaker interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Source supplies the current journal, newest first.
type Source interface {
	Snapshot() []models.MoodEntry
}

// State is the lifecycle of the cached analysis.
type State string

const (
	StateStale   State = "stale"
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// Result is an analysis together with how it was produced.
type Result struct {
	Analysis     models.PatternAnalysis `json:"analysis"`
	State        State                  `json:"state"`
	Generation   uint64                 `json:"generation"`
	Fallback     bool                   `json:"fallback,omitempty"`
	Insufficient bool                   `json:"insufficient,omitempty"`
}

// Narration is synthesized speech for an analysis summary.
type Narration struct {
	Text       string `json:"text"`
	Audio      string `json:"audio"` // base64
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Builder owns the pattern analysis cache. The cache belongs to a
// generation of the journal; Invalidate starts a new one.
type Builder struct {
	source     Source
	analyzer   Analyzer
	speaker    Speaker
	logger     *slog.Logger
	minEntries int
	onUpdate   func(Result)

	group singleflight.Group

	mu     sync.Mutex
	gen    uint64
	state  State
	cached *Result

	speechMu   sync.Mutex
	narration  *Narration
	speechCall singleflight.Group
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSpeaker enables Narrate.
func WithSpeaker(s Speaker) BuilderOption {
	return func(b *Builder) { b.speaker = s }
}

// WithMinEntries overrides DefaultMinEntries.
func WithMinEntries(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.minEntries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithUpdateHook registers fn to run whenever a new result is cached.
func WithUpdateHook(fn func(Result)) BuilderOption {
	return func(b *Builder) { b.onUpdate = fn }
}

// NewBuilder creates a Builder over source. A nil analyzer makes every
// analysis fall back to the apologetic result.
func NewBuilder(source Source, analyzer Analyzer, opts ...BuilderOption) *Builder {
	b := &Builder{
		source:     source,
		analyzer:   analyzer,
		logger:     slog.Default(),
		minEntries: DefaultMinEntries,
		state:      StateStale,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Invalidate discards the cached analysis. Requests still in flight for the
// previous generation complete but are not cached.
func (b *Builder) Invalidate() {
	b.mu.Lock()
	b.gen++
	b.cached = nil
	b.state = StateStale
	b.mu.Unlock()
}

// Status returns the current state and, when ready, the cached result. It
// never triggers an analysis.
func (b *Builder) Status() Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cached != nil {
		return *b.cached
	}
	return Result{State: b.state, Generation: b.gen}
}

// Analyze returns the cached analysis for the current generation or
// computes it. Concurrent calls for one generation share a single request.
func (b *Builder) Analyze(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	b.mu.Lock()
	if b.cached != nil {
		res := *b.cached
		b.mu.Unlock()
		return res, nil
	}
	gen := b.gen
	b.state = StateLoading
	b.mu.Unlock()

	// The shared call outlives any single caller.
	callCtx := context.WithoutCancel(ctx)
	v, _, _ := b.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return b.flight(callCtx, gen), nil
	})
	return v.(Result), nil
}

// flight computes gen unless an earlier flight finished and cached it
// between the caller's cache check and joining the group.
func (b *Builder) flight(ctx context.Context, gen uint64) Result {
	b.mu.Lock()
	if b.cached != nil && b.cached.Generation == gen {
		res := *b.cached
		b.mu.Unlock()
		return res
	}
	b.mu.Unlock()
	return b.compute(ctx, gen)
}

func (b *Builder) compute(ctx context.Context, gen uint64) Result {
	entries := b.source.Snapshot()
	res := Result{Generation: gen}

	switch {
	case len(entries) < b.minEntries:
		res.Analysis = models.PatternAnalysis{Summary: insufficientSummary, Patterns: []models.Pattern{}}
		res.Insufficient = true
	case b.analyzer == nil:
		res.Analysis = fallback()
		res.Fallback = true
	default:
		analysis, err := b.analyzer.Analyze(ctx, Instructions, BuildPrompt(entries))
		if err == nil {
			err = checkAnalysis(&analysis)
		}
		if err != nil {
			b.logger.Warn("report: analysis failed", slog.String("error", err.Error()), slog.Uint64("generation", gen))
			res.Analysis = fallback()
			res.Fallback = true
		} else {
			res.Analysis = analysis
		}
	}

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		b.logger.Debug("report: discarding stale analysis", slog.Uint64("generation", gen))
		res.State = StateStale
		return res
	}
	res.State = StateReady
	b.cached = &res
	b.state = StateReady
	b.mu.Unlock()

	if b.onUpdate != nil {
		b.onUpdate(res)
	}
	return res
}

func fallback() models.PatternAnalysis {
	return models.PatternAnalysis{Summary: failureSummary, Patterns: []models.Pattern{}}
}

// checkAnalysis rejects results without a summary and drops incomplete
// patterns.
func checkAnalysis(a *models.PatternAnalysis) error {
	a.Summary = strings.TrimSpace(a.Summary)
	if a.Summary == "" {
		return fmt.Errorf("report: empty summary")
	}
	kept := make([]models.Pattern, 0, len(a.Patterns))
	for _, p := range a.Patterns {
		if strings.TrimSpace(p.Situation) == "" || strings.TrimSpace(p.Description) == "" {
			continue
		}
		kept = append(kept, p)
	}
	a.Patterns = kept
	return nil
}

// Narrate reads the current analysis summary aloud. Audio is cached per
// summary text.
func (b *Builder) Narrate(ctx context.Context) (Narration, error) {
	if b.speaker == nil {
		return Narration{}, apperr.ErrSpeechUnavailable
	}
	res, err := b.Analyze(ctx)
	if err != nil {
		return Narration{}, err
	}
	text := res.Analysis.Summary

	b.speechMu.Lock()
	if b.narration != nil && b.narration.Text == text {
		n := *b.narration
		b.speechMu.Unlock()
		return n, nil
	}
	b.speechMu.Unlock()

	v, err, _ := b.speechCall.Do(text, func() (any, error) {
		audio, err := b.speaker.Synthesize(ctx, text)
		if err != nil {
			return nil, err
		}
		if audio == "" {
			return nil, fmt.Errorf("report: empty audio")
		}
		n := Narration{Text: text, Audio: audio, Encoding: "pcm_s16le", SampleRate: 24000, Channels: 1}
		b.speechMu.Lock()
		b.narration = &n
		b.speechMu.Unlock()
		return n, nil
	})
	if err != nil {
		b.logger.Warn("report: speech failed", slog.String("error", err.Error()))
		return Narration{}, fmt.Errorf("%w: %v", apperr.ErrSpeechUnavailable, err)
	}
	return v.(Narration), nil
}
