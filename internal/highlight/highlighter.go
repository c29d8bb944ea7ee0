// Package highlight runs tokenization off the edit path.
//
// Each Request starts a new generation and cancels the previous run. A run
// installs its spans only if its generation is still current when it
// finishes, so a slow stale run can never overwrite newer highlighting.
// Tokenizer failures install an empty highlight set instead of surfacing.
package highlight

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/textcore/internal/log"
	"github.com/zjrosen/textcore/internal/pubsub"
	"github.com/zjrosen/textcore/internal/span"
	"github.com/zjrosen/textcore/internal/tracing"
)

// State is the highlighter lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome describes how a run ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota // spans installed
	OutcomeCancelled                // abandoned before producing a result
	OutcomeStale                    // finished after a newer generation started; discarded
	OutcomeFailed                   // tokenizer error or panic; empty set installed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeStale:
		return "stale"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports a finished run.
type Result struct {
	Generation uint64
	Outcome    Outcome
	Spans      int
	Err        error
	Elapsed    time.Duration
}

// Installed reports whether the run replaced the highlight collection.
func (r Result) Installed() bool {
	return r.Outcome == OutcomeCompleted || r.Outcome == OutcomeFailed
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithDebounce delays the start of tokenization. A request arriving within
// the delay cancels the pending run before it tokenizes anything.
func WithDebounce(d time.Duration) Option {
	return func(h *Highlighter) {
		h.debounce = d
	}
}

// WithTracer records each run as a span.
func WithTracer(t trace.Tracer) Option {
	return func(h *Highlighter) {
		if t != nil {
			h.tracer = t
		}
	}
}

// WithPublisher announces installed runs as HighlightedEvent.
func WithPublisher(p pubsub.Publisher[Result]) Option {
	return func(h *Highlighter) {
		h.publisher = p
	}
}

// Highlighter owns at most one background tokenization run at a time.
// Request, Cancel and Close are meant to be called from the goroutine that
// owns the document; State, Generation and Last may be called from any.
type Highlighter struct {
	store     *span.Store
	debounce  time.Duration
	tracer    trace.Tracer
	publisher pubsub.Publisher[Result]

	mu     sync.Mutex
	gen    uint64
	state  State
	cancel context.CancelFunc
	last   Result
	closed bool

	wg sync.WaitGroup
}

// New creates a highlighter installing into store.
func New(store *span.Store, opts ...Option) *Highlighter {
	h := &Highlighter{
		store:  store,
		tracer: tracing.Noop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Request cancels any in-flight run and starts tokenizing text. It returns
// the new generation. After Close, Request does nothing and returns the
// current generation.
func (h *Highlighter) Request(text string, tok Tokenizer) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return h.gen
	}
	if h.cancel != nil {
		h.cancel()
	}
	h.gen++
	gen := h.gen

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.state = StateRunning

	h.wg.Add(1)
	go h.run(ctx, cancel, gen, text, tok)
	return gen
}

// Cancel abandons the in-flight run, if any, and moves to StateCancelled.
// The abandoned result, should it still arrive, is discarded. Without a run
// in flight the generation and installed highlights are left as they are.
func (h *Highlighter) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
}

func (h *Highlighter) cancelLocked() {
	if h.state != StateRunning {
		h.state = StateCancelled
		return
	}
	h.cancel()
	h.cancel = nil
	h.gen++ // invalidates the run's generation
	h.state = StateCancelled
}

// State returns the lifecycle state.
func (h *Highlighter) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Generation returns the current generation.
func (h *Highlighter) Generation() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gen
}

// Last returns the result of the most recently finished run.
func (h *Highlighter) Last() Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Wait blocks until no run is in flight.
func (h *Highlighter) Wait() {
	h.wg.Wait()
}

// Close cancels the in-flight run and waits for the worker to exit.
func (h *Highlighter) Close() {
	h.mu.Lock()
	h.cancelLocked()
	h.closed = true
	h.mu.Unlock()

	h.wg.Wait()
}

func (h *Highlighter) run(ctx context.Context, cancel context.CancelFunc, gen uint64, text string, tok Tokenizer) {
	defer h.wg.Done()
	defer cancel()

	started := time.Now()
	ctx, sp := h.tracer.Start(ctx, tracing.SpanHighlightRun, trace.WithAttributes(
		attribute.Int64(tracing.AttrGeneration, int64(gen)),
		attribute.Int(tracing.AttrTextLength, len(text)),
	))
	defer sp.End()

	var (
		tokens []Token
		err    error
	)
	if h.debounce > 0 {
		timer := time.NewTimer(h.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			err = ctx.Err()
		case <-timer.C:
			sp.AddEvent(tracing.EventDebounced)
		}
	}
	if err == nil {
		tokens, err = tokenize(ctx, tok, text)
	}

	res := h.finish(ctx, gen, text, tokens, err)
	res.Elapsed = time.Since(started)

	sp.SetAttributes(
		attribute.Int(tracing.AttrTokenCount, len(tokens)),
		attribute.String(tracing.AttrOutcome, res.Outcome.String()),
	)
	if res.Outcome == OutcomeFailed {
		sp.AddEvent(tracing.EventTokenizerFailed)
		sp.SetStatus(codes.Error, res.Err.Error())
	}
	log.Debug(log.CatHighlight, "Run finished",
		"generation", gen, "outcome", res.Outcome, "spans", res.Spans, "elapsed", res.Elapsed)
}

// finish classifies a run and installs its spans when it is still current.
// A run counts as cancelled only when it gave up because its own context
// ended; a tokenizer that reports a deadline of its own has failed. Holding h.mu across the
// install keeps Cancel and Request from interleaving with it.
func (h *Highlighter) finish(ctx context.Context, gen uint64, text string, tokens []Token, err error) Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	res := Result{Generation: gen, Err: err}
	switch {
	case err != nil && ctx.Err() != nil:
		res.Outcome = OutcomeCancelled
	case gen != h.gen:
		res.Outcome = OutcomeStale
	case err != nil:
		log.WarnErr(log.CatHighlight, "Tokenizer failed, clearing highlights", err, "generation", gen)
		res.Outcome = OutcomeFailed
		h.store.ReplaceHighlights(nil)
	default:
		spans := toSpans(tokens, len(text))
		res.Outcome = OutcomeCompleted
		res.Spans = len(spans)
		h.store.ReplaceHighlights(spans)
	}

	if gen == h.gen {
		h.state = StateIdle
		h.cancel = nil
	}
	h.last = res

	if res.Installed() && h.publisher != nil {
		h.publisher.Publish(pubsub.HighlightedEvent, res)
	}
	return res
}
