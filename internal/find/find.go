// Package find searches a document and replaces matches.
//
// Patterns use regexp2, which accepts the .NET / java.util.regex dialect
// including lookaround and backreferences. Compiled patterns are memoized
// in a TTL cache that engines may share.
package find

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/textcore/internal/cachemanager"
	"github.com/zjrosen/textcore/internal/edit"
	"github.com/zjrosen/textcore/internal/log"
	"github.com/zjrosen/textcore/internal/span"
	"github.com/zjrosen/textcore/internal/tracing"
)

var (
	// ErrInvalidPattern is returned when a regex query does not compile.
	ErrInvalidPattern = errors.New("invalid search pattern")

	// ErrMatchTimeout is returned when matching exceeds the match timeout.
	ErrMatchTimeout = errors.New("search timed out")
)

const (
	DefaultMatchTimeout = 2 * time.Second
	DefaultCacheTTL     = 10 * time.Minute
)

// Params describes a search.
type Params struct {
	Query     string
	Regex     bool // compile Query as a regular expression instead of a literal
	MatchCase bool
	WordsOnly bool // require whitespace on both sides of a match
}

func (p Params) String() string {
	return fmt.Sprintf("%q regex=%t case=%t words=%t", p.Query, p.Regex, p.MatchCase, p.WordsOnly)
}

// Pattern returns the regexp2 source and options for p.
//
// WordsOnly wraps the pattern in \s...\s, so a match includes its
// surrounding whitespace and never sits at the very start or end of the
// document.
func (p Params) Pattern() (string, regexp2.RegexOptions) {
	expr := p.Query
	if !p.Regex {
		expr = regexp2.Escape(expr)
	}
	if p.WordsOnly {
		expr = `\s(?:` + expr + `)\s`
	}
	opts := regexp2.None
	if !p.MatchCase {
		opts |= regexp2.IgnoreCase
	}
	return expr, opts
}

// Compile builds the matcher for p.
func Compile(p Params, timeout time.Duration) (*regexp2.Regexp, error) {
	expr, opts := p.Pattern()
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	re.MatchTimeout = timeout
	return re, nil
}

// PatternCache memoizes compiled patterns by cache key.
type PatternCache = cachemanager.CacheManager[string, *regexp2.Regexp]

// NewPatternCache creates an in-memory pattern cache.
func NewPatternCache(ttl time.Duration) PatternCache {
	return cachemanager.NewInMemoryCacheManager[string, *regexp2.Regexp]("find-patterns", ttl, 2*ttl)
}

// cacheKey identifies a compiled pattern. The timeout is part of the key
// because it is baked into the compiled value.
func cacheKey(p Params, timeout time.Duration) string {
	expr, opts := p.Pattern()
	return fmt.Sprintf("%d|%s|%s", opts, timeout, expr)
}

// scan returns every non-empty match of re in text as byte-offset spans.
// regexp2 reports rune indices; the walker converts them in one pass
// because matches arrive in ascending order.
func scan(ctx context.Context, re *regexp2.Regexp, text string) ([]span.Span, error) {
	m, err := re.FindStringMatch(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchTimeout, err)
	}

	var (
		spans []span.Span
		w     runeWalker
	)
	for m != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m.Length > 0 {
			start := w.advance(text, m.Index)
			end := w.peek(text, m.Index+m.Length)
			spans = append(spans, span.Span{Start: start, End: end, Kind: span.Find})
		}
		if m, err = re.FindNextMatch(m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMatchTimeout, err)
		}
	}
	return spans, nil
}

// runeWalker maps ascending rune indices to byte offsets.
type runeWalker struct {
	runes int
	bytes int
}

// advance moves the walker to rune index target and returns its byte offset.
func (w *runeWalker) advance(s string, target int) int {
	for w.runes < target && w.bytes < len(s) {
		_, size := utf8.DecodeRuneInString(s[w.bytes:])
		w.bytes += size
		w.runes++
	}
	return w.bytes
}

// peek returns the byte offset of rune index target without moving.
func (w *runeWalker) peek(s string, target int) int {
	tmp := *w
	return tmp.advance(s, target)
}

// ============================================================================
// Engine
// ============================================================================

// Option configures an Engine.
type Option func(*Engine)

// WithMatchTimeout bounds the time spent matching one search.
func WithMatchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithPatternCache shares a pattern cache between engines.
func WithPatternCache(c PatternCache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithTracer records each search as a span.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// Engine holds the matches of the latest search and a cursor into them.
// The matches live in the store's find collection, so edits shift them.
type Engine struct {
	store   *span.Store
	timeout time.Duration
	ttl     time.Duration
	cache   PatternCache
	tracer  trace.Tracer

	patterns *cachemanager.ReadThroughCache[string, *regexp2.Regexp, Params]
	params   Params
	cursor   int
}

// NewEngine creates an engine installing matches into store.
func NewEngine(store *span.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		timeout: DefaultMatchTimeout,
		ttl:     DefaultCacheTTL,
		tracer:  tracing.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewPatternCache(e.ttl)
	}
	e.patterns = cachemanager.NewReadThroughCache[string, *regexp2.Regexp, Params](
		e.cache,
		func(_ context.Context, p Params) (*regexp2.Regexp, error) {
			return Compile(p, e.timeout)
		},
		false,
	)
	return e
}

// Search replaces the current matches with the matches of p in text and
// resets the cursor. On any error the match list is left empty.
func (e *Engine) Search(ctx context.Context, text string, p Params) ([]span.Span, error) {
	e.params = p
	e.cursor = 0

	ctx, sp := e.tracer.Start(ctx, tracing.SpanFindSearch, trace.WithAttributes(
		attribute.String(tracing.AttrQuery, p.Query),
		attribute.Bool(tracing.AttrRegex, p.Regex),
		attribute.Bool(tracing.AttrMatchCase, p.MatchCase),
		attribute.Bool(tracing.AttrWordsOnly, p.WordsOnly),
	))
	defer sp.End()

	matches, err := e.search(ctx, sp, text, p)
	if err != nil {
		e.store.ClearFinds()
		sp.SetStatus(codes.Error, err.Error())
		log.Debug(log.CatFind, "Search failed", "params", p, "error", err)
		return nil, err
	}

	e.store.ReplaceFinds(matches)
	sp.SetAttributes(attribute.Int(tracing.AttrMatchCount, len(matches)))
	log.Debug(log.CatFind, "Search", "params", p, "matches", len(matches))
	return e.store.Spans(span.Find), nil
}

func (e *Engine) search(ctx context.Context, sp trace.Span, text string, p Params) ([]span.Span, error) {
	if p.Query == "" {
		return nil, nil
	}
	re, hit, err := e.patterns.GetWithRefresh(ctx, cacheKey(p, e.timeout), p, e.ttl)
	sp.SetAttributes(attribute.Bool(tracing.AttrCached, hit))
	if err != nil {
		sp.AddEvent(tracing.EventPatternInvalid)
		return nil, err
	}
	return scan(ctx, re, text)
}

// Params returns the parameters of the latest search.
func (e *Engine) Params() Params {
	return e.params
}

// Matches returns the current matches in document order.
func (e *Engine) Matches() []span.Span {
	return e.store.Spans(span.Find)
}

// Count returns the number of current matches.
func (e *Engine) Count() int {
	return e.store.Count(span.Find)
}

// Cursor returns the index of the selected match.
func (e *Engine) Cursor() int {
	e.clampCursor()
	return e.cursor
}

// Current returns the selected match.
func (e *Engine) Current() (span.Span, bool) {
	e.clampCursor()
	return e.store.At(span.Find, e.cursor)
}

// Next selects the following match. It reports false at the last match.
func (e *Engine) Next() bool {
	e.clampCursor()
	if e.cursor < e.Count()-1 {
		e.cursor++
		return true
	}
	return false
}

// Previous selects the preceding match. It reports false at the first match.
func (e *Engine) Previous() bool {
	e.clampCursor()
	if e.cursor > 0 {
		e.cursor--
		return true
	}
	return false
}

// ReplaceOne removes the selected match from the list and returns the
// change that replaces its text. The cursor stays put unless it fell off
// the end, in which case it moves to the new last match. Matches that no
// longer fit the document are dropped and the next one is used instead.
func (e *Engine) ReplaceOne(replacement string) (edit.Change, bool) {
	for {
		e.clampCursor()
		m, ok := e.store.RemoveFind(e.cursor)
		if !ok {
			return edit.Change{}, false
		}
		if e.cursor == e.Count() && e.cursor > 0 {
			e.cursor--
		}
		if replaceable(m, e.store.Len()) {
			return edit.Change{From: m.Start, Removed: m.Len(), Text: replacement}, true
		}
		log.Debug(log.CatFind, "Skipped stale match", "match", m, "length", e.store.Len())
	}
}

// ReplaceAll clears the match list and returns one change per match,
// ordered from the highest offset to the lowest so that applying them in
// order keeps the remaining offsets valid. Matches that no longer fit the
// document, or that overlap an earlier match, are skipped.
func (e *Engine) ReplaceAll(replacement string) []edit.Change {
	matches := e.store.Spans(span.Find)
	length := e.store.Len()
	e.Clear()

	kept := make([]span.Span, 0, len(matches))
	for _, m := range matches {
		if !replaceable(m, length) {
			continue
		}
		if n := len(kept); n > 0 && m.Start < kept[n-1].End {
			continue
		}
		kept = append(kept, m)
	}
	if skipped := len(matches) - len(kept); skipped > 0 {
		log.Debug(log.CatFind, "Skipped stale matches", "skipped", skipped, "length", length)
	}

	changes := make([]edit.Change, 0, len(kept))
	for i := len(kept) - 1; i >= 0; i-- {
		m := kept[i]
		changes = append(changes, edit.Change{From: m.Start, Removed: m.Len(), Text: replacement})
	}
	return changes
}

// replaceable reports whether m can be turned into a change against a
// document of the given length.
func replaceable(m span.Span, length int) bool {
	return m.Valid(length) && m.Len() > 0
}

// Clear drops every match and resets the cursor.
func (e *Engine) Clear() {
	e.store.ClearFinds()
	e.cursor = 0
}

// clampCursor keeps the cursor inside the match list, which edits may
// have shortened.
func (e *Engine) clampCursor() {
	n := e.Count()
	if e.cursor >= n {
		e.cursor = n - 1
	}
	if e.cursor < 0 {
		e.cursor = 0
	}
}
