// Package session is the façade an editing surface drives on every
// keystroke.
//
// An edit arrives in two phases. BeforeChange runs before the text is
// mutated: it cancels the in-flight highlight run and stashes the change.
// AfterChange runs once the new text is in place: it updates the line
// index, shifts spans, clears error markers and requests highlighting for
// the new text. Edit does both for callers that let the session own the
// text.
//
// A Session is not safe for concurrent use. Its span store may be read
// from any goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/textcore/internal/edit"
	"github.com/zjrosen/textcore/internal/find"
	"github.com/zjrosen/textcore/internal/highlight"
	"github.com/zjrosen/textcore/internal/lexer"
	"github.com/zjrosen/textcore/internal/lines"
	"github.com/zjrosen/textcore/internal/log"
	"github.com/zjrosen/textcore/internal/pubsub"
	"github.com/zjrosen/textcore/internal/span"
	"github.com/zjrosen/textcore/internal/tracing"
)

var (
	// ErrNoPendingChange is returned by AfterChange without a BeforeChange.
	ErrNoPendingChange = errors.New("no pending change")

	// ErrTextMismatch is returned when the text handed to AfterChange does
	// not have the length the pending change implies.
	ErrTextMismatch = errors.New("text does not match pending change")
)

const DefaultTabWidth = 4

// Option configures a Session.
type Option func(*Session)

// WithTabWidth sets the indentation width.
func WithTabWidth(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.tabWidth = n
		}
	}
}

// WithSpaces makes Tab insert spaces instead of a tab character.
func WithSpaces(useSpaces bool) Option {
	return func(s *Session) {
		s.useSpaces = useSpaces
	}
}

// WithTokenizer sets the tokenizer used for highlighting.
func WithTokenizer(tok highlight.Tokenizer) Option {
	return func(s *Session) {
		s.tok = tok
	}
}

// WithRegistry sets the registry used by SetLanguageFor.
func WithRegistry(r *lexer.Registry) Option {
	return func(s *Session) {
		s.registry = r
	}
}

// WithHighlighting turns background highlighting on or off.
func WithHighlighting(enabled bool) Option {
	return func(s *Session) {
		s.highlighting = enabled
	}
}

// WithDebounce delays tokenization after each change.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		s.debounce = d
	}
}

// WithMatchTimeout bounds a single search.
func WithMatchTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.findOpts = append(s.findOpts, find.WithMatchTimeout(d))
	}
}

// WithPatternCache shares compiled search patterns between sessions.
func WithPatternCache(c find.PatternCache, ttl time.Duration) Option {
	return func(s *Session) {
		s.findOpts = append(s.findOpts, find.WithPatternCache(c, ttl))
	}
}

// WithTracer records highlight runs, searches and syncs.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		if t != nil {
			s.tracer = t
		}
	}
}

// Session owns one document and everything derived from it.
type Session struct {
	id           string
	text         string
	tabWidth     int
	useSpaces    bool
	highlighting bool
	debounce     time.Duration
	language     string

	lines  *lines.Index
	spans  *span.Store
	hl     *highlight.Highlighter
	finder *find.Engine
	broker *pubsub.Broker[highlight.Result]

	tok      highlight.Tokenizer
	registry *lexer.Registry
	tracer   trace.Tracer
	findOpts []find.Option

	pending *edit.Change
}

// New creates a session over text and requests its first highlight run.
func New(text string, opts ...Option) *Session {
	s := &Session{
		id:           uuid.NewString(),
		text:         text,
		tabWidth:     DefaultTabWidth,
		highlighting: true,
		tracer:       tracing.Noop(),
		broker:       pubsub.NewBroker[highlight.Result](),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.lines = lines.New(text)
	s.spans = span.NewStore(len(text))
	s.hl = highlight.New(s.spans,
		highlight.WithDebounce(s.debounce),
		highlight.WithTracer(s.tracer),
		highlight.WithPublisher(s.broker),
	)
	s.finder = find.NewEngine(s.spans, append(s.findOpts, find.WithTracer(s.tracer))...)

	log.Debug(log.CatSession, "Session opened", "session", s.id, "length", len(text))
	s.requestHighlight()
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Text returns the current document.
func (s *Session) Text() string {
	return s.text
}

// Len returns the document length in bytes.
func (s *Session) Len() int {
	return len(s.text)
}

// Lines returns the line index. Callers must not mutate it.
func (s *Session) Lines() *lines.Index {
	return s.lines
}

// Spans returns the span store.
func (s *Session) Spans() *span.Store {
	return s.spans
}

// Language returns the name of the language chosen by SetLanguageFor.
func (s *Session) Language() string {
	return s.language
}

// ============================================================================
// Edit pipeline
// ============================================================================

// BeforeChange announces that removed bytes at from are about to be
// replaced by inserted.
func (s *Session) BeforeChange(from, removed int, inserted string) error {
	c := edit.Change{From: from, Removed: removed, Text: inserted}
	if err := c.Validate(len(s.text)); err != nil {
		return fmt.Errorf("%w: %w", lines.ErrOutOfRange, err)
	}
	s.hl.Cancel()
	s.pending = &c
	return nil
}

// AfterChange completes the pending change once newText reflects it.
func (s *Session) AfterChange(newText string) error {
	if s.pending == nil {
		return ErrNoPendingChange
	}
	c := *s.pending
	s.pending = nil

	d := c.Delta()
	if len(newText) != len(s.text)+d.Net() {
		return fmt.Errorf("%w: %s on length %d gives %d, got %d",
			ErrTextMismatch, d, len(s.text), len(s.text)+d.Net(), len(newText))
	}
	if err := s.lines.ApplyEdit(d, c.Text); err != nil {
		return err
	}
	s.spans.Shift(d)
	s.spans.ClearErrors()
	s.text = newText

	log.Debug(log.CatSession, "Change applied", "session", s.id, "delta", d, "lines", s.lines.LineCount())
	s.requestHighlight()
	return nil
}

// Edit replaces removed bytes at from with inserted.
func (s *Session) Edit(from, removed int, inserted string) error {
	if err := s.BeforeChange(from, removed, inserted); err != nil {
		return err
	}
	return s.AfterChange(s.pending.Apply(s.text))
}

// Insert inserts text at offset.
func (s *Session) Insert(offset int, text string) error {
	return s.Edit(offset, 0, text)
}

// Delete removes n bytes at from.
func (s *Session) Delete(from, n int) error {
	return s.Edit(from, n, "")
}

// Apply applies a change.
func (s *Session) Apply(c edit.Change) error {
	return s.Edit(c.From, c.Removed, c.Text)
}

// SetText replaces the whole document, dropping every span.
func (s *Session) SetText(text string) {
	s.hl.Cancel()
	s.pending = nil
	s.text = text
	s.lines.Reset(text)
	s.spans.Reset(len(text))
	s.finder.Clear()
	s.requestHighlight()
}

// SyncText moves the document to newText through the smallest set of
// edits, so spans outside the changed regions survive. It returns the
// number of edits applied.
func (s *Session) SyncText(newText string) (int, error) {
	_, sp := s.tracer.Start(context.Background(), tracing.SpanSessionSync,
		trace.WithAttributes(attribute.String(tracing.AttrSessionID, s.id)))
	defer sp.End()

	changes := edit.Diff(s.text, newText)
	for i, c := range changes {
		if err := s.Apply(c); err != nil {
			return i, fmt.Errorf("sync change %d: %w", i, err)
		}
	}
	sp.SetAttributes(attribute.Int(tracing.AttrChangeCount, len(changes)))
	log.Debug(log.CatSession, "Synced text", "session", s.id, "changes", len(changes))
	return len(changes), nil
}

// ============================================================================
// Highlighting
// ============================================================================

// SetTokenizer switches the tokenizer and rehighlights. A nil tokenizer
// stops highlighting and drops current highlights.
func (s *Session) SetTokenizer(tok highlight.Tokenizer) {
	s.tok = tok
	if tok == nil {
		s.hl.Cancel()
		s.spans.ReplaceHighlights(nil)
		return
	}
	s.requestHighlight()
}

// SetLanguageFor picks the tokenizer for filename from the registry.
func (s *Session) SetLanguageFor(filename string) error {
	if s.registry == nil {
		return fmt.Errorf("%s: %w", filename, lexer.ErrUnknownLanguage)
	}
	tok, lang, err := s.registry.TokenizerFor(filename)
	if err != nil {
		return err
	}
	s.language = lang.Name
	log.Debug(log.CatSession, "Language selected", "session", s.id, "file", filename, "language", lang.Name)
	s.SetTokenizer(tok)
	return nil
}

func (s *Session) requestHighlight() {
	if s.tok == nil || !s.highlighting {
		return
	}
	s.hl.Request(s.text, s.tok)
}

// WaitHighlight blocks until no highlight run is in flight.
func (s *Session) WaitHighlight() {
	s.hl.Wait()
}

// HighlightState returns the highlighter state.
func (s *Session) HighlightState() highlight.State {
	return s.hl.State()
}

// LastHighlight returns the result of the latest finished highlight run.
func (s *Session) LastHighlight() highlight.Result {
	return s.hl.Last()
}

// Subscribe delivers an event each time a highlight run installs spans.
func (s *Session) Subscribe(ctx context.Context) <-chan pubsub.Event[highlight.Result] {
	return s.broker.Subscribe(ctx)
}

// Broker exposes the redraw event source, e.g. for a pubsub.Listener.
func (s *Session) Broker() pubsub.Subscriber[highlight.Result] {
	return s.broker
}

// ============================================================================
// Find and replace
// ============================================================================

// Find searches the document and selects the first match.
func (s *Session) Find(ctx context.Context, p find.Params) ([]span.Span, error) {
	return s.finder.Search(ctx, s.text, p)
}

// FindNext selects the next match.
func (s *Session) FindNext() bool {
	return s.finder.Next()
}

// FindPrevious selects the previous match.
func (s *Session) FindPrevious() bool {
	return s.finder.Previous()
}

// CurrentMatch returns the selected match.
func (s *Session) CurrentMatch() (span.Span, bool) {
	return s.finder.Current()
}

// MatchCursor returns the index of the selected match.
func (s *Session) MatchCursor() int {
	return s.finder.Cursor()
}

// Matches returns every current match.
func (s *Session) Matches() []span.Span {
	return s.finder.Matches()
}

// ReplaceOne replaces the selected match. It reports false when there is
// no match to replace.
func (s *Session) ReplaceOne(replacement string) (bool, error) {
	c, ok := s.finder.ReplaceOne(replacement)
	if !ok {
		return false, nil
	}
	if err := s.Apply(c); err != nil {
		return false, err
	}
	return true, nil
}

// ReplaceAll replaces every match and returns how many were replaced.
func (s *Session) ReplaceAll(replacement string) (int, error) {
	changes := s.finder.ReplaceAll(replacement)
	for i, c := range changes {
		if err := s.Apply(c); err != nil {
			return i, err
		}
	}
	return len(changes), nil
}

// ClearFind drops the matches.
func (s *Session) ClearFind() {
	s.finder.Clear()
}

// ============================================================================
// Markers and geometry
// ============================================================================

// SetErrorLine marks a 1-based line as erroneous until the next edit.
func (s *Session) SetErrorLine(lineNumber int) error {
	line := lineNumber - 1
	start, err := s.lines.StartOfLine(line)
	if err != nil {
		return fmt.Errorf("error line %d: %w", lineNumber, err)
	}
	end, err := s.lines.EndOfLine(line)
	if err != nil {
		return fmt.Errorf("error line %d: %w", lineNumber, err)
	}
	s.spans.AddError(span.Span{Start: start, End: end})
	return nil
}

// ClearErrors removes every error marker.
func (s *Session) ClearErrors() {
	s.spans.ClearErrors()
}

// Tab returns the text one press of the tab key inserts.
func (s *Session) Tab() string {
	if s.useSpaces {
		return strings.Repeat(" ", s.tabWidth)
	}
	return "\t"
}

// TabWidth returns the indentation width.
func (s *Session) TabWidth() int {
	return s.tabWidth
}

// Viewport returns the offsets covered by the lines visible in a vertical
// scroll window.
func (s *Session) Viewport(scrollY, height, lineHeight int) (start, end int) {
	top, bottom := s.lines.VisibleLines(scrollY, height, lineHeight)
	start, end, err := s.lines.ViewportRange(top, bottom)
	if err != nil {
		// VisibleLines clamps into the document, so this cannot happen
		return 0, len(s.text)
	}
	return start, end
}

// Close stops background work and closes subscriptions.
func (s *Session) Close() {
	s.hl.Close()
	s.broker.Close()
	log.Debug(log.CatSession, "Session closed", "session", s.id)
}
