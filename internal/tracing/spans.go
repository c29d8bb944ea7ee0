package tracing

// Span names.
const (
	SpanHighlightRun = "highlight.run"
	SpanFindSearch   = "find.search"
	SpanSessionSync  = "session.sync"
)

// Span attribute keys.
const (
	AttrSessionID = "session.id"
	AttrLanguage  = "session.language"

	AttrGeneration = "highlight.generation"
	AttrTextLength = "highlight.text_length"
	AttrTokenCount = "highlight.token_count"
	AttrOutcome    = "highlight.outcome"

	AttrQuery      = "find.query"
	AttrRegex      = "find.regex"
	AttrMatchCase  = "find.match_case"
	AttrWordsOnly  = "find.words_only"
	AttrMatchCount = "find.match_count"
	AttrCached     = "find.cached"

	AttrChangeCount = "sync.change_count"

	AttrErrorMessage = "error.message"
)

// Event names.
const (
	EventTokenizerFailed = "tokenizer.failed"
	EventDebounced       = "highlight.debounced"
	EventPatternInvalid  = "pattern.invalid"
)
