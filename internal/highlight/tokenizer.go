package highlight

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/textcore/internal/span"
)

// ErrTokenizerPanic wraps a value recovered from a panicking tokenizer.
var ErrTokenizerPanic = errors.New("tokenizer panicked")

// Token is one styled range produced by a tokenizer, in byte offsets.
type Token struct {
	Start int
	End   int
	Style span.Style
}

// Tokenizer turns a full document into highlight tokens. It may be slow
// and should return promptly once ctx is done.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]Token, error)
}

// TokenizerFunc adapts a function to Tokenizer.
type TokenizerFunc func(ctx context.Context, text string) ([]Token, error)

// Tokenize calls f.
func (f TokenizerFunc) Tokenize(ctx context.Context, text string) ([]Token, error) {
	return f(ctx, text)
}

// tokenize runs tok, converting a panic into ErrTokenizerPanic.
func tokenize(ctx context.Context, tok Tokenizer, text string) (tokens []Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens, err = nil, fmt.Errorf("%w: %v", ErrTokenizerPanic, r)
		}
	}()
	return tok.Tokenize(ctx, text)
}

// toSpans keeps the tokens that fit a document of the given length.
func toSpans(tokens []Token, length int) []span.Span {
	spans := make([]span.Span, 0, len(tokens))
	for _, t := range tokens {
		sp := span.Span{Start: t.Start, End: t.End, Kind: span.Highlight, Style: t.Style}
		if !sp.Valid(length) {
			continue
		}
		spans = append(spans, sp)
	}
	return spans
}
