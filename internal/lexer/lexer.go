// Package lexer adapts chroma lexers to the highlight.Tokenizer interface
// and maps file names to languages.
package lexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/zjrosen/textcore/internal/highlight"
	"github.com/zjrosen/textcore/internal/span"
)

// ErrUnknownLanguage is returned when no chroma lexer matches.
var ErrUnknownLanguage = errors.New("unknown language")

// ctxCheckInterval is how many tokens are emitted between cancellation checks.
const ctxCheckInterval = 256

// Tokenizer runs a chroma lexer over a whole document.
type Tokenizer struct {
	name  string
	lexer chroma.Lexer
}

var _ highlight.Tokenizer = (*Tokenizer)(nil)

// New returns a tokenizer for the chroma lexer with the given name or alias.
func New(name string) (*Tokenizer, error) {
	l := lexers.Get(name)
	if l == nil {
		return nil, fmt.Errorf("lexer %q: %w", name, ErrUnknownLanguage)
	}
	return newTokenizer(l), nil
}

func newTokenizer(l chroma.Lexer) *Tokenizer {
	return &Tokenizer{name: l.Config().Name, lexer: chroma.Coalesce(l)}
}

// Name returns the chroma lexer name.
func (t *Tokenizer) Name() string {
	return t.name
}

// Tokenize returns a token for every styled run of text. Plain text,
// whitespace and punctuation produce no token.
func (t *Tokenizer) Tokenize(ctx context.Context, text string) ([]highlight.Token, error) {
	// EnsureLF would rewrite \r\n and shift every offset after it
	it, err := t.lexer.Tokenise(&chroma.TokeniseOptions{State: "root"}, text)
	if err != nil {
		return nil, fmt.Errorf("tokenise %s: %w", t.name, err)
	}

	var (
		tokens []highlight.Token
		offset int
	)
	for i := 0; ; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tok := it()
		if tok == chroma.EOF {
			break
		}
		start := offset
		offset += len(tok.Value)
		if start >= len(text) {
			break // lexers configured with EnsureNL append a trailing newline
		}

		style, ok := StyleFor(tok.Type)
		if !ok {
			continue
		}
		end := min(offset, len(text))
		if n := len(tokens); n > 0 && tokens[n-1].End == start && tokens[n-1].Style == style {
			tokens[n-1].End = end
			continue
		}
		tokens = append(tokens, highlight.Token{Start: start, End: end, Style: style})
	}
	return tokens, nil
}

// StyleFor maps a chroma token type to a highlight style.
func StyleFor(t chroma.TokenType) (span.Style, bool) {
	switch {
	case t == chroma.KeywordType:
		return span.StyleType, true
	case t.InCategory(chroma.Keyword):
		return span.StyleKeyword, true
	case t == chroma.NameFunction || t == chroma.NameFunctionMagic:
		return span.StyleFunction, true
	case t == chroma.NameClass:
		return span.StyleType, true
	case t == chroma.NameBuiltin || t == chroma.NameBuiltinPseudo:
		return span.StyleBuiltin, true
	case t.InSubCategory(chroma.LiteralString):
		return span.StyleString, true
	case t.InSubCategory(chroma.LiteralNumber):
		return span.StyleNumber, true
	case t.InCategory(chroma.Comment):
		return span.StyleComment, true
	case t.InCategory(chroma.Operator):
		return span.StyleOperator, true
	default:
		return "", false
	}
}
