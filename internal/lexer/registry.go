package lexer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// Language binds file extensions to a chroma lexer.
type Language struct {
	Name       string
	Lexer      string // chroma lexer name or alias; defaults to Name
	Extensions []string
}

// DefaultLanguages are registered unless configuration overrides them.
func DefaultLanguages() []Language {
	return []Language{
		{Name: "python", Extensions: []string{".py", ".pyw", ".pyi"}},
		{Name: "lua", Extensions: []string{".lua"}},
		{Name: "typescript", Extensions: []string{".ts", ".tsx"}},
		{Name: "json", Extensions: []string{".json"}},
	}
}

// Registry resolves file names to tokenizers. Later registrations win over
// earlier ones for the same extension.
type Registry struct {
	langs []Language
	byExt map[string]Language
}

// NewRegistry creates a registry holding langs.
func NewRegistry(langs ...Language) *Registry {
	r := &Registry{byExt: make(map[string]Language)}
	for _, l := range langs {
		r.Register(l)
	}
	return r
}

// Register adds or replaces a language.
func (r *Registry) Register(l Language) {
	if l.Lexer == "" {
		l.Lexer = l.Name
	}
	r.langs = append(r.langs, l)
	for _, ext := range l.Extensions {
		r.byExt[normalizeExt(ext)] = l
	}
}

// Languages returns the registered languages in registration order.
func (r *Registry) Languages() []Language {
	return append([]Language(nil), r.langs...)
}

// Lookup finds the language for filename by extension, falling back to
// chroma's own filename patterns.
func (r *Registry) Lookup(filename string) (Language, bool) {
	if l, ok := r.byExt[normalizeExt(filepath.Ext(filename))]; ok {
		return l, true
	}
	if cl := lexers.Match(filepath.Base(filename)); cl != nil {
		name := strings.ToLower(cl.Config().Name)
		return Language{Name: name, Lexer: cl.Config().Name}, true
	}
	return Language{}, false
}

// TokenizerFor returns a tokenizer for filename.
func (r *Registry) TokenizerFor(filename string) (*Tokenizer, Language, error) {
	l, ok := r.Lookup(filename)
	if !ok {
		return nil, Language{}, fmt.Errorf("%s: %w", filename, ErrUnknownLanguage)
	}
	tok, err := New(l.Lexer)
	if err != nil {
		return nil, Language{}, err
	}
	return tok, l, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
