// Package bigram implements per-transition typing statistics.
package bigram

import (
	"fmt"
	"strings"
	"unicode"
)

// Alphabet is an ordered, fixed set of typing symbols.
type Alphabet struct {
	name    string
	symbols []rune
	index   map[rune]int
}

var (
	// English covers a-z plus the space boundary symbol.
	English = NewAlphabet("english", "abcdefghijklmnopqrstuvwxyz ")
	// Romaji covers a-z plus the long-vowel marker used in transliterated text.
	Romaji = NewAlphabet("romaji", "abcdefghijklmnopqrstuvwxyz-")
)

// NewAlphabet builds an alphabet from its canonical symbols in index order.
// Symbols are stored lowercase; duplicates keep their first index.
func NewAlphabet(name, symbols string) *Alphabet {
	a := &Alphabet{name: name, index: map[rune]int{}}
	for _, r := range symbols {
		r = unicode.ToLower(r)
		if _, ok := a.index[r]; ok {
			continue
		}
		a.index[r] = len(a.symbols)
		a.symbols = append(a.symbols, r)
	}
	return a
}

// AlphabetByName returns a built-in alphabet.
func AlphabetByName(name string) (*Alphabet, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "english", "en":
		return English, nil
	case "romaji":
		return Romaji, nil
	default:
		return nil, fmt.Errorf("unknown alphabet %q (available: english, romaji)", name)
	}
}

// Name returns the alphabet name.
func (a *Alphabet) Name() string {
	return a.name
}

// Size returns the number of symbols (K).
func (a *Alphabet) Size() int {
	return len(a.symbols)
}

// Index maps a rune to its symbol index. Case is folded.
func (a *Alphabet) Index(r rune) (int, bool) {
	idx, ok := a.index[unicode.ToLower(r)]
	return idx, ok
}

// Normalize returns the canonical symbol for r.
func (a *Alphabet) Normalize(r rune) (rune, bool) {
	idx, ok := a.Index(r)
	if !ok {
		return 0, false
	}
	return a.symbols[idx], true
}

// Symbol returns the canonical rune at index i.
func (a *Alphabet) Symbol(i int) rune {
	if i < 0 || i >= len(a.symbols) {
		return 0
	}
	return a.symbols[i]
}

// Label returns a display label for the symbol at index i.
func (a *Alphabet) Label(i int) string {
	r := a.Symbol(i)
	switch {
	case r == 0:
		return "?"
	case r == ' ':
		return "<space>"
	default:
		return string(unicode.ToUpper(r))
	}
}

// Labels returns labels for every symbol in index order.
func (a *Alphabet) Labels() []string {
	out := make([]string, len(a.symbols))
	for i := range a.symbols {
		out[i] = a.Label(i)
	}
	return out
}
