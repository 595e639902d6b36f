package selector

import (
	"strings"

	"github.com/verte-zerg/apbtype/internal/bigram"
)

// NormalizeSentence case-folds s to the alphabet, drops runes outside it and
// trims surrounding spaces. Empty results and results longer than maxLen are
// rejected; maxLen <= 0 disables the length bound.
func NormalizeSentence(alphabet *bigram.Alphabet, s string, maxLen int) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		sym, ok := alphabet.Normalize(r)
		if !ok {
			continue
		}
		b.WriteRune(sym)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", false
	}
	if maxLen > 0 && len([]rune(out)) > maxLen {
		return "", false
	}
	return out, true
}

// NormalizePool normalizes every sentence and keeps the accepted ones in order.
func NormalizePool(alphabet *bigram.Alphabet, pool []string, maxLen int) []string {
	out := make([]string, 0, len(pool))
	for _, s := range pool {
		if norm, ok := NormalizeSentence(alphabet, s, maxLen); ok {
			out = append(out, norm)
		}
	}
	return out
}
