// Package selector picks the sentences presented in a phase.
package selector

import (
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/model"
)

// Selector chooses a deck from candidate sentences.
type Selector struct {
	rnd      *rand.Rand
	alphabet *bigram.Alphabet
	maxLen   int
}

// New returns a Selector seeded with the current time.
func New(alphabet *bigram.Alphabet, maxLen int) *Selector {
	return NewSeeded(alphabet, maxLen, time.Now().UnixNano())
}

// NewSeeded returns a Selector whose baseline shuffles are reproducible.
func NewSeeded(alphabet *bigram.Alphabet, maxLen int, seed int64) *Selector {
	return &Selector{
		rnd:      rand.New(rand.NewSource(seed)),
		alphabet: alphabet,
		maxLen:   maxLen,
	}
}

// Select normalizes pool and returns up to count sentences. Personalized mode
// ranks by Score and is deterministic; with no targets it falls back to the
// baseline shuffle.
func (s *Selector) Select(pool []string, count int, mode model.Mode, targets []model.Transition) []string {
	candidates := NormalizePool(s.alphabet, pool, s.maxLen)
	if count <= 0 || len(candidates) == 0 {
		return nil
	}
	if mode == model.ModePersonalized && len(targets) > 0 {
		return rerank(candidates, targets, count)
	}
	return s.shuffle(candidates, count)
}

func (s *Selector) shuffle(candidates []string, count int) []string {
	for i := len(candidates) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	if count > len(candidates) {
		count = len(candidates)
	}
	return candidates[:count]
}

func rerank(candidates []string, targets []model.Transition, count int) []string {
	type scored struct {
		text  string
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{text: c, score: Score(c, targets)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if count > len(ranked) {
		count = len(ranked)
	}
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = ranked[i].text
	}
	return out
}

// Score sums target weights over every occurrence of each target bigram in
// the lowercased sentence. Overlapping occurrences all count.
func Score(sentence string, targets []model.Transition) float64 {
	runes := []rune(strings.ToLower(sentence))
	if len(runes) < 2 {
		return 0
	}
	score := 0.0
	for _, t := range targets {
		prev := unicode.ToLower(t.Prev)
		cur := unicode.ToLower(t.Cur)
		if prev == 0 || cur == 0 {
			continue
		}
		for i := 0; i+1 < len(runes); i++ {
			if runes[i] == prev && runes[i+1] == cur {
				score += t.Weight
			}
		}
	}
	return score
}
