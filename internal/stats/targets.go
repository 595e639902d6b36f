package stats

import (
	"math"
	"sort"

	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/model"
)

// TargetConfig holds the tuning constants for target transition ranking.
type TargetConfig struct {
	MinAttempts            int
	Z                      float64
	ErrorWeight            float64
	LatencyWeight          float64
	TransitionsPerSentence int
	AvoidMinAttempts       int
	AvoidMaxErrorRate      float64
	AvoidLatencyRatio      float64
}

// DefaultTargetConfig returns the empirically tuned defaults.
func DefaultTargetConfig() TargetConfig {
	return TargetConfig{
		MinAttempts:            3,
		Z:                      1.96,
		ErrorWeight:            0.7,
		LatencyWeight:          0.3,
		TransitionsPerSentence: 5,
		AvoidMinAttempts:       5,
		AvoidMaxErrorRate:      0.03,
		AvoidLatencyRatio:      0.6,
	}
}

// TargetSet is the ranked output of BuildTargets.
type TargetSet struct {
	Transitions []model.Transition
	// Avoid lists mastered bigrams in matrix order.
	Avoid []string
}

// Empty reports whether no transition qualified.
func (s TargetSet) Empty() bool {
	return len(s.Transitions) == 0
}

// WilsonUpper returns the upper Wilson score bound of an error rate p over n
// samples. n <= 0 yields 0.
func WilsonUpper(p float64, n int, z float64) float64 {
	if n <= 0 {
		return 0
	}
	nf := float64(n)
	z2 := z * z
	denom := 1 + z2/nf
	center := (p + z2/(2*nf)) / denom
	radius := z * math.Sqrt((p*(1-p)+z2/(4*nf))/nf) / denom
	return center + radius
}

// BuildTargets ranks the transitions of a finished phase-A log by blended
// difficulty and spreads a need budget of plannedSentences ×
// TransitionsPerSentence across them.
func BuildTargets(log *bigram.PhaseLog, alphabet *bigram.Alphabet, plannedSentences int, cfg TargetConfig) TargetSet {
	if log == nil || alphabet == nil {
		return TargetSet{}
	}
	m := log.Matrix
	k := m.Size()
	if alphabet.Size() < k {
		k = alphabet.Size()
	}

	maxAvg := 0.0
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			if avg, ok := m.AvgLatency(i, j); ok && avg > maxAvg {
				maxAvg = avg
			}
		}
	}
	if maxAvg <= 0 {
		maxAvg = 1
	}

	type edge struct {
		prev, cur int
		weight    float64
		avoid     bool
	}
	var edges []edge
	var avoid []string
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			attempts := m.Attempts[i][j]
			if attempts < cfg.MinAttempts || attempts <= 0 {
				continue
			}
			p := float64(m.Errors[i][j]) / float64(attempts)
			upper := WilsonUpper(p, attempts, cfg.Z)
			avg, hasAvg := m.AvgLatency(i, j)
			normAvg := math.Min(math.Max(avg/maxAvg, 0), 1)
			w := cfg.ErrorWeight*upper + cfg.LatencyWeight*normAvg
			if w <= 0 || math.IsNaN(w) {
				continue
			}
			mastered := attempts >= cfg.AvoidMinAttempts &&
				p <= cfg.AvoidMaxErrorRate &&
				hasAvg && avg < cfg.AvoidLatencyRatio*maxAvg
			if mastered {
				avoid = append(avoid, string([]rune{alphabet.Symbol(i), alphabet.Symbol(j)}))
			}
			edges = append(edges, edge{prev: i, cur: j, weight: w, avoid: mastered})
		}
	}
	if len(edges) == 0 {
		return TargetSet{}
	}

	budget := float64(cfg.TransitionsPerSentence * plannedSentences)
	if budget < 0 {
		budget = 0
	}
	sumW := 0.0
	for _, e := range edges {
		sumW += e.weight
	}
	if sumW <= 0 {
		sumW = 1
	}

	out := make([]model.Transition, 0, len(edges))
	for _, e := range edges {
		need := int(math.Round(e.weight / sumW * budget))
		if need < 0 {
			need = 0
		}
		t, err := model.NewTransition(alphabet.Symbol(e.prev), alphabet.Symbol(e.cur), e.weight, need, e.avoid)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return TargetSet{Transitions: out, Avoid: avoid}
}
