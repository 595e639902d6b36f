// Package model defines shared data structures.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Phase tags an experiment stage.
type Phase string

// Experiment phases in run order.
const (
	PhaseA Phase = "A"
	PhaseP Phase = "P"
	PhaseB Phase = "B"
)

// Phases lists the phases in run order.
var Phases = []Phase{PhaseA, PhaseP, PhaseB}

// ParsePhase parses a phase tag.
func ParsePhase(s string) (Phase, error) {
	switch Phase(strings.ToUpper(strings.TrimSpace(s))) {
	case PhaseA:
		return PhaseA, nil
	case PhaseP:
		return PhaseP, nil
	case PhaseB:
		return PhaseB, nil
	default:
		return "", fmt.Errorf("unknown phase %q", s)
	}
}

// Title returns a human-readable phase name.
func (p Phase) Title() string {
	switch p {
	case PhaseA:
		return "A (baseline)"
	case PhaseP:
		return "P (personalized)"
	case PhaseB:
		return "B (post-baseline)"
	default:
		return string(p)
	}
}

// Mode returns the sentence selection policy of the phase.
func (p Phase) Mode() Mode {
	if p == PhaseP {
		return ModePersonalized
	}
	return ModeBaseline
}

// Mode selects a sentence selection policy.
type Mode int

const (
	// ModeBaseline picks a uniform random subset.
	ModeBaseline Mode = iota
	// ModePersonalized ranks by weighted target-bigram count.
	ModePersonalized
)

// Config defines experiment settings.
type Config struct {
	Alphabet string
	CountA   int
	CountP   int
	CountB   int
	MaxChars int
	Seed     int64
	PoolPath string
	OutDir   string
}

// Count returns the planned number of sentences for a phase.
func (c Config) Count(p Phase) int {
	switch p {
	case PhaseA:
		return c.CountA
	case PhaseP:
		return c.CountP
	case PhaseB:
		return c.CountB
	default:
		return 0
	}
}

// Transition is a target bigram for personalized sentence generation.
type Transition struct {
	Prev   rune
	Cur    rune
	Weight float64
	Need   int
	Avoid  bool
}

// NewTransition validates and builds a Transition.
func NewTransition(prev, cur rune, weight float64, need int, avoid bool) (Transition, error) {
	if prev == 0 || cur == 0 {
		return Transition{}, fmt.Errorf("transition symbols must be set")
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return Transition{}, fmt.Errorf("transition %q: invalid weight %v", string([]rune{prev, cur}), weight)
	}
	if need < 0 {
		return Transition{}, fmt.Errorf("transition %q: need must be >= 0", string([]rune{prev, cur}))
	}
	return Transition{Prev: prev, Cur: cur, Weight: weight, Need: need, Avoid: avoid}, nil
}

// Bigram returns the two-character string of the transition.
func (t Transition) Bigram() string {
	return string([]rune{t.Prev, t.Cur})
}

// PhaseSummary holds derived metrics of a phase.
type PhaseSummary struct {
	Phase      Phase
	WPM        float64
	Accuracy   float64
	TypedChars int
	ActiveMs   int64
	Attempts   int
	Errors     int
}

// RunRecord is an exported experiment run.
type RunRecord struct {
	StartedAt time.Time
	EndedAt   time.Time
	Alphabet  string
	Provider  string
	Summaries []PhaseSummary
	Targets   []Transition
}

// RunAggregate summarizes a stored run for listing.
type RunAggregate struct {
	RunID     int64
	EndedAt   time.Time
	Alphabet  string
	Provider  string
	Summaries []PhaseSummary
}
