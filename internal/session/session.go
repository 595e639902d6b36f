// Package session owns the per-phase state of one experiment run.
package session

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/model"
)

var (
	// ErrPhaseActive is returned when starting a phase while another runs.
	ErrPhaseActive = errors.New("another phase is active")
	// ErrPhaseFrozen is returned when restarting a completed phase.
	ErrPhaseFrozen = errors.New("phase already completed")
	// ErrPhaseNotActive is returned when ending a phase that is not running.
	ErrPhaseNotActive = errors.New("phase is not active")
	// ErrUnknownPhase is returned for tags outside A, P and B.
	ErrUnknownPhase = errors.New("unknown phase")
)

// Result is the outcome of one Type call, consumed by the presentation layer.
type Result struct {
	Phase        model.Phase
	Keystroke    bigram.Keystroke
	SentenceDone bool
	DeckDone     bool
}

// Snapshot is a deep copy of all phase logs.
type Snapshot struct {
	Alphabet *bigram.Alphabet
	Logs     map[model.Phase]*bigram.PhaseLog
	Frozen   map[model.Phase]bool
}

// Session routes key events to the active phase. Completed phases are frozen
// and never written again.
type Session struct {
	alphabet *bigram.Alphabet
	logs     map[model.Phase]*bigram.PhaseLog
	loggers  map[model.Phase]*bigram.Logger
	frozen   map[model.Phase]bool
	active   model.Phase
	lastTick int64
	deck     *Deck
}

// New returns a session with three empty phase logs.
func New(alphabet *bigram.Alphabet) *Session {
	s := &Session{alphabet: alphabet}
	s.Reset()
	return s
}

// Reset discards every phase log and the deck.
func (s *Session) Reset() {
	s.logs = make(map[model.Phase]*bigram.PhaseLog, len(model.Phases))
	s.loggers = make(map[model.Phase]*bigram.Logger, len(model.Phases))
	s.frozen = make(map[model.Phase]bool, len(model.Phases))
	for _, p := range model.Phases {
		log := bigram.NewPhaseLog(s.alphabet.Size())
		s.logs[p] = log
		s.loggers[p] = bigram.NewLogger(s.alphabet, log)
	}
	s.active = ""
	s.lastTick = 0
	s.deck = nil
}

// Alphabet returns the session alphabet.
func (s *Session) Alphabet() *bigram.Alphabet {
	return s.alphabet
}

// Active returns the running phase.
func (s *Session) Active() (model.Phase, bool) {
	return s.active, s.active != ""
}

// Frozen reports whether tag has completed.
func (s *Session) Frozen(tag model.Phase) bool {
	return s.frozen[tag]
}

// StartPhase makes tag the active phase with a fresh previous-key context.
func (s *Session) StartPhase(tag model.Phase, atMs int64) error {
	lg, ok := s.loggers[tag]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, tag)
	}
	if s.active != "" {
		return fmt.Errorf("start %s: %w (%s)", tag, ErrPhaseActive, s.active)
	}
	if s.frozen[tag] {
		return fmt.Errorf("start %s: %w", tag, ErrPhaseFrozen)
	}
	lg.ResetContext()
	s.active = tag
	s.lastTick = atMs
	return nil
}

// EndPhase closes the active phase and freezes its log.
func (s *Session) EndPhase(tag model.Phase, atMs int64) error {
	if _, ok := s.loggers[tag]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, tag)
	}
	if s.active != tag {
		return fmt.Errorf("end %s: %w", tag, ErrPhaseNotActive)
	}
	s.logs[tag].AddActive(atMs - s.lastTick)
	s.loggers[tag].ResetContext()
	s.frozen[tag] = true
	s.active = ""
	return nil
}

// RecordKeystroke logs raw typed against expected in the active phase.
// Without an active phase the event is ignored.
func (s *Session) RecordKeystroke(raw, expected rune, tsMs int64) bigram.Keystroke {
	if s.active == "" {
		return bigram.Keystroke{Ignored: true, Index: -1, Prev: -1}
	}
	s.logs[s.active].AddActive(tsMs - s.lastTick)
	if tsMs > s.lastTick {
		s.lastTick = tsMs
	}
	return s.loggers[s.active].OnKeystroke(raw, expected, tsMs)
}

// SetDeck replaces the deck of the current phase.
func (s *Session) SetDeck(texts []string) {
	s.deck = NewDeck(texts)
}

// Deck returns the current deck.
func (s *Session) Deck() *Deck {
	return s.deck
}

// Type feeds a key against the current sentence. A correct key advances the
// cursor; the previous-key context carries across sentence boundaries.
func (s *Session) Type(raw rune, tsMs int64) Result {
	res := Result{Phase: s.active}
	cur := s.deck.Current()
	if s.active == "" || cur == nil {
		res.Keystroke = bigram.Keystroke{Ignored: true, Index: -1, Prev: -1}
		return res
	}
	res.Keystroke = s.RecordKeystroke(raw, cur.Expected(), tsMs)
	if !res.Keystroke.Advanced {
		return res
	}
	cur.Advance()
	if cur.Done() {
		res.SentenceDone = true
		s.deck.Next()
		res.DeckDone = s.deck.Done()
	}
	return res
}

// Log returns a copy of the phase log.
func (s *Session) Log(tag model.Phase) *bigram.PhaseLog {
	log, ok := s.logs[tag]
	if !ok {
		return nil
	}
	return log.Clone()
}

// Snapshot copies every phase log.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Alphabet: s.alphabet,
		Logs:     make(map[model.Phase]*bigram.PhaseLog, len(s.logs)),
		Frozen:   make(map[model.Phase]bool, len(s.frozen)),
	}
	for tag, log := range s.logs {
		snap.Logs[tag] = log.Clone()
	}
	for tag, f := range s.frozen {
		snap.Frozen[tag] = f
	}
	return snap
}
