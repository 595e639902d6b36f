package bigram

// Keystroke describes how one key event changed a PhaseLog.
type Keystroke struct {
	Ignored   bool
	Symbol    rune
	Index     int
	Correct   bool
	Advanced  bool
	Recorded  bool
	Prev      int
	LatencyMs float64
}

// Logger turns timestamped key events into PhaseLog updates. It remembers the
// previous symbol and timestamp of its own phase only.
type Logger struct {
	alphabet *Alphabet
	log      *PhaseLog
	prev     int
	prevTS   int64
}

// NewLogger returns a logger writing into log.
func NewLogger(alphabet *Alphabet, log *PhaseLog) *Logger {
	return &Logger{alphabet: alphabet, log: log, prev: -1}
}

// Log returns the PhaseLog the logger writes to.
func (l *Logger) Log() *PhaseLog {
	return l.log
}

// ResetContext forgets the previous symbol and timestamp.
func (l *Logger) ResetContext() {
	l.prev = -1
	l.prevTS = 0
}

// OnKeystroke records raw typed against expected at tsMs. Runes outside the
// alphabet are ignored without touching any state. A correct key counts as
// consumed by the sentence cursor.
func (l *Logger) OnKeystroke(raw, expected rune, tsMs int64) Keystroke {
	cur, ok := l.alphabet.Index(raw)
	if !ok {
		return Keystroke{Ignored: true, Index: -1, Prev: -1}
	}
	symbol := l.alphabet.Symbol(cur)
	want, wantOK := l.alphabet.Normalize(expected)
	correct := wantOK && want == symbol

	ks := Keystroke{
		Symbol:    symbol,
		Index:     cur,
		Correct:   correct,
		Advanced:  correct,
		Prev:      l.prev,
		LatencyMs: NoLatency,
	}
	if l.prev >= 0 {
		latency := float64(tsMs - l.prevTS)
		if latency < 0 {
			latency = NoLatency
		}
		ks.Recorded = l.log.Record(l.prev, cur, correct, latency)
		ks.LatencyMs = latency
	}
	if correct {
		l.log.TypedChars++
	}
	l.prev = cur
	l.prevTS = tsMs
	return ks
}
