package bigram

import "testing"

func TestAlphabetIndexFoldsCase(t *testing.T) {
	if English.Size() != 27 {
		t.Fatalf("expected 27 symbols, got %d", English.Size())
	}
	lower, ok := English.Index('t')
	if !ok {
		t.Fatalf("expected t in alphabet")
	}
	upper, ok := English.Index('T')
	if !ok || upper != lower {
		t.Fatalf("expected T to fold to %d, got %d (%v)", lower, upper, ok)
	}
	space, ok := English.Index(' ')
	if !ok || space != 26 {
		t.Fatalf("expected space at 26, got %d (%v)", space, ok)
	}
	for _, r := range []rune{'1', '.', 'é', '-'} {
		if _, ok := English.Index(r); ok {
			t.Fatalf("expected %q to be rejected", r)
		}
	}
	if _, ok := Romaji.Index('-'); !ok {
		t.Fatalf("expected long-vowel marker in romaji alphabet")
	}
	if English.Label(26) != "<space>" || English.Label(0) != "A" {
		t.Fatalf("unexpected labels: %q %q", English.Label(0), English.Label(26))
	}
}

func TestAlphabetByName(t *testing.T) {
	a, err := AlphabetByName("Romaji")
	if err != nil || a != Romaji {
		t.Fatalf("expected romaji alphabet, got %v (%v)", a, err)
	}
	if _, err := AlphabetByName("klingon"); err == nil {
		t.Fatalf("expected error for unknown alphabet")
	}
}

func TestMatrixRecordIgnoresInvalidIndex(t *testing.T) {
	m := NewMatrix(3)
	if m.Record(-1, 0, true, 10) || m.Record(0, 3, false, 10) {
		t.Fatalf("expected invalid indexes to be ignored")
	}
	for i := range m.Attempts {
		for j := range m.Attempts[i] {
			if m.Attempts[i][j] != 0 || m.Errors[i][j] != 0 || m.LatencyCount[i][j] != 0 {
				t.Fatalf("expected untouched matrix at %d,%d", i, j)
			}
		}
	}
}

func TestMatrixRecordLatency(t *testing.T) {
	m := NewMatrix(2)
	m.Record(0, 1, false, 120)
	m.Record(0, 1, true, NoLatency)
	if m.Attempts[0][1] != 2 || m.Errors[0][1] != 1 {
		t.Fatalf("unexpected counts: attempts=%d errors=%d", m.Attempts[0][1], m.Errors[0][1])
	}
	if m.LatencyCount[0][1] != 1 || m.LatencySum[0][1] != 120 {
		t.Fatalf("unexpected latency: sum=%v count=%d", m.LatencySum[0][1], m.LatencyCount[0][1])
	}
	avg, ok := m.AvgLatency(0, 1)
	if !ok || avg != 120 {
		t.Fatalf("expected avg 120, got %v (%v)", avg, ok)
	}
	if _, ok := m.AvgLatency(1, 0); ok {
		t.Fatalf("expected no latency data for empty cell")
	}
}

func TestPhaseLogCloneIsIndependent(t *testing.T) {
	log := NewPhaseLog(2)
	log.Record(0, 1, true, 50)
	snap := log.Clone()
	log.Record(0, 1, false, 50)
	if snap.TotalAttempts != 1 || snap.Matrix.Attempts[0][1] != 1 {
		t.Fatalf("expected snapshot to stay at one attempt, got %d", snap.Matrix.Attempts[0][1])
	}
	log.Reset()
	if log.TotalAttempts != 0 || log.Matrix.Attempts[0][1] != 0 {
		t.Fatalf("expected reset log")
	}
}

func TestLoggerFirstKeystrokeHasNoTransition(t *testing.T) {
	log := NewPhaseLog(English.Size())
	lg := NewLogger(English, log)
	ks := lg.OnKeystroke('t', 't', 1000)
	if ks.Recorded || log.TotalAttempts != 0 {
		t.Fatalf("expected no transition without context")
	}
	if log.TypedChars != 1 {
		t.Fatalf("expected one typed char, got %d", log.TypedChars)
	}
	ks = lg.OnKeystroke('h', 'h', 1250)
	if !ks.Recorded || ks.LatencyMs != 250 {
		t.Fatalf("expected recorded transition with 250ms, got %+v", ks)
	}
	ti, _ := English.Index('t')
	hi, _ := English.Index('h')
	if log.Matrix.Attempts[ti][hi] != 1 || log.Matrix.LatencySum[ti][hi] != 250 {
		t.Fatalf("unexpected t->h cell")
	}
}

func TestLoggerWrongKeyBecomesContext(t *testing.T) {
	log := NewPhaseLog(English.Size())
	lg := NewLogger(English, log)
	lg.OnKeystroke('t', 't', 0)
	ks := lg.OnKeystroke('g', 'h', 100)
	if ks.Correct || ks.Advanced {
		t.Fatalf("expected incorrect keystroke")
	}
	lg.OnKeystroke('h', 'h', 180)

	ti, _ := English.Index('t')
	gi, _ := English.Index('g')
	hi, _ := English.Index('h')
	if log.Matrix.Errors[ti][gi] != 1 {
		t.Fatalf("expected error on t->g")
	}
	if log.Matrix.Attempts[gi][hi] != 1 || log.Matrix.Errors[gi][hi] != 0 {
		t.Fatalf("expected g to be the context for h")
	}
	if log.TotalAttempts != 2 || log.TotalErrors != 1 {
		t.Fatalf("unexpected totals: %d/%d", log.TotalAttempts, log.TotalErrors)
	}
	if log.TypedChars != 2 {
		t.Fatalf("expected 2 typed chars, got %d", log.TypedChars)
	}
}

func TestLoggerIgnoresUnknownRunes(t *testing.T) {
	log := NewPhaseLog(English.Size())
	lg := NewLogger(English, log)
	lg.OnKeystroke('a', 'a', 0)
	if ks := lg.OnKeystroke('!', 'b', 50); !ks.Ignored {
		t.Fatalf("expected ! to be ignored")
	}
	lg.OnKeystroke('b', 'b', 100)
	ai, _ := English.Index('a')
	bi, _ := English.Index('b')
	if log.Matrix.Attempts[ai][bi] != 1 || log.Matrix.LatencySum[ai][bi] != 100 {
		t.Fatalf("expected ignored rune to leave a->b context intact")
	}
}

func TestLoggerNegativeDeltaSkipsLatency(t *testing.T) {
	log := NewPhaseLog(English.Size())
	lg := NewLogger(English, log)
	lg.OnKeystroke('a', 'a', 500)
	lg.OnKeystroke('b', 'b', 400)
	ai, _ := English.Index('a')
	bi, _ := English.Index('b')
	if log.Matrix.Attempts[ai][bi] != 1 || log.Matrix.LatencyCount[ai][bi] != 0 {
		t.Fatalf("expected attempt without latency sample")
	}
}

func TestCountsNeverExceedAttempts(t *testing.T) {
	log := NewPhaseLog(English.Size())
	lg := NewLogger(English, log)
	text := "the quick brown fox"
	typed := "thw quivk brown fox"
	for i := range []rune(text) {
		lg.OnKeystroke([]rune(typed)[i], []rune(text)[i], int64(i*90))
	}
	m := log.Matrix
	for i := range m.Attempts {
		for j := range m.Attempts[i] {
			if m.Errors[i][j] > m.Attempts[i][j] || m.LatencyCount[i][j] > m.Attempts[i][j] {
				t.Fatalf("invariant broken at %d,%d", i, j)
			}
		}
	}
}
