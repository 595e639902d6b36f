package bigram

// NoLatency marks a transition sample without a usable latency.
const NoLatency = -1

// Matrix holds K×K transition counters indexed by [prev][cur].
type Matrix struct {
	Attempts     [][]int
	Errors       [][]int
	LatencySum   [][]float64
	LatencyCount [][]int
}

// NewMatrix returns a zero-filled matrix of size k.
func NewMatrix(k int) *Matrix {
	return &Matrix{
		Attempts:     makeInts(k),
		Errors:       makeInts(k),
		LatencySum:   makeFloats(k),
		LatencyCount: makeInts(k),
	}
}

// Size returns K.
func (m *Matrix) Size() int {
	return len(m.Attempts)
}

// Valid reports whether both indexes address a cell.
func (m *Matrix) Valid(prev, cur int) bool {
	k := m.Size()
	return prev >= 0 && prev < k && cur >= 0 && cur < k
}

// Record adds one transition sample. Invalid indexes are ignored and a
// negative latency leaves the latency tables untouched.
func (m *Matrix) Record(prev, cur int, correct bool, latencyMs float64) bool {
	if !m.Valid(prev, cur) {
		return false
	}
	m.Attempts[prev][cur]++
	if !correct {
		m.Errors[prev][cur]++
	}
	if latencyMs >= 0 {
		m.LatencySum[prev][cur] += latencyMs
		m.LatencyCount[prev][cur]++
	}
	return true
}

// AvgLatency returns the mean latency of a cell and whether any sample exists.
func (m *Matrix) AvgLatency(prev, cur int) (float64, bool) {
	if !m.Valid(prev, cur) || m.LatencyCount[prev][cur] == 0 {
		return 0, false
	}
	return m.LatencySum[prev][cur] / float64(m.LatencyCount[prev][cur]), true
}

// Reset zero-fills every table.
func (m *Matrix) Reset() {
	for i := range m.Attempts {
		for j := range m.Attempts[i] {
			m.Attempts[i][j] = 0
			m.Errors[i][j] = 0
			m.LatencySum[i][j] = 0
			m.LatencyCount[i][j] = 0
		}
	}
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := NewMatrix(m.Size())
	for i := range m.Attempts {
		copy(out.Attempts[i], m.Attempts[i])
		copy(out.Errors[i], m.Errors[i])
		copy(out.LatencySum[i], m.LatencySum[i])
		copy(out.LatencyCount[i], m.LatencyCount[i])
	}
	return out
}

func makeInts(k int) [][]int {
	out := make([][]int, k)
	for i := range out {
		out[i] = make([]int, k)
	}
	return out
}

func makeFloats(k int) [][]float64 {
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, k)
	}
	return out
}

// PhaseLog is the transition matrix and aggregates of one experiment phase.
type PhaseLog struct {
	Matrix        *Matrix
	TypedChars    int
	ActiveMs      int64
	TotalAttempts int
	TotalErrors   int
}

// NewPhaseLog returns an empty log over k symbols.
func NewPhaseLog(k int) *PhaseLog {
	return &PhaseLog{Matrix: NewMatrix(k)}
}

// Record adds a transition sample and keeps the totals in step with the matrix.
func (l *PhaseLog) Record(prev, cur int, correct bool, latencyMs float64) bool {
	if !l.Matrix.Record(prev, cur, correct, latencyMs) {
		return false
	}
	l.TotalAttempts++
	if !correct {
		l.TotalErrors++
	}
	return true
}

// AddActive extends the active typing time. Negative spans are dropped.
func (l *PhaseLog) AddActive(ms int64) {
	if ms > 0 {
		l.ActiveMs += ms
	}
}

// Reset zero-fills the matrix and aggregates.
func (l *PhaseLog) Reset() {
	l.Matrix.Reset()
	l.TypedChars = 0
	l.ActiveMs = 0
	l.TotalAttempts = 0
	l.TotalErrors = 0
}

// Clone returns a deep copy safe to read while the original keeps changing.
func (l *PhaseLog) Clone() *PhaseLog {
	return &PhaseLog{
		Matrix:        l.Matrix.Clone(),
		TypedChars:    l.TypedChars,
		ActiveMs:      l.ActiveMs,
		TotalAttempts: l.TotalAttempts,
		TotalErrors:   l.TotalErrors,
	}
}
