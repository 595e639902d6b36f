// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"

	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/model"
)

// minActiveMs keeps WPM finite before any time has elapsed.
const minActiveMs = 1.0

// PhaseMetrics computes WPM and accuracy from phase aggregates.
func PhaseMetrics(typedChars, attempts, errors int, activeMs int64) (wpm, accuracy float64) {
	ms := math.Max(float64(activeMs), minActiveMs)
	minutes := ms / 60000.0
	wpm = (float64(typedChars) / 5.0) / minutes
	accuracy = 1
	if attempts > 0 {
		accuracy = 1 - float64(errors)/float64(attempts)
	}
	return wpm, accuracy
}

// Summarize derives the phase summary of a log.
func Summarize(phase model.Phase, log *bigram.PhaseLog) model.PhaseSummary {
	if log == nil {
		return model.PhaseSummary{Phase: phase, Accuracy: 1}
	}
	wpm, acc := PhaseMetrics(log.TypedChars, log.TotalAttempts, log.TotalErrors, log.ActiveMs)
	return model.PhaseSummary{
		Phase:      phase,
		WPM:        wpm,
		Accuracy:   acc,
		TypedChars: log.TypedChars,
		ActiveMs:   log.ActiveMs,
		Attempts:   log.TotalAttempts,
		Errors:     log.TotalErrors,
	}
}

// Latency is an average latency cell; Valid is false when no sample exists.
type Latency struct {
	Ms    float64
	Valid bool
}

// Matrices is the exported view of one phase's transition tables.
type Matrices struct {
	Labels     []string
	Attempts   [][]int
	Errors     [][]int
	AvgLatency [][]Latency
}

// ExportMatrices copies the attempts and errors tables and derives average
// latency per cell. A missing log exports empty tables sized to alphabet.
func ExportMatrices(alphabet *bigram.Alphabet, log *bigram.PhaseLog) Matrices {
	if alphabet == nil {
		return Matrices{}
	}
	var m *bigram.Matrix
	if log != nil {
		m = log.Matrix
	}
	if m == nil {
		m = bigram.NewMatrix(alphabet.Size())
	}
	k := m.Size()
	out := Matrices{
		Labels:     alphabet.Labels(),
		Attempts:   make([][]int, k),
		Errors:     make([][]int, k),
		AvgLatency: make([][]Latency, k),
	}
	for i := 0; i < k; i++ {
		out.Attempts[i] = append([]int(nil), m.Attempts[i]...)
		out.Errors[i] = append([]int(nil), m.Errors[i]...)
		out.AvgLatency[i] = make([]Latency, k)
		for j := 0; j < k; j++ {
			if avg, ok := m.AvgLatency(i, j); ok {
				out.AvgLatency[i][j] = Latency{Ms: avg, Valid: true}
			}
		}
	}
	return out
}

// TotalAttempts sums the attempts table.
func (m Matrices) TotalAttempts() int {
	total := 0
	for _, row := range m.Attempts {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// MatrixKind selects one exported table.
type MatrixKind int

// Exported tables.
const (
	KindAttempts MatrixKind = iota
	KindErrors
	KindAvgLatency
)

// String returns the table name used in titles and file names.
func (k MatrixKind) String() string {
	switch k {
	case KindAttempts:
		return "attempts"
	case KindErrors:
		return "errors"
	case KindAvgLatency:
		return "avg_ms"
	default:
		return "unknown"
	}
}

// Cells formats a table as strings. Missing latency renders as "".
func (m Matrices) Cells(kind MatrixKind) [][]string {
	out := make([][]string, len(m.Attempts))
	for i := range m.Attempts {
		row := make([]string, len(m.Attempts[i]))
		for j := range m.Attempts[i] {
			switch kind {
			case KindAttempts:
				row[j] = fmt.Sprintf("%d", m.Attempts[i][j])
			case KindErrors:
				row[j] = fmt.Sprintf("%d", m.Errors[i][j])
			case KindAvgLatency:
				if lat := m.AvgLatency[i][j]; lat.Valid {
					row[j] = fmt.Sprintf("%.1f", lat.Ms)
				}
			}
		}
		out[i] = row
	}
	return out
}

// RenderPhaseTable prints WPM and accuracy per phase.
func RenderPhaseTable(w io.Writer, summaries []model.PhaseSummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No phases recorded.")
		return err
	}
	headers := []string{"Phase", "WPM", "Accuracy", "Typed", "Typing (ms)", "Attempts", "Errors"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			string(s.Phase),
			fmt.Sprintf("%.1f", s.WPM),
			fmt.Sprintf("%.1f%%", s.Accuracy*100),
			fmt.Sprintf("%d", s.TypedChars),
			fmt.Sprintf("%d", s.ActiveMs),
			fmt.Sprintf("%d", s.Attempts),
			fmt.Sprintf("%d", s.Errors),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderMatrix prints one table of m with prev symbols as rows.
func RenderMatrix(w io.Writer, m Matrices, kind MatrixKind) error {
	headers := append([]string{`prev\cur`}, compactLabels(m.Labels)...)
	cells := m.Cells(kind)
	rows := make([][]string, 0, len(cells))
	for i, row := range cells {
		label := ""
		if i < len(m.Labels) {
			label = compactLabel(m.Labels[i])
		}
		rows = append(rows, append([]string{label}, row...))
	}
	rightAlign := map[int]bool{}
	for i := 1; i < len(headers); i++ {
		rightAlign[i] = true
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func compactLabels(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = compactLabel(l)
	}
	return out
}

// compactLabel shortens <space> so matrix columns stay narrow.
func compactLabel(label string) string {
	if label == "<space>" {
		return "_"
	}
	return label
}
