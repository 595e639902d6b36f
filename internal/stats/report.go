package stats

import (
	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/model"
)

// Report contains precomputed data for result rendering and export.
type Report struct {
	Alphabet  *bigram.Alphabet
	Summaries []model.PhaseSummary
	Matrices  map[model.Phase]Matrices
	Targets   []model.Transition
	Avoid     []string
}

// BuildReport summarizes every phase present in logs, in run order.
func BuildReport(alphabet *bigram.Alphabet, logs map[model.Phase]*bigram.PhaseLog, targets TargetSet) Report {
	report := Report{
		Alphabet: alphabet,
		Matrices: map[model.Phase]Matrices{},
		Targets:  targets.Transitions,
		Avoid:    targets.Avoid,
	}
	for _, phase := range model.Phases {
		log, ok := logs[phase]
		if !ok || log == nil {
			continue
		}
		report.Summaries = append(report.Summaries, Summarize(phase, log))
		report.Matrices[phase] = ExportMatrices(alphabet, log)
	}
	return report
}

// Summary returns the summary for phase, if present.
func (r Report) Summary(phase model.Phase) (model.PhaseSummary, bool) {
	return findSummary(r.Summaries, phase)
}
