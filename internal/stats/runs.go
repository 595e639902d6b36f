package stats

import (
	"fmt"
	"io"

	"github.com/verte-zerg/apbtype/internal/model"
)

// RenderRuns prints one line per stored run with WPM and accuracy per phase.
func RenderRuns(w io.Writer, runs []model.RunAggregate) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	headers := []string{"Run", "Ended", "Alphabet", "Provider"}
	for _, p := range model.Phases {
		headers = append(headers, string(p)+" WPM", string(p)+" Acc")
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		row := []string{
			fmt.Sprintf("%d", r.RunID),
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.Alphabet,
			r.Provider,
		}
		for _, p := range model.Phases {
			s, ok := findSummary(r.Summaries, p)
			if !ok {
				row = append(row, "-", "-")
				continue
			}
			row = append(row, fmt.Sprintf("%.1f", s.WPM), fmt.Sprintf("%.1f%%", s.Accuracy*100))
		}
		rows = append(rows, row)
	}
	rightAlign := map[int]bool{0: true}
	for i := 4; i < len(headers); i++ {
		rightAlign[i] = true
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func findSummary(summaries []model.PhaseSummary, phase model.Phase) (model.PhaseSummary, bool) {
	for _, s := range summaries {
		if s.Phase == phase {
			return s, true
		}
	}
	return model.PhaseSummary{}, false
}
