package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/verte-zerg/apbtype/internal/model"
)

// TopTargets returns the n heaviest transitions.
func TopTargets(targets []model.Transition, n int) []model.Transition {
	if n <= 0 || len(targets) == 0 {
		return nil
	}
	items := make([]model.Transition, len(targets))
	copy(items, targets)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Weight == items[j].Weight {
			return items[i].Need > items[j].Need
		}
		return items[i].Weight > items[j].Weight
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// FormatTargets renders transitions compactly, e.g. "th×4, e_[avoid]".
func FormatTargets(targets []model.Transition) string {
	parts := make([]string, 0, len(targets))
	for _, t := range targets {
		var b strings.Builder
		b.WriteString(strings.ReplaceAll(t.Bigram(), " ", "_"))
		if t.Need > 0 {
			fmt.Fprintf(&b, "×%d", t.Need)
		}
		if t.Avoid {
			b.WriteString("[avoid]")
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}

// RenderTargets prints the ranked target transitions.
func RenderTargets(w io.Writer, targets []model.Transition) error {
	if len(targets) == 0 {
		_, err := fmt.Fprintln(w, "No target transitions.")
		return err
	}
	headers := []string{"Bigram", "Weight", "Need", "Avoid"}
	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		avoid := ""
		if t.Avoid {
			avoid = "yes"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%q", t.Bigram()),
			fmt.Sprintf("%.4f", t.Weight),
			fmt.Sprintf("%d", t.Need),
			avoid,
		})
	}
	rightAlign := map[int]bool{1: true, 2: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
