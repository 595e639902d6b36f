package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/apbtype/internal/model"
)

func TestRenderRuns(t *testing.T) {
	runs := []model.RunAggregate{{
		RunID:    7,
		EndedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local),
		Alphabet: "english",
		Provider: "openai:gpt-4o-mini",
		Summaries: []model.PhaseSummary{
			{Phase: model.PhaseA, WPM: 40.04, Accuracy: 0.9},
			{Phase: model.PhaseB, WPM: 45.5, Accuracy: 0.95},
		},
	}}
	var buf bytes.Buffer
	if err := RenderRuns(&buf, runs); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	for _, want := range []string{"A WPM", "P Acc", "B WPM"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("header missing %q: %s", want, lines[0])
		}
	}
	for _, want := range []string{"2024-05-01 10:00", "english", "40.0", "90.0%", "45.5", "95.0%", " - "} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("row missing %q: %s", want, lines[1])
		}
	}
}

func TestRenderRunsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderRuns(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No runs recorded." {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
