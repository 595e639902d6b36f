package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/model"
	"github.com/verte-zerg/apbtype/internal/stats"
)

func sampleRun(t *testing.T) (model.RunRecord, stats.Report) {
	t.Helper()
	logs := map[model.Phase]*bigram.PhaseLog{}
	for _, p := range model.Phases {
		logs[p] = bigram.NewPhaseLog(bigram.English.Size())
	}
	a, _ := bigram.English.Index('a')
	b, _ := bigram.English.Index('b')
	logs[model.PhaseA].Record(a, b, true, 120)
	logs[model.PhaseA].Record(a, b, false, 80)
	logs[model.PhaseA].Record(b, a, true, bigram.NoLatency)
	logs[model.PhaseA].TypedChars = 3
	logs[model.PhaseA].AddActive(1500)
	logs[model.PhaseB].Record(b, a, true, 90)

	tr, err := model.NewTransition('a', 'b', 0.8, 4, false)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	report := stats.BuildReport(bigram.English, logs, stats.TargetSet{Transitions: []model.Transition{tr}})
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	run := model.RunRecord{
		StartedAt: start,
		EndedAt:   start.Add(10 * time.Minute),
		Alphabet:  bigram.English.Name(),
		Provider:  "static",
		Summaries: report.Summaries,
		Targets:   report.Targets,
	}
	return run, report
}

func TestInsertAndListRuns(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "nested", "apbtype.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}()

	ctx := context.Background()
	run, report := sampleRun(t)
	id, err := st.InsertRun(ctx, run, report)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second := run
	second.EndedAt = run.EndedAt.Add(time.Hour)
	second.Alphabet = bigram.Romaji.Name()
	if _, err := st.InsertRun(ctx, second, stats.Report{}); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	runs, err := st.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != id {
		t.Fatalf("expected 2 runs starting with %d, got %+v", id, runs)
	}
	got := runs[0]
	if len(got.Summaries) != 3 {
		t.Fatalf("expected 3 phase summaries, got %d", len(got.Summaries))
	}
	for i, p := range model.Phases {
		if got.Summaries[i].Phase != p {
			t.Fatalf("expected phase %s at %d, got %s", p, i, got.Summaries[i].Phase)
		}
	}
	if got.Summaries[0].Attempts != 3 || got.Summaries[0].Errors != 1 || got.Summaries[0].ActiveMs != 1500 {
		t.Fatalf("unexpected phase A summary: %+v", got.Summaries[0])
	}
	if !got.EndedAt.Equal(run.EndedAt) {
		t.Fatalf("expected ended_at %v, got %v", run.EndedAt, got.EndedAt)
	}

	filtered, err := st.ListRuns(ctx, bigram.Romaji.Name())
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Alphabet != bigram.Romaji.Name() {
		t.Fatalf("expected one romaji run, got %+v", filtered)
	}
}

func countCells(ctx context.Context, st *Store, runID int64, phase model.Phase) (int, error) {
	var n int
	err := st.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transition_cells WHERE run_id = ? AND phase = ?`, runID, string(phase)).Scan(&n)
	return n, err
}

func TestInsertRunStoresNonEmptyCells(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "apbtype.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	run, report := sampleRun(t)
	id, err := st.InsertRun(ctx, run, report)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	n, err := countCells(ctx, st, id, model.PhaseA)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 phase A cells, got %d", n)
	}
	n, err = countCells(ctx, st, id, model.PhaseP)
	if err != nil || n != 0 {
		t.Fatalf("expected no phase P cells, got %d (%v)", n, err)
	}
}

func TestListRunsRejectsUnknownPhase(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "apbtype.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	run, report := sampleRun(t)
	id, err := st.InsertRun(ctx, run, report)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := st.db.ExecContext(ctx,
		`INSERT INTO phase_metrics VALUES (?, 'C', 0, 0, 0, 0, 0, 0)`, id); err != nil {
		t.Fatalf("seed bad phase: %v", err)
	}
	if _, err := st.ListRuns(ctx, ""); err == nil {
		t.Fatalf("expected unknown phase to fail listing")
	}
}
