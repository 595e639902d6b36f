package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/apbtype/internal/bigram"
	"github.com/verte-zerg/apbtype/internal/model"
	"github.com/verte-zerg/apbtype/internal/stats"
	"github.com/verte-zerg/apbtype/internal/store"
)

func sampleReport(t *testing.T) stats.Report {
	t.Helper()
	logs := map[model.Phase]*bigram.PhaseLog{}
	for _, p := range model.Phases {
		logs[p] = bigram.NewPhaseLog(bigram.English.Size())
	}
	a, _ := bigram.English.Index('a')
	b, _ := bigram.English.Index('b')
	logs[model.PhaseA].Record(a, b, true, 100)
	logs[model.PhaseA].Record(a, b, false, 200)
	logs[model.PhaseA].Record(b, a, true, bigram.NoLatency)
	logs[model.PhaseA].TypedChars = 10
	logs[model.PhaseA].AddActive(60000)
	tr, err := model.NewTransition('a', 'b', 0.75, 3, false)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	return stats.BuildReport(bigram.English, logs, stats.TargetSet{Transitions: []model.Transition{tr}, Avoid: []string{"ba"}})
}

func TestWriteMatrixCSV(t *testing.T) {
	report := sampleReport(t)
	var buf bytes.Buffer
	if err := WriteMatrixCSV(&buf, report.Matrices[model.PhaseA], stats.KindAvgLatency); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 28 || len(rows[0]) != 28 {
		t.Fatalf("expected 28x28 csv, got %dx%d", len(rows), len(rows[0]))
	}
	if rows[0][0] != `prev\cur` || rows[0][1] != "A" || rows[0][27] != "<space>" {
		t.Fatalf("unexpected header: %v", rows[0][:2])
	}
	if rows[1][2] != "150.0" {
		t.Fatalf("expected a->b average 150.0, got %q", rows[1][2])
	}
	if rows[2][1] != "" {
		t.Fatalf("expected empty cell without latency, got %q", rows[2][1])
	}
}

func TestWritePhaseCSV(t *testing.T) {
	report := sampleReport(t)
	var buf bytes.Buffer
	if err := WritePhaseCSV(&buf, report.Summaries); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 phases, got %d lines", len(lines))
	}
	if lines[0] != "phase,wpm,accuracy,typed_chars,typing_ms,total_attempts,total_errors" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "A,2.00,66.67,10,60000,3,1" {
		t.Fatalf("unexpected phase A row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "P,0.00,100.00,0,0,0,0") {
		t.Fatalf("unexpected phase P row %q", lines[2])
	}
}

func TestWriteTargetsYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTargetsYAML(&buf, sampleReport(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var doc targetsDoc
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Alphabet != "english" || len(doc.Transitions) != 1 || doc.Transitions[0].Bigram != "ab" {
		t.Fatalf("unexpected targets doc: %+v", doc)
	}
	if doc.Transitions[0].Need != 3 || len(doc.Avoid) != 1 {
		t.Fatalf("unexpected need/avoid: %+v", doc)
	}
}

func TestWriteArchiveContents(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, sampleReport(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if len(names) != 11 {
		t.Fatalf("expected 11 files, got %d: %v", len(names), names)
	}
	for _, want := range []string{"attempts_A.csv", "errors_P.csv", "avg_ms_B.csv", PhaseTableName, TargetsName} {
		if !names[want] {
			t.Fatalf("missing %s in archive", want)
		}
	}
	for _, f := range zr.File {
		if f.Name != "attempts_A.csv" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		if !strings.HasPrefix(string(data), `prev\cur,A,B`) {
			t.Fatalf("unexpected attempts csv: %q", string(data)[:20])
		}
	}
}

func TestWriteAllWritesBothSinks(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db", "apbtype.db")
	report := sampleReport(t)
	run := model.RunRecord{
		StartedAt: time.Now().Add(-time.Minute),
		EndedAt:   time.Now(),
		Alphabet:  "english",
		Provider:  "static",
		Summaries: report.Summaries,
		Targets:   report.Targets,
	}
	out, err := WriteAll(context.Background(), filepath.Join(dir, "results"), dbPath, run, report)
	if err != nil {
		t.Fatalf("write all: %v", err)
	}
	if filepath.Base(out.ArchivePath) != ArchiveName || out.RunID == 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), "")
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one stored run, got %d (%v)", len(runs), err)
	}
}

func TestWriteAllWithoutDatabase(t *testing.T) {
	out, err := WriteAll(context.Background(), t.TempDir(), "", model.RunRecord{}, sampleReport(t))
	if err != nil {
		t.Fatalf("write all: %v", err)
	}
	if out.ArchivePath == "" || out.RunID != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}
