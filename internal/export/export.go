// Package export writes finished experiment results to disk.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/apbtype/internal/model"
	"github.com/verte-zerg/apbtype/internal/stats"
	"github.com/verte-zerg/apbtype/internal/store"
)

// File names inside the results archive.
const (
	ArchiveName    = "typing_results.zip"
	PhaseTableName = "tpm_accuracy_per_phase.csv"
	TargetsName    = "targets.yaml"
)

var matrixKinds = []stats.MatrixKind{stats.KindAttempts, stats.KindErrors, stats.KindAvgLatency}

// MatrixFileName returns the CSV name of one phase table, e.g. "errors_A.csv".
func MatrixFileName(kind stats.MatrixKind, phase model.Phase) string {
	return fmt.Sprintf("%s_%s.csv", kind, phase)
}

// WriteMatrixCSV writes one table with prev symbols as rows.
func WriteMatrixCSV(w io.Writer, m stats.Matrices, kind stats.MatrixKind) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{`prev\cur`}, m.Labels...)); err != nil {
		return err
	}
	for i, row := range m.Cells(kind) {
		label := ""
		if i < len(m.Labels) {
			label = m.Labels[i]
		}
		if err := cw.Write(append([]string{label}, row...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePhaseCSV writes one row of metrics per phase. Accuracy is a percentage.
func WritePhaseCSV(w io.Writer, summaries []model.PhaseSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"phase", "wpm", "accuracy", "typed_chars", "typing_ms", "total_attempts", "total_errors"}); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := cw.Write([]string{
			string(s.Phase),
			fmt.Sprintf("%.2f", s.WPM),
			fmt.Sprintf("%.2f", s.Accuracy*100),
			fmt.Sprintf("%d", s.TypedChars),
			fmt.Sprintf("%d", s.ActiveMs),
			fmt.Sprintf("%d", s.Attempts),
			fmt.Sprintf("%d", s.Errors),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type targetsDoc struct {
	Alphabet    string          `yaml:"alphabet"`
	Transitions []transitionDoc `yaml:"transitions"`
	Avoid       []string        `yaml:"avoid,omitempty"`
}

type transitionDoc struct {
	Bigram string  `yaml:"bigram"`
	Weight float64 `yaml:"weight"`
	Need   int     `yaml:"need"`
	Avoid  bool    `yaml:"avoid,omitempty"`
}

// WriteTargetsYAML writes the phase-A target set.
func WriteTargetsYAML(w io.Writer, report stats.Report) error {
	doc := targetsDoc{Avoid: report.Avoid}
	if report.Alphabet != nil {
		doc.Alphabet = report.Alphabet.Name()
	}
	for _, t := range report.Targets {
		doc.Transitions = append(doc.Transitions, transitionDoc{
			Bigram: t.Bigram(),
			Weight: t.Weight,
			Need:   t.Need,
			Avoid:  t.Avoid,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// WriteArchive writes every CSV table and targets.yaml into a zip archive.
func WriteArchive(w io.Writer, report stats.Report) error {
	zw := zip.NewWriter(w)
	add := func(name string, fn func(io.Writer) error) error {
		f, err := zw.Create(name)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}
	for _, phase := range model.Phases {
		m, ok := report.Matrices[phase]
		if !ok {
			continue
		}
		for _, kind := range matrixKinds {
			if err := add(MatrixFileName(kind, phase), func(f io.Writer) error {
				return WriteMatrixCSV(f, m, kind)
			}); err != nil {
				return err
			}
		}
	}
	if err := add(PhaseTableName, func(f io.Writer) error {
		return WritePhaseCSV(f, report.Summaries)
	}); err != nil {
		return err
	}
	if err := add(TargetsName, func(f io.Writer) error {
		return WriteTargetsYAML(f, report)
	}); err != nil {
		return err
	}
	return zw.Close()
}

// WriteArchiveFile writes the archive into dir and returns its path.
func WriteArchiveFile(dir string, report stats.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	var buf bytes.Buffer
	if err := WriteArchive(&buf, report); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ArchiveName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename archive: %w", err)
	}
	return path, nil
}

// Outcome reports where WriteAll put the results.
type Outcome struct {
	ArchivePath string
	RunID       int64
}

// WriteAll writes the archive into dir and, when dbPath is set, inserts the
// run into the results database. Both sinks run concurrently.
func WriteAll(ctx context.Context, dir, dbPath string, run model.RunRecord, report stats.Report) (Outcome, error) {
	var out Outcome
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path, err := WriteArchiveFile(dir, report)
		if err != nil {
			return err
		}
		out.ArchivePath = path
		return nil
	})
	if dbPath != "" {
		g.Go(func() error {
			st, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open results db: %w", err)
			}
			defer func() {
				if cerr := st.Close(); cerr != nil {
					// Best-effort close.
					_ = cerr
				}
			}()
			id, err := st.InsertRun(ctx, run, report)
			if err != nil {
				return fmt.Errorf("store run: %w", err)
			}
			out.RunID = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
