// Package store handles SQLite persistence of exported runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/apbtype/internal/model"
	"github.com/verte-zerg/apbtype/internal/stats"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for run results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			alphabet TEXT NOT NULL,
			provider TEXT NOT NULL,
			targets TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS phase_metrics (
			run_id INTEGER NOT NULL,
			phase TEXT NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			typed_chars INTEGER NOT NULL,
			typing_ms INTEGER NOT NULL,
			total_attempts INTEGER NOT NULL,
			total_errors INTEGER NOT NULL,
			PRIMARY KEY (run_id, phase)
		);`,
		`CREATE TABLE IF NOT EXISTS transition_cells (
			run_id INTEGER NOT NULL,
			phase TEXT NOT NULL,
			prev TEXT NOT NULL,
			cur TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			avg_ms REAL,
			PRIMARY KEY (run_id, phase, prev, cur)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a finished run with its phase metrics and every non-empty
// transition cell.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord, report stats.Report) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, ended_at, alphabet, provider, targets) VALUES (?, ?, ?, ?, ?)`,
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		run.Alphabet,
		run.Provider,
		stats.FormatTargets(run.Targets),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, sum := range run.Summaries {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO phase_metrics (run_id, phase, wpm, accuracy, typed_chars, typing_ms, total_attempts, total_errors)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, string(sum.Phase), sum.WPM, sum.Accuracy, sum.TypedChars, sum.ActiveMs, sum.Attempts, sum.Errors,
		); err != nil {
			return 0, fmt.Errorf("insert phase %s: %w", sum.Phase, err)
		}
	}

	if err = insertCells(ctx, tx, id, report); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func insertCells(ctx context.Context, tx *sql.Tx, runID int64, report stats.Report) error {
	if report.Alphabet == nil || len(report.Matrices) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transition_cells (run_id, phase, prev, cur, attempts, errors, avg_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, phase := range model.Phases {
		m, ok := report.Matrices[phase]
		if !ok {
			continue
		}
		for i := range m.Attempts {
			for j, attempts := range m.Attempts[i] {
				if attempts == 0 {
					continue
				}
				var avg sql.NullFloat64
				if lat := m.AvgLatency[i][j]; lat.Valid {
					avg = sql.NullFloat64{Float64: lat.Ms, Valid: true}
				}
				prev := string(report.Alphabet.Symbol(i))
				cur := string(report.Alphabet.Symbol(j))
				if _, err := stmt.ExecContext(ctx, runID, string(phase), prev, cur, attempts, m.Errors[i][j], avg); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ListRuns returns stored runs with their phase metrics, oldest first.
// An empty alphabet lists every run.
func (s *Store) ListRuns(ctx context.Context, alphabet string) ([]model.RunAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if alphabet != "" {
		clauses = append(clauses, "r.alphabet = ?")
		args = append(args, alphabet)
	}
	query := fmt.Sprintf(`SELECT r.id, r.ended_at, r.alphabet, r.provider,
		m.phase, m.wpm, m.accuracy, m.typed_chars, m.typing_ms, m.total_attempts, m.total_errors
		FROM runs r
		LEFT JOIN phase_metrics m ON m.run_id = r.id
		WHERE %s
		ORDER BY r.ended_at ASC, r.id ASC, m.phase ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunAggregate
	for rows.Next() {
		var (
			id                   int64
			endedAt, abc, prov   string
			phase                sql.NullString
			wpm, acc             sql.NullFloat64
			typed, ms, att, errs sql.NullInt64
		)
		if err := rows.Scan(&id, &endedAt, &abc, &prov, &phase, &wpm, &acc, &typed, &ms, &att, &errs); err != nil {
			return nil, err
		}
		if len(runs) == 0 || runs[len(runs)-1].RunID != id {
			parsed, err := time.Parse(time.RFC3339Nano, endedAt)
			if err != nil {
				return nil, err
			}
			runs = append(runs, model.RunAggregate{RunID: id, EndedAt: parsed, Alphabet: abc, Provider: prov})
		}
		if !phase.Valid {
			continue
		}
		p, err := model.ParsePhase(phase.String)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", id, err)
		}
		last := &runs[len(runs)-1]
		last.Summaries = append(last.Summaries, model.PhaseSummary{
			Phase:      p,
			WPM:        wpm.Float64,
			Accuracy:   acc.Float64,
			TypedChars: int(typed.Int64),
			ActiveMs:   ms.Int64,
			Attempts:   int(att.Int64),
			Errors:     int(errs.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		sortSummaries(runs[i].Summaries)
	}
	return runs, nil
}

// sortSummaries restores run order; SQL ordering is alphabetical.
func sortSummaries(sums []model.PhaseSummary) {
	order := map[model.Phase]int{}
	for i, p := range model.Phases {
		order[p] = i
	}
	sort.SliceStable(sums, func(i, j int) bool {
		return order[sums[i].Phase] < order[sums[j].Phase]
	})
}
