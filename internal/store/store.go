// Package store exports unified snapshots to Postgres.
//
// Each successful load writes one row to covid_loads and one row per
// unified row to the export table via COPY. Non-key columns travel as a
// jsonb document so the export schema does not depend on the upstream
// column set.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// LoadsTable records one row per exported snapshot.
const LoadsTable = "covid_loads"

// CopyColumns are the export table columns, in the order rowSource yields them.
var CopyColumns = []string{"load_id", "location", "date", "data"}

// DB is the subset of *pgxpool.Pool the exporter uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Exporter writes snapshots to Postgres.
type Exporter struct {
	db    DB
	table string
	keep  int
}

// NewExporter returns an exporter writing rows to table. keep is how many
// recent loads Prune retains; 0 disables pruning.
func NewExporter(db DB, table string, keep int) *Exporter {
	return &Exporter{db: db, table: table, keep: keep}
}

// EnsureSchema creates the export tables if they do not exist.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	loads := pgx.Identifier{LoadsTable}.Sanitize()
	rows := pgx.Identifier{e.table}.Sanitize()
	idx := pgx.Identifier{e.table + "_load_location_idx"}.Sanitize()

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	load_id   uuid PRIMARY KEY,
	loaded_at timestamptz NOT NULL,
	row_count integer NOT NULL,
	columns   text[] NOT NULL
)`, loads),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	load_id  uuid NOT NULL REFERENCES %s (load_id) ON DELETE CASCADE,
	location text,
	date     date,
	data     jsonb NOT NULL
)`, rows, loads),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (load_id, location, date)`, idx, rows),
	}
	for _, s := range stmts {
		if _, err := e.db.Exec(ctx, s); err != nil {
			return fmt.Errorf("ensure export schema: %w", err)
		}
	}
	return nil
}

// Export writes t under loadID in a single transaction and returns the
// number of rows copied.
func (e *Exporter) Export(ctx context.Context, loadID uuid.UUID, loadedAt time.Time, t *dataset.Table) (int64, error) {
	start := time.Now()

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (load_id, loaded_at, row_count, columns) VALUES ($1, $2, $3, $4)`,
			pgx.Identifier{LoadsTable}.Sanitize()),
		pgtype.UUID{Bytes: loadID, Valid: true},
		pgtype.Timestamptz{Time: loadedAt, Valid: true},
		pgtype.Int4{Int32: int32(t.Len()), Valid: true},
		t.Columns(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert load record: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{e.table}, CopyColumns, newRowSource(loadID, t))
	if err != nil {
		return 0, fmt.Errorf("copy unified rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.Info("snapshot exported",
		"load_id", loadID.String(),
		"rows", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return n, nil
}

// Prune deletes all but the most recent keep loads. Export rows go with
// them through the foreign key.
func (e *Exporter) Prune(ctx context.Context) (int64, error) {
	if e.keep <= 0 {
		return 0, nil
	}
	loads := pgx.Identifier{LoadsTable}.Sanitize()
	tag, err := e.db.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE load_id NOT IN (SELECT load_id FROM %s ORDER BY loaded_at DESC LIMIT $1)`, loads, loads),
		e.keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune loads: %w", err)
	}
	return tag.RowsAffected(), nil
}

// rowSource adapts a Table to pgx.CopyFromSource.
type rowSource struct {
	loadID pgtype.UUID
	t      *dataset.Table
	cols   []string
	i      int
	err    error
}

func newRowSource(loadID uuid.UUID, t *dataset.Table) *rowSource {
	var cols []string
	for _, c := range t.Columns() {
		if c != dataset.ColLocation && c != dataset.ColDate {
			cols = append(cols, c)
		}
	}
	return &rowSource{
		loadID: pgtype.UUID{Bytes: loadID, Valid: true},
		t:      t,
		cols:   cols,
		i:      -1,
	}
}

func (s *rowSource) Next() bool {
	if s.err != nil {
		return false
	}
	s.i++
	return s.i < s.t.Len()
}

func (s *rowSource) Values() ([]any, error) {
	doc := make(map[string]any, len(s.cols))
	for _, c := range s.cols {
		doc[c] = s.t.Get(s.i, c).Interface()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		s.err = fmt.Errorf("encode row %d: %w", s.i, err)
		return nil, s.err
	}

	return []any{
		s.loadID,
		toPgText(s.t.Get(s.i, dataset.ColLocation)),
		toPgDate(s.t.Get(s.i, dataset.ColDate)),
		data,
	}, nil
}

func (s *rowSource) Err() error { return s.err }

func toPgText(v dataset.Value) pgtype.Text {
	if v.IsNull() {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: v.Text(), Valid: true}
}

func toPgDate(v dataset.Value) pgtype.Date {
	if v.Kind != dataset.KindDate {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: v.Time, Valid: true}
}
