package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// fakeDB records statements and copied rows. Unused pgx.Tx methods panic
// through the nil embedded interface.
type fakeDB struct {
	pgx.Tx

	execs     []string
	copied    [][]any
	copyTable pgx.Identifier
	copyErr   error
	committed bool
	rolled    bool
}

func (f *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return f, nil }

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("DELETE 2"), nil
}

func (f *fakeDB) CopyFrom(ctx context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copyTable = table
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.copied = append(f.copied, vals)
	}
	return int64(len(f.copied)), src.Err()
}

func (f *fakeDB) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeDB) Rollback(ctx context.Context) error {
	if !f.committed {
		f.rolled = true
	}
	return nil
}

func snapshot() *dataset.Table {
	d := dataset.Date(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	return dataset.MustTable([]string{"location", "date", "total_cases", "vaccine"},
		[]dataset.Value{dataset.String("France"), d, dataset.Number(100), dataset.Null()},
		[]dataset.Value{dataset.Null(), dataset.Null(), dataset.Number(1), dataset.String("Moderna")},
	)
}

func TestExport(t *testing.T) {
	db := &fakeDB{}
	id := uuid.New()

	n, err := NewExporter(db, "covid_unified_rows", 0).Export(context.Background(), id, time.Now(), snapshot())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, db.committed)
	assert.Equal(t, pgx.Identifier{"covid_unified_rows"}, db.copyTable)

	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], `INSERT INTO "covid_loads"`)

	first := db.copied[0]
	require.Len(t, first, len(CopyColumns))
	assert.Equal(t, pgtype.UUID{Bytes: id, Valid: true}, first[0])
	assert.Equal(t, pgtype.Text{String: "France", Valid: true}, first[1])
	assert.True(t, first[2].(pgtype.Date).Valid)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(first[3].([]byte), &doc))
	assert.Equal(t, map[string]any{"total_cases": 100.0, "vaccine": nil}, doc)

	second := db.copied[1]
	assert.False(t, second[1].(pgtype.Text).Valid)
	assert.False(t, second[2].(pgtype.Date).Valid)
}

func TestExport_CopyFailureRollsBack(t *testing.T) {
	db := &fakeDB{copyErr: errors.New("connection reset")}

	_, err := NewExporter(db, "covid_unified_rows", 0).Export(context.Background(), uuid.New(), time.Now(), snapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy unified rows")
	assert.False(t, db.committed)
	assert.True(t, db.rolled)
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewExporter(db, "rows", 0).EnsureSchema(context.Background()))

	require.Len(t, db.execs, 3)
	for _, s := range db.execs {
		assert.Contains(t, s, "IF NOT EXISTS")
	}
	assert.True(t, strings.Contains(db.execs[1], `REFERENCES "covid_loads"`))
}

func TestPrune(t *testing.T) {
	db := &fakeDB{}
	n, err := NewExporter(db, "rows", 0).Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, db.execs)

	n, err = NewExporter(db, "rows", 3).Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], "DELETE FROM")
}
