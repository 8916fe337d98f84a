// Package provider supplies the three raw tables the merge engine consumes.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/covidboard/internal/dataset"
)

// Tables are the raw inputs of one load cycle.
type Tables struct {
	Main        *dataset.Table
	Secondary   *dataset.Table
	Vaccination *dataset.Table
}

// Provider loads the raw tables.
type Provider interface {
	Provide(ctx context.Context) (*Tables, error)
}

// Files names the three CSV files inside a Dir.
type Files struct {
	Main        string
	Secondary   string
	Vaccination string
}

// DefaultFiles returns the upstream dataset file names.
func DefaultFiles() Files {
	return Files{
		Main:        "covid_daily_full.csv",
		Secondary:   "owid-covid-data.csv",
		Vaccination: "country_vaccinations_by_manufacturer.csv",
	}
}

// Dir reads the raw tables from CSV files in one directory.
type Dir struct {
	root  string
	files Files
}

// NewDir returns a provider reading files from root.
func NewDir(root string, files Files) *Dir {
	return &Dir{root: root, files: files}
}

// Provide reads the three files concurrently. The first failure cancels the
// remaining reads.
func (d *Dir) Provide(ctx context.Context) (*Tables, error) {
	var out Tables
	g, gctx := errgroup.WithContext(ctx)

	load := func(name string, dst **dataset.Table) {
		g.Go(func() error {
			t, err := d.read(gctx, name)
			if err != nil {
				return err
			}
			*dst = t
			return nil
		})
	}
	load(d.files.Main, &out.Main)
	load(d.files.Secondary, &out.Secondary)
	load(d.files.Vaccination, &out.Vaccination)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Dir) read(ctx context.Context, name string) (*dataset.Table, error) {
	path := filepath.Join(d.root, name)
	start := time.Now()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file not found: %s: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := dataset.ReadCSV(name, &ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, err
	}

	slog.Info("raw table loaded",
		"file", name,
		"rows", res.Table.Len(),
		"columns", len(res.Table.Columns()),
		"bytes", res.BytesRead,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res.Table, nil
}

// ctxReader stops a read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Static serves fixed tables. Useful for tests and for callers that already
// hold the data in memory.
type Static struct {
	Tables Tables
}

// Provide returns the fixed tables.
func (s *Static) Provide(ctx context.Context) (*Tables, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := s.Tables
	return &t, nil
}
