package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/covidboard/internal/country"
	"github.com/JonMunkholm/covidboard/internal/dataset"
	"github.com/JonMunkholm/covidboard/internal/logging"
	"github.com/JonMunkholm/covidboard/internal/merge"
	"github.com/JonMunkholm/covidboard/internal/overview"
	"github.com/JonMunkholm/covidboard/internal/provider"
)

var (
	// ErrNotLoaded is returned before the first successful load.
	ErrNotLoaded = errors.New("dataset not loaded")

	// ErrLocationNotFound is returned for a location with no dated rows.
	ErrLocationNotFound = errors.New("location not found")
)

// Exporter persists a snapshot. Implemented by *store.Exporter.
type Exporter interface {
	EnsureSchema(ctx context.Context) error
	Export(ctx context.Context, loadID uuid.UUID, loadedAt time.Time, t *dataset.Table) (int64, error)
	Prune(ctx context.Context) (int64, error)
}

// Snapshot is one published unified table. It is never modified after
// publication.
type Snapshot struct {
	LoadID   uuid.UUID
	LoadedAt time.Time
	Duration time.Duration
	Table    *dataset.Table
}

// Options configures a Service.
type Options struct {
	Merge merge.Options

	// LoadTimeout bounds one load cycle. Zero means no limit.
	LoadTimeout time.Duration

	// Exporter, when set, receives every published snapshot.
	Exporter Exporter

	// MaxConcurrentDispatches and DispatchWait size the dispatch limiter.
	// Zero selects the defaults.
	MaxConcurrentDispatches int
	DispatchWait            time.Duration

	// HistorySize is the number of load attempts kept for History.
	HistorySize int
}

// Service owns the current snapshot and dispatches country modules.
type Service struct {
	provider   provider.Provider
	dispatcher *country.Dispatcher
	limiter    *DispatchLimiter
	history    *loadHistory
	opts       Options

	current atomic.Pointer[Snapshot]

	// reloadMu serializes load cycles.
	reloadMu sync.Mutex

	statusMu    sync.RWMutex
	lastAttempt time.Time
	lastErr     error
}

// NewService creates a service. No data is loaded until Reload is called.
func NewService(p provider.Provider, reg *country.Registry, opts Options) *Service {
	return &Service{
		provider:   p,
		dispatcher: country.NewDispatcher(reg),
		limiter:    NewDispatchLimiter(opts.MaxConcurrentDispatches, opts.DispatchWait),
		history:    newLoadHistory(opts.HistorySize),
		opts:       opts,
	}
}

// Reload runs one load cycle and publishes the result. On failure the
// previous snapshot stays current and the error is returned.
func (s *Service) Reload(ctx context.Context) (*Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.opts.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.LoadTimeout)
		defer cancel()
	}

	loadID := uuid.New()
	ctx = logging.ContextWithLoadID(ctx, loadID.String())
	logger := logging.WithFields(ctx,
		"trigger", GetTriggerFromContext(ctx),
		"ip", GetIPAddressFromContext(ctx),
	)

	start := time.Now()
	snap, err := s.load(ctx, loadID)
	s.recordAttempt(start, err)
	s.recordLoad(ctx, start, snap, err)
	if err != nil {
		logger.Error("load failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	s.current.Store(snap)
	logger.Info("snapshot published",
		"rows", snap.Table.Len(),
		"columns", len(snap.Table.Columns()),
		"duration_ms", snap.Duration.Milliseconds(),
	)

	if s.opts.Exporter != nil {
		s.export(ctx, snap)
	}
	return snap, nil
}

func (s *Service) load(ctx context.Context, loadID uuid.UUID) (*Snapshot, error) {
	start := time.Now()

	raw, err := s.provider.Provide(ctx)
	if err != nil {
		return nil, fmt.Errorf("load raw tables: %w", err)
	}

	unified, err := merge.Merge(raw.Main, raw.Secondary, raw.Vaccination, s.opts.Merge)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	return &Snapshot{
		LoadID:   loadID,
		LoadedAt: time.Now().UTC(),
		Duration: time.Since(start),
		Table:    unified,
	}, nil
}

// export writes snap to the exporter. Failures are logged only; the
// snapshot is already published.
func (s *Service) export(ctx context.Context, snap *Snapshot) {
	logger := logging.FromContext(ctx)

	if err := s.opts.Exporter.EnsureSchema(ctx); err != nil {
		logger.Error("export schema failed", "error", err)
		return
	}
	if _, err := s.opts.Exporter.Export(ctx, snap.LoadID, snap.LoadedAt, snap.Table); err != nil {
		logger.Error("export failed", "error", err)
		return
	}
	if pruned, err := s.opts.Exporter.Prune(ctx); err != nil {
		logger.Warn("prune failed", "error", err)
	} else if pruned > 0 {
		logger.Info("pruned old loads", "loads_deleted", pruned)
	}
}

func (s *Service) recordAttempt(at time.Time, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.lastAttempt = at
	s.lastErr = err
}

// Snapshot returns the current snapshot, or ErrNotLoaded.
func (s *Service) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Dispatch runs the module registered for label against the current
// snapshot.
func (s *Service) Dispatch(ctx context.Context, label string) (country.Outcome, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return country.Outcome{}, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return country.Outcome{}, fmt.Errorf("dispatch %q: %w", label, err)
	}
	defer s.limiter.Release()
	return s.dispatcher.Dispatch(ctx, label, snap.Table)
}

// WaitForDispatches blocks until running country modules finish or ctx is
// done.
func (s *Service) WaitForDispatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Labels returns the registered country labels, sorted.
func (s *Service) Labels() []string {
	return s.dispatcher.Registry().Labels()
}

// Overview returns the global headline for the current snapshot.
func (s *Service) Overview() (overview.Global, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return overview.Global{}, err
	}
	return overview.Summarize(snap.Table), nil
}

// Locations returns the selectable locations in the current snapshot.
func (s *Service) Locations() ([]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return overview.Locations(snap.Table), nil
}

// Latest returns the most recent figures for one location.
func (s *Service) Latest(location string) (overview.Latest, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return overview.Latest{}, err
	}
	l, ok := overview.LatestFor(snap.Table, location)
	if !ok {
		return overview.Latest{}, fmt.Errorf("%w: %q", ErrLocationNotFound, location)
	}
	return l, nil
}

// Status describes the load state for health checks.
type Status struct {
	Loaded      bool      `json:"loaded"`
	LoadID      string    `json:"load_id,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	LastAttempt time.Time `json:"last_attempt"`
	LastError   string    `json:"last_error,omitempty"`
	Countries   int       `json:"countries"`

	Dispatch DispatchLimiterStatus `json:"dispatch"`
}

// Status reports the current snapshot and the outcome of the last load.
func (s *Service) Status() Status {
	st := Status{
		Countries: s.dispatcher.Registry().Len(),
		Dispatch:  s.limiter.Status(),
	}
	if snap := s.current.Load(); snap != nil {
		st.Loaded = true
		st.LoadID = snap.LoadID.String()
		st.LoadedAt = snap.LoadedAt
		st.Rows = snap.Table.Len()
		st.Columns = len(snap.Table.Columns())
	}

	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st.LastAttempt = s.lastAttempt
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
