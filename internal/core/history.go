package core

import (
	"context"
	"sync"
	"time"
)

// DefaultHistorySize is the number of load attempts kept in memory.
const DefaultHistorySize = 50

// LoadOutcome classifies a load attempt.
type LoadOutcome string

const (
	LoadSucceeded LoadOutcome = "succeeded"
	LoadFailed    LoadOutcome = "failed"
)

// LoadRecord is one entry in the load history.
type LoadRecord struct {
	LoadID     string      `json:"load_id,omitempty"`
	Outcome    LoadOutcome `json:"outcome"`
	Trigger    string      `json:"trigger"`
	IPAddress  string      `json:"ip_address,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMS int64       `json:"duration_ms"`
	Rows       int         `json:"rows,omitempty"`
	Columns    int         `json:"columns,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"`
}

// loadHistory is a bounded log of load attempts, oldest dropped first.
type loadHistory struct {
	mu      sync.RWMutex
	entries []LoadRecord
	size    int
}

func newLoadHistory(size int) *loadHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &loadHistory{size: size}
}

func (h *loadHistory) add(rec LoadRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, rec)
	if over := len(h.entries) - h.size; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

// recent returns up to limit entries, newest first. limit <= 0 returns all.
func (h *loadHistory) recent(limit int) []LoadRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]LoadRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

// recordLoad appends the outcome of one Reload to the history.
func (s *Service) recordLoad(ctx context.Context, start time.Time, snap *Snapshot, err error) {
	rec := LoadRecord{
		Trigger:    GetTriggerFromContext(ctx),
		IPAddress:  GetIPAddressFromContext(ctx),
		StartedAt:  start.UTC(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		msg := MapError(err)
		rec.Outcome = LoadFailed
		rec.Error = err.Error()
		rec.Code = msg.Code
	} else {
		rec.Outcome = LoadSucceeded
		rec.LoadID = snap.LoadID.String()
		rec.Rows = snap.Table.Len()
		rec.Columns = len(snap.Table.Columns())
	}
	s.history.add(rec)
}

// History returns up to limit recent load attempts, newest first.
func (s *Service) History(limit int) []LoadRecord {
	return s.history.recent(limit)
}
