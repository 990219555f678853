// Package sync exports the task store as JSONL backups and restores them.
package sync

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/taskgrid/internal/store"
)

// Destination is the interface for a sync target (S3, local file).
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
	// Open returns the last payload written, for restores.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.syncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	if err := RunOnce(ctx, s.store, s.destinations, s.logger); err != nil {
		s.logger.Error("sync export failed", "err", err)
	}
}

// RunOnce exports the store and writes the result to every destination.
// Destination failures are logged and do not stop the others; only an export
// failure is returned.
func RunOnce(ctx context.Context, st store.Store, destinations []Destination, logger *slog.Logger) error {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, st, &buf); err != nil {
		return err
	}
	data := buf.Bytes()

	failed := 0
	for _, dest := range destinations {
		if err := dest.Write(ctx, data); err != nil {
			failed++
			logger.Error("sync destination write failed", "destination", dest.Name(), "err", err)
		}
	}

	logger.Info("sync completed", "destinations", len(destinations), "failed", failed, "bytes", len(data))
	return nil
}
