package batch

// sweeper.go removes workspaces that outlived their job.
//
// A job always removes its own workspace, but a crash or kill between
// NewWorkspace and Close leaves the directory behind. The sweeper runs once
// on start, then on a cron schedule, and deletes workspace directories older
// than MaxAge. Failures are logged and never stop the service.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const workspacePrefix = "templatefill-"

// SweepParser parses sweep schedules: standard five-field cron plus
// descriptors such as "@every 15m".
var SweepParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// SweeperConfig configures a Sweeper.
type SweeperConfig struct {
	Root     string        // workspace root; "" means os.TempDir()
	Schedule string        // cron schedule; "" disables the periodic sweep
	MaxAge   time.Duration // minimum age before a workspace is removed
}

// Sweeper periodically deletes abandoned workspaces.
type Sweeper struct {
	cfg  SweeperConfig
	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a Sweeper. It does nothing until Start.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	if cfg.Root == "" {
		cfg.Root = os.TempDir()
	}
	return &Sweeper{
		cfg:  cfg,
		cron: cron.New(cron.WithParser(SweepParser)),
	}
}

// Start sweeps once, then schedules periodic sweeps. The sweeper stops when
// ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.cfg.Schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.run); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.Schedule, err)
	}

	s.run()
	s.cron.Start()
	s.running = true

	slog.Info("workspace sweeper started",
		"root", s.cfg.Root,
		"schedule", s.cfg.Schedule,
		"max_age", s.cfg.MaxAge,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	slog.Info("workspace sweeper stopped")
}

func (s *Sweeper) run() {
	start := time.Now()
	removed, err := s.Sweep(start)
	if err != nil {
		slog.Error("workspace sweep failed", "error", err, "removed", removed)
		return
	}
	if removed > 0 {
		slog.Info("removed stale workspaces",
			"removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Sweep removes workspace directories under the root last modified before
// now minus MaxAge and returns how many it removed. Other entries in the
// root are never touched.
func (s *Sweeper) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(s.cfg.Root)
	if err != nil {
		return 0, fmt.Errorf("read workspace root: %w", err)
	}

	cutoff := now.Add(-s.cfg.MaxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), workspacePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed concurrently
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.cfg.Root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
