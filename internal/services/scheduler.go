package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hiace/internal/core"
)

// ObjectiveRunner runs one objective reconciliation pass.
type ObjectiveRunner interface {
	ReconcileObjectives(ctx context.Context, now time.Time) ReconcileResult
}

// AutomationRunner books due automations.
type AutomationRunner interface {
	ApplyDueAutomations(ctx context.Context, now time.Time) (int, error)
}

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	// ObjectiveInterval is how often objectives are reconciled (default: 5m)
	ObjectiveInterval time.Duration

	// AutoApplyAutomations books due automations once per calendar day
	AutoApplyAutomations bool

	// Now is the time source (default: time.Now)
	Now func() time.Time
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ObjectiveInterval: 5 * time.Minute,
		Now:               time.Now,
	}
}

// Scheduler runs the periodic ledger jobs in the background.
type Scheduler struct {
	objectives  ObjectiveRunner
	automations AutomationRunner
	config      SchedulerConfig

	// Lifecycle management
	mu          sync.Mutex
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	lastApplied core.Date
}

// NewScheduler creates a new scheduler. automations may be nil when auto
// apply is disabled.
func NewScheduler(objectives ObjectiveRunner, automations AutomationRunner, config SchedulerConfig) *Scheduler {
	if config.ObjectiveInterval <= 0 {
		config.ObjectiveInterval = DefaultSchedulerConfig().ObjectiveInterval
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Scheduler{
		objectives:  objectives,
		automations: automations,
		config:      config,
	}
}

// Start begins the scheduling loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Scheduler started",
		"objective_interval", s.config.ObjectiveInterval,
		"auto_apply_automations", s.config.AutoApplyAutomations)

	return nil
}

// Stop gracefully stops the scheduler and waits for completion.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// runLoop is the main scheduling loop
func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.ObjectiveInterval)
	defer ticker.Stop()

	// Run immediately on startup
	s.tick(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one round of jobs.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.config.Now()

	if s.config.AutoApplyAutomations && s.automations != nil {
		today := core.DateOf(now)
		if !today.Equal(s.lastApplied) {
			n, err := s.automations.ApplyDueAutomations(ctx, now)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to apply automations", "error", err)
			} else {
				s.lastApplied = today
				slog.DebugContext(ctx, "Automations applied", "count", n)
			}
		}
	}

	if s.objectives != nil {
		res := s.objectives.ReconcileObjectives(ctx, now)
		if res.MarkedLate > 0 || res.Notified > 0 {
			slog.InfoContext(ctx, "Objectives reconciled",
				"marked_late", res.MarkedLate,
				"notified", res.Notified)
		}
	}
}
