// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for automation dueness checking.
// Each frequency has its own checker that decides whether a task should
// materialize as an expense now.

package services

import (
	"fmt"
	"time"

	"hiace/internal/core"
)

const (
	WeeklyWindow  = 7 * 24 * time.Hour
	MonthlyWindow = 30 * 24 * time.Hour
)

// DuenessChecker is the strategy interface for checking if an automation is due.
type DuenessChecker interface {
	// IsDue reports whether a task last triggered on lastTriggered should
	// trigger at now. A zero lastTriggered means never.
	IsDue(lastTriggered core.Date, now time.Time) bool

	// Stamps reports whether a trigger is recorded on the task.
	Stamps() bool
}

// DailyChecker implements DuenessChecker for daily automations. They are due
// on every call and never stamped; one entry per date keeps them from
// repeating.
type DailyChecker struct{}

func (DailyChecker) IsDue(core.Date, time.Time) bool { return true }

func (DailyChecker) Stamps() bool { return false }

// WindowChecker implements DuenessChecker for a fixed elapsed-time window.
// Monthly uses 30 days, not calendar months.
type WindowChecker struct {
	Window time.Duration
}

// IsDue returns true if never triggered or at least Window has elapsed since
// midnight UTC of the last trigger date.
func (c WindowChecker) IsDue(lastTriggered core.Date, now time.Time) bool {
	if lastTriggered.IsZero() {
		return true
	}
	return now.Sub(lastTriggered.Time) >= c.Window
}

func (WindowChecker) Stamps() bool { return true }

// duenessStrategies maps frequencies to their corresponding checkers.
var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WindowChecker{Window: WeeklyWindow},
	core.Monthly: WindowChecker{Window: MonthlyWindow},
}

// GetDuenessChecker returns the dueness checker for a frequency.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidFrequency, frequency)
	}
	return checker, nil
}
