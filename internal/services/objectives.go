package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"hiace/internal/core"
)

// ObjectiveStore is the part of the ledger the reconciler works on.
type ObjectiveStore interface {
	Objectives() []core.Objective
	MarkObjectiveLate(ctx context.Context, id string) bool
	AddNotificationUnless(ctx context.Context, n core.Notification, exists func(core.Notification) bool) (core.Notification, bool)
}

// ReconcileResult counts what a reconciliation pass changed.
type ReconcileResult struct {
	MarkedLate int `json:"markedLate"`
	Notified   int `json:"notified"`
}

// ObjectiveReconciler moves overdue objectives to late and emits one reminder
// per objective entering its reminder window.
type ObjectiveReconciler struct {
	store ObjectiveStore
}

func NewObjectiveReconciler(store ObjectiveStore) *ObjectiveReconciler {
	return &ObjectiveReconciler{store: store}
}

// ReconcileObjectives is idempotent for a given now. Done objectives are
// never touched.
func (r *ObjectiveReconciler) ReconcileObjectives(ctx context.Context, now time.Time) ReconcileResult {
	var res ReconcileResult

	for _, o := range r.store.Objectives() {
		// An objective without a target date has no deadline to track.
		if o.Status == core.ObjectiveDone || o.TargetDate.IsZero() {
			continue
		}
		diff := DaysUntil(o.TargetDate, now)

		if diff < 0 && o.Status != core.ObjectiveLate {
			if r.store.MarkObjectiveLate(ctx, o.ID) {
				res.MarkedLate++
				slog.InfoContext(ctx, "Objective is late",
					"objective_id", o.ID,
					"target_date", o.TargetDate.String())
			}
		}

		if diff >= 0 && diff <= o.EffectiveReminderDays() {
			n := core.Notification{
				Type:    core.NotifyObjective,
				Message: ReminderMessage(o, diff),
				RefID:   o.ID,
				Date:    now,
			}
			if _, added := r.store.AddNotificationUnless(ctx, n, referencesObjective(o.ID)); added {
				res.Notified++
				slog.InfoContext(ctx, "Objective reminder created",
					"objective_id", o.ID,
					"days_left", diff)
			}
		}
	}
	return res
}

// DaysUntil returns ceil((target - now) / 24h), with target at midnight UTC.
func DaysUntil(target core.Date, now time.Time) int {
	return int(math.Ceil(float64(target.Sub(now)) / float64(24*time.Hour)))
}

// ReminderMessage renders the reminder text. The objective id is embedded in
// brackets.
func ReminderMessage(o core.Objective, daysLeft int) string {
	return fmt.Sprintf("Rappel: %q prévu le %s (dans %d jour(s)) [%s]", o.Title, o.TargetDate, daysLeft, o.ID)
}

// referencesObjective matches read and unread objective notifications.
func referencesObjective(id string) func(core.Notification) bool {
	return func(n core.Notification) bool {
		if n.Type != core.NotifyObjective {
			return false
		}
		return n.RefID == id || strings.Contains(n.Message, id)
	}
}
