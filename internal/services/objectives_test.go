package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiace/internal/core"
)

func TestDaysUntil(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		target core.Date
		want   int
	}{
		{core.NewDate(2024, 3, 13), 3},
		{core.NewDate(2024, 3, 11), 1},
		{core.NewDate(2024, 3, 10), 0},
		{core.NewDate(2024, 3, 9), -1},
		{core.NewDate(2024, 3, 1), -9},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DaysUntil(tc.target, now), tc.target.String())
	}
}

func TestReconcileObjectives_SingleReminder(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	o := l.AddObjective(ctx, core.Objective{Title: "Vidange", TargetDate: core.DateOf(now.AddDate(0, 0, 3)), ReminderDays: 7})
	r := NewObjectiveReconciler(l)

	first := r.ReconcileObjectives(ctx, now)
	assert.Equal(t, ReconcileResult{Notified: 1}, first)

	for i := 0; i < 5; i++ {
		assert.Equal(t, ReconcileResult{}, r.ReconcileObjectives(ctx, now))
	}

	notes := l.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, core.NotifyObjective, notes[0].Type)
	assert.Equal(t, o.ID, notes[0].RefID)
	assert.False(t, notes[0].Read)
	assert.True(t, strings.Contains(notes[0].Message, "["+o.ID+"]"))
	assert.Equal(t, `Rappel: "Vidange" prévu le 2024-03-13 (dans 3 jour(s)) [`+o.ID+`]`, notes[0].Message)
}

func TestReconcileObjectives_ReadNotificationStillDedups(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	l.AddObjective(ctx, core.Objective{Title: "Visite", TargetDate: core.NewDate(2024, 3, 12)})
	r := NewObjectiveReconciler(l)

	r.ReconcileObjectives(ctx, now)
	require.Len(t, l.Notifications(), 1)
	l.MarkNotificationRead(ctx, l.Notifications()[0].ID)

	// next day, still in window
	r.ReconcileObjectives(ctx, now.AddDate(0, 0, 1))
	assert.Len(t, l.Notifications(), 1)

	// a legacy notification that only carries the id in its message also counts
	other := l.AddObjective(ctx, core.Objective{Title: "Assurance", TargetDate: core.NewDate(2024, 3, 11)})
	l.AddNotification(ctx, core.Notification{Type: core.NotifyObjective, Message: "old [" + other.ID + "]"})
	res := r.ReconcileObjectives(ctx, now)
	assert.Equal(t, 0, res.Notified)
}

func TestReconcileObjectives_OutsideWindow(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	l.AddObjective(ctx, core.Objective{Title: "Far", TargetDate: core.NewDate(2024, 4, 30)})
	l.AddObjective(ctx, core.Objective{Title: "Custom", TargetDate: core.NewDate(2024, 3, 14), ReminderDays: 2})

	res := NewObjectiveReconciler(l).ReconcileObjectives(ctx, now)
	assert.Equal(t, ReconcileResult{}, res)
	assert.Empty(t, l.Notifications())
}

func TestReconcileObjectives_MarksLate(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	l.AddObjective(ctx, core.Objective{Title: "Past", TargetDate: core.NewDate(2024, 3, 1)})
	r := NewObjectiveReconciler(l)

	assert.Equal(t, ReconcileResult{MarkedLate: 1}, r.ReconcileObjectives(ctx, now))
	assert.Equal(t, ReconcileResult{}, r.ReconcileObjectives(ctx, now))
	assert.Equal(t, core.ObjectiveLate, l.Objectives()[0].Status)
	assert.Empty(t, l.Notifications())
}

func TestReconcileObjectives_DoneIsTerminal(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	done := l.AddObjective(ctx, core.Objective{Title: "Done", TargetDate: core.NewDate(2024, 3, 1), Status: core.ObjectiveDone})
	r := NewObjectiveReconciler(l)

	base := time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC)
	for d := 0; d < 60; d += 3 {
		r.ReconcileObjectives(ctx, base.AddDate(0, 0, d))
	}
	got := l.Objectives()
	require.Len(t, got, 1)
	assert.Equal(t, done.ID, got[0].ID)
	assert.Equal(t, core.ObjectiveDone, got[0].Status)
	assert.Empty(t, l.Notifications())
}

func TestReconcileObjectives_SkipsMissingTargetDate(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.AddObjective(ctx, core.Objective{Title: "Someday"})
	r := NewObjectiveReconciler(l)

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, ReconcileResult{}, r.ReconcileObjectives(ctx, now))
	assert.Equal(t, core.ObjectivePending, l.Objectives()[0].Status)
	assert.Empty(t, l.Notifications())
}
