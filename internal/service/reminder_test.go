package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dcsil/DoseMate-backend/internal"
)

func seedScheduleWithMed(t *testing.T, store interface {
	SaveMedication(ctx context.Context, med *internal.Medication) error
	SaveSchedule(ctx context.Context, sched *internal.Schedule) error
}, sched *internal.Schedule) {
	t.Helper()
	ctx := context.Background()
	assert.NoError(t, store.SaveMedication(ctx, &internal.Medication{
		ID: sched.MedicationID, UserID: sched.UserID, BrandName: "Metformin",
	}))
	assert.NoError(t, store.SaveSchedule(ctx, sched))
}

func TestTodaysReminders_CreatesPendingInstances(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}

	sched := nineAMSchedule()
	sched.TimeOfDay = []string{"9:00 AM", "9:00 PM"}
	sched.Strength = "500mg"
	sched.FoodInstructions = "with food"
	seedScheduleWithMed(t, store, sched)

	now := testToday // Wednesday, 12:00
	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, now)
	assert.NoError(t, err)
	assert.Len(t, reminders, 2)

	morning := reminders[0]
	assert.Equal(t, "Metformin", morning.Name)
	assert.Equal(t, "500mg", morning.Strength)
	assert.Equal(t, "9:00 AM", morning.Time)
	assert.Equal(t, internal.DoseStatusPending, morning.Status)
	assert.True(t, morning.Overdue) // 12:00 > 9:00
	assert.Equal(t, "with food", morning.Instructions)

	evening := reminders[1]
	assert.Equal(t, "9:00 PM", evening.Time)
	assert.False(t, evening.Overdue)
}

func TestTodaysReminders_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}
	seedScheduleWithMed(t, store, nineAMSchedule())

	first, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)
	second, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestTodaysReminders_ReattachesAfterSnooze(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}
	seedScheduleWithMed(t, store, nineAMSchedule())

	first, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)
	assert.Len(t, first, 1)

	// The snooze drifts scheduled_time away from the nominal slot; the next
	// reconciliation must find the same instance, not create a duplicate.
	_, err = Snooze(ctx, store, user, first[0].ID)
	assert.NoError(t, err)

	second, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, internal.DoseStatusSnoozed, second[0].Status)
}

func TestTodaysReminders_DayFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}

	sched := nineAMSchedule()
	sched.Days = []string{"Monday"}
	seedScheduleWithMed(t, store, sched)

	tuesday := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Tuesday, tuesday.Weekday())

	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, tuesday)
	assert.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestTodaysReminders_EmptyDaysNeverFires(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}

	sched := nineAMSchedule()
	sched.Days = nil
	seedScheduleWithMed(t, store, sched)

	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestTodaysReminders_SkipsUnparseableSlot(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}

	sched := nineAMSchedule()
	sched.TimeOfDay = []string{"whenever", "9:00 AM"}
	seedScheduleWithMed(t, store, sched)

	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)
	assert.Len(t, reminders, 1)
	assert.Equal(t, "9:00 AM", reminders[0].Time)
}

func TestTodaysReminders_MissingMedicationIsolated(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}

	broken := nineAMSchedule()
	broken.ID = "s-broken"
	broken.MedicationID = "m-gone"
	assert.NoError(t, store.SaveSchedule(ctx, broken))

	ok := nineAMSchedule()
	ok.ID = "s-ok"
	seedScheduleWithMed(t, store, ok)

	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)
	assert.Len(t, reminders, 1)
	assert.Equal(t, "s-ok", reminders[0].ScheduleID)
}

func TestMarkTaken_OnTime(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}
	seedScheduleWithMed(t, store, nineAMSchedule())

	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)

	scheduled := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	inst, err := MarkTaken(ctx, store, user, reminders[0].ID, scheduled.Add(5*time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, internal.DoseStatusTaken, inst.Status)
	assert.NotNil(t, inst.TakenTime)
	assert.False(t, inst.Snoozed) // 5 min late is within the threshold
}

func TestMarkTaken_LateSetsSnoozed(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}
	seedScheduleWithMed(t, store, nineAMSchedule())

	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)

	scheduled := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	inst, err := MarkTaken(ctx, store, user, reminders[0].ID, scheduled.Add(25*time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, internal.DoseStatusTaken, inst.Status)
	assert.True(t, inst.Snoozed)
}

func TestMarkTaken_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}
	seedScheduleWithMed(t, store, nineAMSchedule())

	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)

	first, err := MarkTaken(ctx, store, user, reminders[0].ID, testToday)
	assert.NoError(t, err)
	later := testToday.Add(10 * time.Minute)
	second, err := MarkTaken(ctx, store, user, reminders[0].ID, later)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, later, *second.TakenTime) // overwrite, not reject
}

func TestMarkTaken_NotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}

	_, err := MarkTaken(ctx, store, user, "nope", testToday)
	assert.True(t, IsNotFound(err))
}

func TestSnooze_ShiftsFifteenMinutes(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}
	seedScheduleWithMed(t, store, nineAMSchedule())

	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)

	before, err := store.GetDoseInstance(ctx, reminders[0].ID, user.ID)
	assert.NoError(t, err)

	inst, err := Snooze(ctx, store, user, reminders[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, before.ScheduledTime.Add(15*time.Minute), inst.ScheduledTime)
	assert.Equal(t, internal.DoseStatusSnoozed, inst.Status)
	assert.True(t, inst.Snoozed)

	// Still actionable: snoozed doses can be taken afterwards.
	taken, err := MarkTaken(ctx, store, user, inst.ID, inst.ScheduledTime.Add(2*time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, internal.DoseStatusTaken, taken.Status)
	assert.True(t, taken.Snoozed)
}

func TestTodaysReminders_AsNeededGeneratesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	user := &internal.User{ID: "u1"}

	sched := nineAMSchedule()
	sched.AsNeeded = true
	sched.Frequency = "as_needed"
	seedScheduleWithMed(t, store, sched)

	reminders, err := TodaysReminders(ctx, store, store, store, nopLogger(), user, testToday)
	assert.NoError(t, err)
	assert.Empty(t, reminders)
}
