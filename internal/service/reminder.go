package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dcsil/DoseMate-backend/internal"
	"github.com/dcsil/DoseMate-backend/internal/storage"
)

// Policy constants for dose reconciliation and state transitions.
const (
	// SlotTolerance is how far a stored scheduled time may drift from the
	// nominal slot time and still count as the same slot. Snoozing moves
	// scheduled_time forward, so slot identity has to be by closeness, not
	// equality.
	SlotTolerance = 120 * time.Minute

	// SnoozeIncrement is how far an explicit snooze pushes a dose.
	SnoozeIncrement = 15 * time.Minute

	// LateThreshold is the lateness beyond which marking a dose taken also
	// flags it as snoozed, even without an explicit snooze.
	LateThreshold = 20 * time.Minute
)

// Reminder is one dose slot of one schedule for the target day, bound to a
// persisted dose instance.
type Reminder struct {
	ID           string              `json:"id"`
	ScheduleID   string              `json:"schedule_id"`
	Name         string              `json:"name"`
	Strength     string              `json:"strength"`
	Quantity     string              `json:"quantity"`
	Time         string              `json:"time"`
	Status       internal.DoseStatus `json:"status"`
	Overdue      bool                `json:"overdue"`
	Instructions string              `json:"instructions"`
}

// TodaysReminders materializes one reminder per (active schedule x time-of-day
// slot) for the day containing now, lazily creating the backing dose instance
// when the slot has none yet. now must already be in the deployment's
// reference timezone; all stored times are naive in that zone.
//
// TODO: start_date/end_date are not checked, so an expired schedule keeps
// generating instances. Kept as-is pending a product decision.
func TodaysReminders(
	ctx context.Context,
	scheds storage.ScheduleRepository,
	doses storage.DoseRepository,
	meds storage.MedicationRepository,
	logger internal.Logger,
	user *internal.User,
	now time.Time,
) ([]Reminder, error) {
	schedules, err := scheds.ListSchedules(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	weekday := now.Weekday().String()
	reminders := []Reminder{}

	for i := range schedules {
		sched := &schedules[i]
		if !sched.FiresOn(weekday) {
			continue
		}
		if sched.AsNeeded {
			continue
		}

		med, err := meds.GetMedication(ctx, sched.MedicationID)
		if err != nil {
			// Data-integrity fault: fail this schedule's reminders, not
			// the whole listing.
			logger.Errorf("schedule %s references missing medication %s: %v", sched.ID, sched.MedicationID, err)
			continue
		}

		for _, slot := range sched.TimeOfDay {
			hour, minute, err := internal.ParseTimeOfDay(slot)
			if err != nil {
				logger.Warnf("schedule %s has unparseable time %q, skipping slot: %v", sched.ID, slot, err)
				continue
			}

			scheduledDT := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

			inst, err := doses.FindOrCreateDoseInstance(ctx, &internal.DoseInstance{
				ID:            uuid.NewString(),
				ScheduleID:    sched.ID,
				UserID:        user.ID,
				ScheduledTime: scheduledDT,
				Status:        internal.DoseStatusPending,
				CreatedAt:     now,
			}, SlotTolerance)
			if err != nil {
				return nil, err
			}

			overdue := inst.Status == internal.DoseStatusPending && now.After(inst.ScheduledTime)

			reminders = append(reminders, Reminder{
				ID:           inst.ID,
				ScheduleID:   sched.ID,
				Name:         med.BrandName,
				Strength:     sched.Strength,
				Quantity:     sched.Quantity,
				Time:         slot,
				Status:       inst.Status,
				Overdue:      overdue,
				Instructions: sched.FoodInstructions,
			})
		}
	}

	return reminders, nil
}

// MarkTaken transitions a dose to taken at now. A dose taken more than
// LateThreshold after its scheduled time is additionally flagged snoozed,
// the passive counterpart of an explicit snooze. Re-marking an already taken
// dose overwrites taken_time.
func MarkTaken(ctx context.Context, doses storage.DoseRepository, user *internal.User, doseID string, now time.Time) (*internal.DoseInstance, error) {
	inst, err := doses.GetDoseInstance(ctx, doseID, user.ID)
	if err != nil {
		return nil, err
	}

	inst.Status = internal.DoseStatusTaken
	taken := now
	inst.TakenTime = &taken
	if now.Sub(inst.ScheduledTime) > LateThreshold {
		inst.Snoozed = true
	}

	if err := doses.UpdateDoseInstance(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Snooze pushes a pending dose forward by SnoozeIncrement. The instance
// stays actionable and can still transition to taken afterwards.
func Snooze(ctx context.Context, doses storage.DoseRepository, user *internal.User, doseID string) (*internal.DoseInstance, error) {
	inst, err := doses.GetDoseInstance(ctx, doseID, user.ID)
	if err != nil {
		return nil, err
	}

	inst.ScheduledTime = inst.ScheduledTime.Add(SnoozeIncrement)
	inst.Status = internal.DoseStatusSnoozed
	inst.Snoozed = true

	if err := doses.UpdateDoseInstance(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// IsNotFound reports whether err is a missing schedule or dose lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, internal.ErrNotFound)
}
