package storage

import (
	"context"
	"time"

	"github.com/dcsil/DoseMate-backend/internal"
)

type ScheduleRepository interface {
	ListSchedules(ctx context.Context, userID string) ([]internal.Schedule, error)
	GetSchedule(ctx context.Context, scheduleID, userID string) (*internal.Schedule, error)
	SaveSchedule(ctx context.Context, sched *internal.Schedule) error
}

type DoseRepository interface {
	// ListDoseInstances returns all of a user's dose instances with a
	// scheduled time in [from, to], ascending by scheduled time.
	ListDoseInstances(ctx context.Context, userID string, from, to time.Time) ([]internal.DoseInstance, error)

	// ListRecentTaken returns up to limit taken instances (taken_time set)
	// for a schedule, newest scheduled time first.
	ListRecentTaken(ctx context.Context, scheduleID string, limit int) ([]internal.DoseInstance, error)

	GetDoseInstance(ctx context.Context, doseID, userID string) (*internal.DoseInstance, error)

	// FindOrCreateDoseInstance returns the instance for inst's schedule
	// whose scheduled time lies within the window around
	// inst.ScheduledTime, preferring the latest one; if none exists, inst
	// is persisted and returned. The check-then-insert is atomic so
	// concurrent calls for the same slot never create duplicates.
	FindOrCreateDoseInstance(ctx context.Context, inst *internal.DoseInstance, window time.Duration) (*internal.DoseInstance, error)

	UpdateDoseInstance(ctx context.Context, inst *internal.DoseInstance) error
}

type MedicationRepository interface {
	GetMedication(ctx context.Context, medicationID string) (*internal.Medication, error)
}

type UserRepository interface {
	GetUserByToken(ctx context.Context, token string) (*internal.User, error)
}
