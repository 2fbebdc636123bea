package api

import (
	"time"

	"github.com/dcsil/DoseMate-backend/internal"
	"github.com/dcsil/DoseMate-backend/internal/storage"
)

// App is the handler-facing view of the wired application: repositories,
// logging, and the clock. Now returns the current time already converted to
// the deployment's reference timezone; everything downstream treats it as
// naive local time.
type App interface {
	Logger() internal.Logger
	Schedules() storage.ScheduleRepository
	Doses() storage.DoseRepository
	Medications() storage.MedicationRepository
	Now() time.Time
}
