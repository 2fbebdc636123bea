package storage

import (
	"github.com/dcsil/DoseMate-backend/internal"
	"github.com/dcsil/DoseMate-backend/internal/config"
)

// Repositories bundles the store contracts the services depend on. Both
// backends implement all of them on a single struct.
type Repositories struct {
	Schedules   ScheduleRepository
	Doses       DoseRepository
	Medications MedicationRepository
	Users       UserRepository
}

func NewRepositories(cfg *config.Config, logger internal.Logger) (*Repositories, error) {
	if cfg.DBType == "postgres" {
		s, err := NewPostgresStorage(cfg.DBDSN, logger)
		if err != nil {
			return nil, err
		}
		return &Repositories{Schedules: s, Doses: s, Medications: s, Users: s}, nil
	}
	s, err := NewFileStorage(cfg.FileUsers, cfg.FileMeds, cfg.FileSchedules, cfg.FileDoses, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Schedules: s, Doses: s, Medications: s, Users: s}, nil
}
