package main

import (
	"log"
	"os"
	"time"

	"github.com/dcsil/DoseMate-backend/internal"
	"github.com/dcsil/DoseMate-backend/internal/api"
	"github.com/dcsil/DoseMate-backend/internal/auth"
	"github.com/dcsil/DoseMate-backend/internal/config"
	"github.com/dcsil/DoseMate-backend/internal/storage"
)

type appContext struct {
	logger internal.Logger
	repos  *storage.Repositories
	loc    *time.Location
}

func (a *appContext) Logger() internal.Logger                   { return a.logger }
func (a *appContext) Schedules() storage.ScheduleRepository     { return a.repos.Schedules }
func (a *appContext) Doses() storage.DoseRepository             { return a.repos.Doses }
func (a *appContext) Medications() storage.MedicationRepository { return a.repos.Medications }
func (a *appContext) Now() time.Time                            { return time.Now().In(a.loc) }

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatalf("invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	if cfg.DBType == "file" {
		seedDevData(cfg, logger)
	}

	repos, err := storage.NewRepositories(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}

	var provider auth.Provider
	if cfg.Env == "development" {
		provider = auth.NewLocalAuthProvider(repos.Users, logger)
	} else {
		provider = auth.NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	}

	app := &appContext{logger: logger, repos: repos, loc: loc}
	r := api.NewRouter(app, auth.AuthMiddleware(provider, cfg))

	logger.Infof("Server running on :%s (env=%s, storage=%s, tz=%s)", cfg.Port, cfg.Env, cfg.DBType, cfg.Timezone)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}

// seedDevData makes a fresh file-backed checkout usable: a data dir and a
// default user token for local API calls.
func seedDevData(cfg *config.Config, logger internal.Logger) {
	if _, err := os.Stat("data"); os.IsNotExist(err) {
		_ = os.Mkdir("data", 0755)
	}
	if _, err := os.Stat(cfg.FileUsers); os.IsNotExist(err) {
		err := os.WriteFile(cfg.FileUsers, []byte(`[{"id":"u1","token":"MOCK-TOKEN","name":"Demo User","email":"demo@example.com"}]`), 0644)
		if err != nil {
			logger.Warnf("failed to seed users file: %v", err)
		}
	}
}
