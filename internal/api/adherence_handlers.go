package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dcsil/DoseMate-backend/internal"
	"github.com/dcsil/DoseMate-backend/internal/service"
)

// windowBounds returns the inclusive naive-local query range for the `days`
// consecutive days ending on the day containing now.
func windowBounds(now time.Time, days int) (from, to time.Time) {
	from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24*time.Hour - time.Nanosecond)
	return from, to
}

// medNameIndex maps the user's schedule IDs to medication display names.
// A schedule with a missing medication gets logged and omitted; the rest of
// the aggregation proceeds.
func medNameIndex(ctx context.Context, app App, userID string) (map[string]string, []internal.Schedule, error) {
	schedules, err := app.Schedules().ListSchedules(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	names := make(map[string]string, len(schedules))
	for i := range schedules {
		med, err := app.Medications().GetMedication(ctx, schedules[i].MedicationID)
		if err != nil {
			app.Logger().Errorf("schedule %s references missing medication %s: %v", schedules[i].ID, schedules[i].MedicationID, err)
			continue
		}
		names[schedules[i].ID] = med.BrandName
	}
	return names, schedules, nil
}

func GetDailyAdherence(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		now := app.Now()

		from, to := windowBounds(now, 1)
		instances, err := app.Doses().ListDoseInstances(c.Request.Context(), user.ID, from, to)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch dose logs")
			return
		}

		stats := service.DailyStats(instances, now)
		HandleSuccess(c, app.Logger(), stats, map[string]any{"date": now.Format("2006-01-02")})
	}
}

func GetWeeklyAdherence(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		now := app.Now()

		from, to := windowBounds(now, 7)
		instances, err := app.Doses().ListDoseInstances(c.Request.Context(), user.ID, from, to)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch dose logs")
			return
		}

		HandleSuccess(c, app.Logger(), service.ComputeWeeklyStats(instances, now), nil)
	}
}

func GetMonthlyAdherence(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		now := app.Now()

		from, to := windowBounds(now, 30)
		instances, err := app.Doses().ListDoseInstances(c.Request.Context(), user.ID, from, to)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch dose logs")
			return
		}

		HandleSuccess(c, app.Logger(), service.ComputeMonthlyStats(instances, now), nil)
	}
}

// recentHistoryDays bounds how far back recent activity looks.
const recentHistoryDays = 90

func GetRecentActivity(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		now := app.Now()

		limit := 10
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 100 {
				HandleError(c, app.Logger(), errOutOfRange, 400, "Invalid limit")
				return
			}
			limit = n
		}

		from, to := windowBounds(now, recentHistoryDays)
		instances, err := app.Doses().ListDoseInstances(c.Request.Context(), user.ID, from, to)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch dose logs")
			return
		}

		names, _, err := medNameIndex(c.Request.Context(), app, user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch schedules")
			return
		}

		recent := service.RecentActivity(instances, names, now, limit)
		HandleSuccess(c, app.Logger(), recent, map[string]any{"limit": limit})
	}
}
