package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dcsil/DoseMate-backend/internal"
	"github.com/dcsil/DoseMate-backend/internal/service"
)

func reportHandler(app App, days, missedCap int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		now := app.Now()

		names, schedules, err := medNameIndex(c.Request.Context(), app, user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch schedules")
			return
		}

		from, to := windowBounds(now, days)
		instances, err := app.Doses().ListDoseInstances(c.Request.Context(), user.ID, from, to)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch dose logs")
			return
		}

		report := service.BuildAdherenceReport(user, schedules, names, instances, now, days, missedCap)
		HandleSuccess(c, app.Logger(), report, nil)
	}
}

// GetWeeklyReport returns the 7-day adherence report document.
func GetWeeklyReport(app App) gin.HandlerFunc {
	return reportHandler(app, 7, service.WeeklyMissedCap)
}

// GetMonthlyReport returns the 30-day adherence report document.
func GetMonthlyReport(app App) gin.HandlerFunc {
	return reportHandler(app, 30, service.MonthlyMissedCap)
}
