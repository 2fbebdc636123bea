package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dcsil/DoseMate-backend/internal"
	"github.com/dcsil/DoseMate-backend/internal/service"
)

func GetTodaysReminders(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		reminders, err := service.TodaysReminders(
			c.Request.Context(), app.Schedules(), app.Doses(), app.Medications(),
			app.Logger(), user, app.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to build reminders")
			return
		}

		HandleSuccess(c, app.Logger(), reminders, nil)
	}
}

func MarkTaken(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		doseID := c.Param("id")

		inst, err := service.MarkTaken(c.Request.Context(), app.Doses(), user, doseID, app.Now())
		if err != nil {
			if service.IsNotFound(err) {
				HandleError(c, app.Logger(), err, 404, "Dose log not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to mark dose taken")
			return
		}

		HandleSuccess(c, app.Logger(), inst, map[string]any{"status": inst.Status})
	}
}

func SnoozeDose(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)
		doseID := c.Param("id")

		inst, err := service.Snooze(c.Request.Context(), app.Doses(), user, doseID)
		if err != nil {
			if service.IsNotFound(err) {
				HandleError(c, app.Logger(), err, 404, "Dose log not found")
				return
			}
			HandleError(c, app.Logger(), err, 500, "Failed to snooze dose")
			return
		}

		HandleSuccess(c, app.Logger(), inst, map[string]any{
			"status":             inst.Status,
			"new_scheduled_time": inst.ScheduledTime,
		})
	}
}
