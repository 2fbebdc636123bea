package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/dcsil/DoseMate-backend/internal"
	"github.com/dcsil/DoseMate-backend/internal/service"
)

var errOutOfRange = errors.New("value out of range")

func GetAdaptationSuggestions(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		suggestions, err := service.SuggestAdaptations(
			c.Request.Context(), app.Schedules(), app.Doses(), app.Medications(),
			app.Logger(), user)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to analyze dose history")
			return
		}

		HandleSuccess(c, app.Logger(), suggestions, map[string]any{"count": len(suggestions)})
	}
}

func AcceptAdaptation(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req service.AcceptAdaptationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateAcceptAdaptationRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		sched, err := service.AcceptAdaptation(c.Request.Context(), app.Schedules(), user, &req)
		if err != nil {
			switch {
			case errors.Is(err, internal.ErrTimeNotFound):
				HandleError(c, app.Logger(), err, 400, "Current time not found in schedule")
			case service.IsNotFound(err):
				HandleError(c, app.Logger(), err, 404, "Schedule not found")
			default:
				HandleError(c, app.Logger(), err, 500, "Failed to apply adaptation")
			}
			return
		}

		HandleSuccess(c, app.Logger(), sched, nil)
	}
}

type rejectAdaptationRequest struct {
	ScheduleID string `json:"schedule_id" binding:"required"`
}

func RejectAdaptation(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*internal.User)

		var req rejectAdaptationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON: schedule_id required")
			return
		}

		sched, err := service.RejectAdaptation(c.Request.Context(), app.Schedules(), user, req.ScheduleID)
		if err != nil {
			HandleError(c, app.Logger(), err, statusForLookup(err), "Failed to reject adaptation")
			return
		}

		HandleSuccess(c, app.Logger(), sched, nil)
	}
}
