package api

import "github.com/gin-gonic/gin"

// NewRouter wires every route of the service. The auth middleware is passed
// in so tests can swap providers.
func NewRouter(app App, authMW gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(authMW)

	reminders := r.Group("/reminders")
	{
		reminders.GET("/today", GetTodaysReminders(app))
		reminders.POST("/:id/mark-taken", MarkTaken(app))
		reminders.POST("/:id/snooze", SnoozeDose(app))
	}

	adherence := r.Group("/adherence")
	{
		adherence.GET("/daily", GetDailyAdherence(app))
		adherence.GET("/weekly", GetWeeklyAdherence(app))
		adherence.GET("/monthly", GetMonthlyAdherence(app))
		adherence.GET("/recent", GetRecentActivity(app))
	}

	adaptations := r.Group("/adaptations")
	{
		adaptations.GET("/suggestions", GetAdaptationSuggestions(app))
		adaptations.POST("/accept", AcceptAdaptation(app))
		adaptations.POST("/reject", RejectAdaptation(app))
	}

	reports := r.Group("/reports")
	{
		reports.GET("/weekly", GetWeeklyReport(app))
		reports.GET("/monthly", GetMonthlyReport(app))
	}

	return r
}
