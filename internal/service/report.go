package service

import (
	"time"

	"github.com/dcsil/DoseMate-backend/internal"
)

// AdherenceReport is the document consumed by report rendering (mobile UI,
// provider exports). Formatting is downstream's concern; this is the data.
type AdherenceReport struct {
	Title         string             `json:"title"`
	PatientName   string             `json:"patient_name"`
	PatientEmail  string             `json:"patient_email,omitempty"`
	PeriodStart   string             `json:"period_start"`
	PeriodEnd     string             `json:"period_end"`
	GeneratedAt   time.Time          `json:"generated_at"`
	Summary       WindowStats        `json:"summary"`
	DosesMissed   int                `json:"doses_missed"`
	CurrentStreak int                `json:"current_streak"`
	PerfectDays   int                `json:"perfect_days"`
	Days          []DayStats         `json:"days"`
	Weeks         []WeekBucket       `json:"weeks,omitempty"`
	Medications   []ReportMedication `json:"medications"`
	MissedDoses   []MissedDose       `json:"missed_doses,omitempty"`
}

type ReportMedication struct {
	Name      string   `json:"name"`
	Strength  string   `json:"strength,omitempty"`
	Frequency string   `json:"frequency,omitempty"`
	Times     []string `json:"times,omitempty"`
}

type MissedDose struct {
	Date       string `json:"date"`
	Medication string `json:"medication"`
	Strength   string `json:"strength,omitempty"`
	Time       string `json:"time"`
}

// Caps on missed-dose listings, matching what the rendered reports show.
const (
	WeeklyMissedCap  = 20
	MonthlyMissedCap = 50
)

// BuildAdherenceReport assembles the weekly (days=7) or monthly (days=30)
// adherence document from an already-fetched instance list. medNames maps
// schedule IDs to medication display names and may be nil.
func BuildAdherenceReport(
	user *internal.User,
	schedules []internal.Schedule,
	medNames map[string]string,
	instances []internal.DoseInstance,
	today time.Time,
	days int,
	missedCap int,
) AdherenceReport {
	title := "Weekly Medication Adherence Report"
	var dayStats []DayStats
	var weeks []WeekBucket
	var perfect, streak int
	var summary WindowStats

	if days >= 30 {
		title = "Monthly Medication Adherence Report"
		monthly := ComputeMonthlyStats(instances, today)
		dayStats, weeks = monthly.Days, monthly.Weeks
		summary = monthly.WindowStats
		perfect, streak = monthly.PerfectDays, monthly.CurrentStreak
	} else {
		weekly := ComputeWeeklyStats(instances, today)
		dayStats = weekly.Days
		summary = weekly.WindowStats
		perfect, streak = weekly.PerfectDays, weekly.CurrentStreak
	}

	strengths := make(map[string]string, len(schedules))
	meds := make([]ReportMedication, 0, len(schedules))
	for i := range schedules {
		sc := &schedules[i]
		strengths[sc.ID] = sc.Strength
		meds = append(meds, ReportMedication{
			Name:      medNames[sc.ID],
			Strength:  sc.Strength,
			Frequency: sc.Frequency,
			Times:     sc.TimeOfDay,
		})
	}

	var missed []MissedDose
	for i := range instances {
		d := &instances[i]
		if d.Status != internal.DoseStatusMissed {
			continue
		}
		missed = append(missed, MissedDose{
			Date:       d.ScheduledTime.Format(dateLayout),
			Medication: medNames[d.ScheduleID],
			Strength:   strengths[d.ScheduleID],
			Time:       internal.FormatTimeOfDay(d.ScheduledTime.Hour(), d.ScheduledTime.Minute()),
		})
		if missedCap > 0 && len(missed) == missedCap {
			break
		}
	}

	return AdherenceReport{
		Title:         title,
		PatientName:   user.Name,
		PatientEmail:  user.Email,
		PeriodStart:   dayStats[0].Date,
		PeriodEnd:     dayStats[len(dayStats)-1].Date,
		GeneratedAt:   today,
		Summary:       summary,
		DosesMissed:   summary.Total - summary.Taken,
		CurrentStreak: streak,
		PerfectDays:   perfect,
		Days:          dayStats,
		Weeks:         weeks,
		Medications:   meds,
		MissedDoses:   missed,
	}
}
