package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dcsil/DoseMate-backend/internal"
)

var testToday = time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC) // a Wednesday

func doseAt(day time.Time, hour, minute int, status internal.DoseStatus) internal.DoseInstance {
	scheduled := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	d := internal.DoseInstance{
		ID:            scheduled.Format("d-2006-01-02-15-04"),
		ScheduleID:    "s1",
		UserID:        "u1",
		ScheduledTime: scheduled,
		Status:        status,
	}
	if status == internal.DoseStatusTaken {
		taken := scheduled.Add(5 * time.Minute)
		d.TakenTime = &taken
	}
	return d
}

func TestDailyStats(t *testing.T) {
	instances := []internal.DoseInstance{
		doseAt(testToday, 9, 0, internal.DoseStatusTaken),
		doseAt(testToday, 21, 0, internal.DoseStatusPending),
		doseAt(testToday.AddDate(0, 0, -1), 9, 0, internal.DoseStatusTaken), // outside the day
	}
	stats := DailyStats(instances, testToday)
	assert.Equal(t, 1, stats.Taken)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 50, stats.Percentage)
}

func TestDailyStats_EmptyWindowIsZeroPercent(t *testing.T) {
	stats := DailyStats(nil, testToday)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.Percentage)
}

func TestComputeWeeklyStats(t *testing.T) {
	// 7 days, one dose each, 5 taken; today's dose not taken.
	var instances []internal.DoseInstance
	for i := 0; i < 7; i++ {
		status := internal.DoseStatusTaken
		if i == 0 || i == 3 { // today and three days ago missed
			status = internal.DoseStatusPending
		}
		instances = append(instances, doseAt(testToday.AddDate(0, 0, -i), 9, 0, status))
	}

	weekly := ComputeWeeklyStats(instances, testToday)
	assert.Equal(t, 5, weekly.Taken)
	assert.Equal(t, 7, weekly.Total)
	assert.Equal(t, 71, weekly.Percentage) // round(5/7*100)
	assert.Equal(t, 5, weekly.PerfectDays)
	assert.Equal(t, 0, weekly.CurrentStreak) // today's dose is not taken
	assert.Len(t, weekly.Days, 7)
	assert.Equal(t, testToday.Format("2006-01-02"), weekly.Days[6].Date)
}

func TestComputeWeeklyStats_StreakCountsBackFromToday(t *testing.T) {
	var instances []internal.DoseInstance
	for i := 0; i < 7; i++ {
		status := internal.DoseStatusTaken
		if i == 3 {
			status = internal.DoseStatusPending
		}
		instances = append(instances, doseAt(testToday.AddDate(0, 0, -i), 9, 0, status))
	}
	weekly := ComputeWeeklyStats(instances, testToday)
	assert.Equal(t, 3, weekly.CurrentStreak)
}

func TestComputeWeeklyStats_StreakSkipsEmptyDays(t *testing.T) {
	// Only today has a dose; an empty yesterday stops the streak at 1.
	instances := []internal.DoseInstance{doseAt(testToday, 9, 0, internal.DoseStatusTaken)}
	weekly := ComputeWeeklyStats(instances, testToday)
	assert.Equal(t, 1, weekly.CurrentStreak)
	assert.Equal(t, 1, weekly.PerfectDays)
}

func TestComputeMonthlyStats_Buckets(t *testing.T) {
	var instances []internal.DoseInstance
	for i := 0; i < 30; i++ {
		instances = append(instances, doseAt(testToday.AddDate(0, 0, -i), 9, 0, internal.DoseStatusTaken))
	}

	monthly := ComputeMonthlyStats(instances, testToday)
	assert.Len(t, monthly.Days, 30)
	assert.Len(t, monthly.Weeks, 4)
	assert.Equal(t, 30, monthly.Total)
	assert.Equal(t, 100, monthly.Percentage)
	assert.Equal(t, 30, monthly.CurrentStreak)

	// Partition covers all 30 days: 7+7+7+9.
	assert.Equal(t, 7, monthly.Weeks[0].Total)
	assert.Equal(t, 7, monthly.Weeks[1].Total)
	assert.Equal(t, 7, monthly.Weeks[2].Total)
	assert.Equal(t, 9, monthly.Weeks[3].Total)
	assert.Equal(t, monthly.Days[0].Date, monthly.Weeks[0].StartDate)
	assert.Equal(t, monthly.Days[29].Date, monthly.Weeks[3].EndDate)
}

func TestPercentageBounds(t *testing.T) {
	for taken := 0; taken <= 10; taken++ {
		p := percentage(taken, 10)
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
	}
	assert.Equal(t, 0, percentage(0, 0))
}

func TestRecentActivity(t *testing.T) {
	yesterday := testToday.AddDate(0, 0, -1)
	older := testToday.AddDate(0, 0, -5)

	instances := []internal.DoseInstance{
		doseAt(older, 9, 0, internal.DoseStatusTaken),
		doseAt(testToday, 9, 0, internal.DoseStatusTaken),
		doseAt(yesterday, 9, 0, internal.DoseStatusTaken),
		doseAt(testToday, 21, 0, internal.DoseStatusPending), // not taken, excluded
	}
	names := map[string]string{"s1": "Metformin"}

	recent := RecentActivity(instances, names, testToday, 2)
	assert.Len(t, recent, 2)
	assert.Equal(t, "Today", recent[0].Label)
	assert.Equal(t, "Yesterday", recent[1].Label)
	assert.Equal(t, "Metformin", recent[0].Name)
	assert.Equal(t, "9:05 AM", recent[0].Time)

	all := RecentActivity(instances, names, testToday, 10)
	assert.Len(t, all, 3)
	assert.Equal(t, older.Format("Jan 2, 2006"), all[2].Label)
}

func TestBuildAdherenceReport(t *testing.T) {
	user := &internal.User{ID: "u1", Name: "Test User", Email: "t@example.com"}
	schedules := []internal.Schedule{{
		ID: "s1", UserID: "u1", MedicationID: "m1",
		Frequency: "daily", TimeOfDay: []string{"9:00 AM"}, Strength: "500mg",
	}}
	names := map[string]string{"s1": "Metformin"}

	instances := []internal.DoseInstance{
		doseAt(testToday, 9, 0, internal.DoseStatusTaken),
		doseAt(testToday.AddDate(0, 0, -1), 9, 0, internal.DoseStatusMissed),
	}

	report := BuildAdherenceReport(user, schedules, names, instances, testToday, 7, WeeklyMissedCap)
	assert.Equal(t, "Weekly Medication Adherence Report", report.Title)
	assert.Equal(t, "Test User", report.PatientName)
	assert.Equal(t, 1, report.Summary.Taken)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.DosesMissed)
	assert.Len(t, report.Days, 7)
	assert.Empty(t, report.Weeks)
	assert.Len(t, report.MissedDoses, 1)
	assert.Equal(t, "Metformin", report.MissedDoses[0].Medication)
	assert.Equal(t, "9:00 AM", report.MissedDoses[0].Time)
	assert.Len(t, report.Medications, 1)

	monthly := BuildAdherenceReport(user, schedules, names, instances, testToday, 30, MonthlyMissedCap)
	assert.Equal(t, "Monthly Medication Adherence Report", monthly.Title)
	assert.Len(t, monthly.Days, 30)
	assert.Len(t, monthly.Weeks, 4)
}
