package service

import (
	"math"
	"sort"
	"time"

	"github.com/dcsil/DoseMate-backend/internal"
)

// WindowStats is the shared adherence primitive: taken vs. total over a
// window. Percentage is always an integer in [0, 100] and 0 when the window
// holds no doses.
type WindowStats struct {
	Taken      int `json:"taken"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type DayStats struct {
	Date string `json:"date"`
	Day  string `json:"day"`
	WindowStats
}

type WeeklyStats struct {
	Days []DayStats `json:"days"`
	WindowStats
	PerfectDays   int `json:"perfect_days"`
	CurrentStreak int `json:"current_streak"`
}

type WeekBucket struct {
	Week      int    `json:"week"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	WindowStats
}

type MonthlyStats struct {
	Days  []DayStats   `json:"days"`
	Weeks []WeekBucket `json:"weeks"`
	WindowStats
	PerfectDays   int `json:"perfect_days"`
	CurrentStreak int `json:"current_streak"`
}

type RecentDose struct {
	ID         string    `json:"id"`
	ScheduleID string    `json:"schedule_id"`
	Name       string    `json:"name,omitempty"`
	TakenTime  time.Time `json:"taken_time"`
	Time       string    `json:"time"`
	Label      string    `json:"label"`
}

const dateLayout = "2006-01-02"

func percentage(taken, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(taken) / float64(total) * 100))
}

func dayBounds(day time.Time) (start, end time.Time) {
	start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end = start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}

// windowStats counts taken vs. total among instances scheduled in
// [start, end], inclusive.
func windowStats(instances []internal.DoseInstance, start, end time.Time) WindowStats {
	var stats WindowStats
	for i := range instances {
		t := instances[i].ScheduledTime
		if t.Before(start) || t.After(end) {
			continue
		}
		stats.Total++
		if instances[i].Status == internal.DoseStatusTaken {
			stats.Taken++
		}
	}
	stats.Percentage = percentage(stats.Taken, stats.Total)
	return stats
}

// DailyStats scores a single calendar day.
func DailyStats(instances []internal.DoseInstance, day time.Time) WindowStats {
	start, end := dayBounds(day)
	return windowStats(instances, start, end)
}

func dailyBreakdown(instances []internal.DoseInstance, today time.Time, days int) []DayStats {
	out := make([]DayStats, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		start, end := dayBounds(day)
		out = append(out, DayStats{
			Date:        day.Format(dateLayout),
			Day:         day.Weekday().String(),
			WindowStats: windowStats(instances, start, end),
		})
	}
	return out
}

func perfectDays(days []DayStats) int {
	n := 0
	for _, d := range days {
		if d.Total > 0 && d.Percentage == 100 {
			n++
		}
	}
	return n
}

// currentStreak counts consecutive fully-adherent days from today backward,
// stopping at the first non-100% or empty day.
func currentStreak(days []DayStats) int {
	streak := 0
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].Percentage == 100 && days[i].Total > 0 {
			streak++
		} else {
			break
		}
	}
	return streak
}

// ComputeWeeklyStats scores the 7 consecutive days ending today.
func ComputeWeeklyStats(instances []internal.DoseInstance, today time.Time) WeeklyStats {
	days := dailyBreakdown(instances, today, 7)
	var taken, total int
	for _, d := range days {
		taken += d.Taken
		total += d.Total
	}
	return WeeklyStats{
		Days:          days,
		WindowStats:   WindowStats{Taken: taken, Total: total, Percentage: percentage(taken, total)},
		PerfectDays:   perfectDays(days),
		CurrentStreak: currentStreak(days),
	}
}

// ComputeMonthlyStats scores the 30 consecutive days ending today, with the
// span partitioned into four buckets for the weekly-breakdown view (three of
// 7 days, the last one taking the remaining 9).
func ComputeMonthlyStats(instances []internal.DoseInstance, today time.Time) MonthlyStats {
	days := dailyBreakdown(instances, today, 30)
	var taken, total int
	for _, d := range days {
		taken += d.Taken
		total += d.Total
	}

	weeks := make([]WeekBucket, 0, 4)
	for w := 0; w < 4; w++ {
		lo := w * 7
		hi := lo + 7
		if w == 3 {
			hi = len(days)
		}
		bucket := days[lo:hi]
		var wTaken, wTotal int
		for _, d := range bucket {
			wTaken += d.Taken
			wTotal += d.Total
		}
		weeks = append(weeks, WeekBucket{
			Week:        w + 1,
			StartDate:   bucket[0].Date,
			EndDate:     bucket[len(bucket)-1].Date,
			WindowStats: WindowStats{Taken: wTaken, Total: wTotal, Percentage: percentage(wTaken, wTotal)},
		})
	}

	return MonthlyStats{
		Days:          days,
		Weeks:         weeks,
		WindowStats:   WindowStats{Taken: taken, Total: total, Percentage: percentage(taken, total)},
		PerfectDays:   perfectDays(days),
		CurrentStreak: currentStreak(days),
	}
}

// RecentActivity returns the limit most recently taken doses, newest first,
// labeled relative to today. names maps schedule IDs to medication display
// names and may be nil.
func RecentActivity(instances []internal.DoseInstance, names map[string]string, today time.Time, limit int) []RecentDose {
	var taken []internal.DoseInstance
	for i := range instances {
		if instances[i].Status == internal.DoseStatusTaken && instances[i].TakenTime != nil {
			taken = append(taken, instances[i])
		}
	}
	sort.Slice(taken, func(i, j int) bool {
		return taken[i].TakenTime.After(*taken[j].TakenTime)
	})
	if limit > 0 && len(taken) > limit {
		taken = taken[:limit]
	}

	out := make([]RecentDose, 0, len(taken))
	for i := range taken {
		tt := *taken[i].TakenTime
		out = append(out, RecentDose{
			ID:         taken[i].ID,
			ScheduleID: taken[i].ScheduleID,
			Name:       names[taken[i].ScheduleID],
			TakenTime:  tt,
			Time:       internal.FormatTimeOfDay(tt.Hour(), tt.Minute()),
			Label:      relativeDayLabel(tt, today),
		})
	}
	return out
}

// relativeDayLabel compares calendar dates only.
func relativeDayLabel(t, today time.Time) string {
	ty, tm, td := t.Date()
	y, m, d := today.Date()
	if ty == y && tm == m && td == d {
		return "Today"
	}
	yesterday := today.AddDate(0, 0, -1)
	y, m, d = yesterday.Date()
	if ty == y && tm == m && td == d {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}
