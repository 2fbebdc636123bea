package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/dcsil/DoseMate-backend/internal"
	"github.com/dcsil/DoseMate-backend/internal/storage"
)

var validate = validator.New()

// Detection policy constants.
const (
	// LookbackWindow is the number of taken doses sampled per slot.
	LookbackWindow = 5

	// SnoozeThresholdCount is the minimum snoozed doses in the sample
	// before the pattern counts as chronic.
	SnoozeThresholdCount = 3

	// MinConfidenceScore gates how sure the heuristic must be before a
	// suggestion surfaces.
	MinConfidenceScore = 60

	// slotMatchTolerance pairs a sampled dose with the slot under
	// evaluation; schedules can have several times per day.
	slotMatchTolerance = 5 // minutes
)

// AdaptationSuggestion proposes shifting one schedule slot to where the user
// actually takes the dose. Derived, never persisted.
type AdaptationSuggestion struct {
	ScheduleID       string `json:"schedule_id"`
	MedicationName   string `json:"medication_name"`
	CurrentTime      string `json:"current_time"`
	SuggestedTime    string `json:"suggested_time"`
	ConfidenceScore  int    `json:"confidence_score"`
	SnoozeCount      int    `json:"snooze_count"`
	TotalDoses       int    `json:"total_doses"`
	MedianActualTime string `json:"median_actual_time"`
}

// DetectSlotPattern decides whether the history shows the given slot being
// chronically taken late, and if so proposes the median actual time. history
// must be taken doses for the schedule, newest first. A nil result with nil
// error means "nothing to suggest", which is the common case, not a failure.
func DetectSlotPattern(sched *internal.Schedule, slot string, history []internal.DoseInstance) (*AdaptationSuggestion, error) {
	if sched.AsNeeded {
		return nil, nil
	}

	slotHour, slotMinute, err := internal.ParseTimeOfDay(slot)
	if err != nil {
		return nil, err
	}
	slotMinutes := slotHour*60 + slotMinute

	// Keep only doses whose scheduled time-of-day belongs to this slot.
	var sample []internal.DoseInstance
	for i := range history {
		d := &history[i]
		if d.Status != internal.DoseStatusTaken || d.TakenTime == nil {
			continue
		}
		diff := internal.MinutesOfDay(d.ScheduledTime) - slotMinutes
		if diff < 0 {
			diff = -diff
		}
		if diff <= slotMatchTolerance {
			sample = append(sample, *d)
			if len(sample) == LookbackWindow {
				break
			}
		}
	}
	if len(sample) < LookbackWindow {
		return nil, nil // insufficient data
	}

	snoozeCount := 0
	minutes := make([]int, 0, len(sample))
	for i := range sample {
		if sample[i].Snoozed {
			snoozeCount++
		}
		minutes = append(minutes, internal.MinutesOfDay(*sample[i].TakenTime))
	}
	if snoozeCount < SnoozeThresholdCount {
		return nil, nil
	}

	medianMinutes := median(minutes)
	if medianMinutes < float64(slotMinutes) {
		// Never propose moving a reminder earlier.
		return nil, nil
	}

	snoozeRate := float64(snoozeCount) / float64(len(sample)) * 100
	var confidence int
	if len(sample) > 1 {
		consistency := math.Max(0, 100-stdev(minutes))
		confidence = int(math.Round(0.6*snoozeRate + 0.4*consistency))
	} else {
		confidence = int(math.Round(snoozeRate))
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 100 {
		confidence = 100
	}
	if confidence < MinConfidenceScore {
		return nil, nil
	}

	medianTime := internal.FormatMinutesOfDay(int(math.Round(medianMinutes)))
	return &AdaptationSuggestion{
		ScheduleID:       sched.ID,
		CurrentTime:      slot,
		SuggestedTime:    medianTime,
		ConfidenceScore:  confidence,
		SnoozeCount:      snoozeCount,
		TotalDoses:       len(sample),
		MedianActualTime: medianTime,
	}, nil
}

// SuggestAdaptations runs the detector across every active, non-as-needed,
// non-already-adapted schedule of the user, once per configured slot.
func SuggestAdaptations(
	ctx context.Context,
	scheds storage.ScheduleRepository,
	doses storage.DoseRepository,
	meds storage.MedicationRepository,
	logger internal.Logger,
	user *internal.User,
) ([]AdaptationSuggestion, error) {
	schedules, err := scheds.ListSchedules(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	suggestions := []AdaptationSuggestion{}
	for i := range schedules {
		sched := &schedules[i]
		if sched.AsNeeded || sched.PreferredTime != "" {
			continue
		}

		history, err := doses.ListRecentTaken(ctx, sched.ID, 2*LookbackWindow)
		if err != nil {
			return nil, err
		}

		medName := ""
		if med, err := meds.GetMedication(ctx, sched.MedicationID); err == nil {
			medName = med.BrandName
		} else {
			logger.Errorf("schedule %s references missing medication %s: %v", sched.ID, sched.MedicationID, err)
		}

		for _, slot := range sched.TimeOfDay {
			sugg, err := DetectSlotPattern(sched, slot, history)
			if err != nil {
				logger.Warnf("schedule %s slot %q skipped: %v", sched.ID, slot, err)
				continue
			}
			if sugg == nil {
				continue
			}
			sugg.MedicationName = medName
			suggestions = append(suggestions, *sugg)
		}
	}
	return suggestions, nil
}

// AcceptAdaptationRequest commits a suggested slot change.
type AcceptAdaptationRequest struct {
	ScheduleID      string `json:"schedule_id" validate:"required"`
	CurrentTime     string `json:"current_time" validate:"required"`
	SuggestedTime   string `json:"suggested_time" validate:"required"`
	ConfidenceScore int    `json:"confidence_score" validate:"gte=0,lte=100"`
}

func ValidateAcceptAdaptationRequest(req *AcceptAdaptationRequest) error {
	return validate.Struct(req)
}

// AcceptAdaptation replaces the schedule's current_time slot with the
// suggested time and records the provenance of the change. Fails with
// ErrTimeNotFound when current_time is no longer in the slot list.
func AcceptAdaptation(ctx context.Context, scheds storage.ScheduleRepository, user *internal.User, req *AcceptAdaptationRequest) (*internal.Schedule, error) {
	sched, err := scheds.GetSchedule(ctx, req.ScheduleID, user.ID)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i, t := range sched.TimeOfDay {
		if t == req.CurrentTime {
			sched.TimeOfDay[i] = req.SuggestedTime
			replaced = true
			break
		}
	}
	if !replaced {
		return nil, fmt.Errorf("schedule %s has no slot %q: %w", sched.ID, req.CurrentTime, internal.ErrTimeNotFound)
	}

	sched.PreferredTime = req.SuggestedTime
	sched.AdaptedFromTime = req.CurrentTime
	sched.AdaptationScore = req.ConfidenceScore

	if err := scheds.SaveSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// RejectAdaptation zeroes the adaptation score; the slot list is untouched.
func RejectAdaptation(ctx context.Context, scheds storage.ScheduleRepository, user *internal.User, scheduleID string) (*internal.Schedule, error) {
	sched, err := scheds.GetSchedule(ctx, scheduleID, user.ID)
	if err != nil {
		return nil, err
	}
	sched.AdaptationScore = 0
	if err := scheds.SaveSchedule(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// median of ints; the mean of the two middle values for even-sized input.
func median(values []int) float64 {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

// stdev is the sample standard deviation; callers guard against n < 2.
func stdev(values []int) float64 {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / n
	var sq float64
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}
	return math.Sqrt(sq / (n - 1))
}
