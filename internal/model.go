package internal

import "time"

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name"`
}

type Medication struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	BrandName   string    `json:"brand_name"`
	GenericName string    `json:"generic_name,omitempty"`
	Dosage      string    `json:"dosage,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DoseStatus is the lifecycle state of a single dose instance. "missed" is
// terminal and only ever written by an offline maintenance process; this
// service reads it but never sets it.
type DoseStatus string

const (
	DoseStatusPending DoseStatus = "pending"
	DoseStatusTaken   DoseStatus = "taken"
	DoseStatusMissed  DoseStatus = "missed"
	DoseStatusSnoozed DoseStatus = "snoozed"
)

// Schedule is a recurring prescription definition: which weekdays it fires
// on and at which times of day. Times are stored as display strings
// ("9:00 AM" or "21:00") and parsed on use.
type Schedule struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	MedicationID     string     `json:"medication_id"`
	Frequency        string     `json:"frequency"` // daily, weekly, as_needed
	Days             []string   `json:"days,omitempty"`
	TimeOfDay        []string   `json:"time_of_day,omitempty"`
	AsNeeded         bool       `json:"as_needed"`
	Strength         string     `json:"strength,omitempty"`
	Quantity         string     `json:"quantity,omitempty"`
	FoodInstructions string     `json:"food_instructions,omitempty"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`

	// Set only by the adaptation flow.
	PreferredTime   string `json:"preferred_time,omitempty"`
	AdaptedFromTime string `json:"adapted_from_time,omitempty"`
	AdaptationScore int    `json:"adaptation_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FiresOn reports whether the schedule is active on the given weekday name.
// A schedule with no days never fires.
func (s *Schedule) FiresOn(weekday string) bool {
	for _, d := range s.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// DoseInstance is one concrete occurrence of a scheduled dose. ScheduledTime
// is naive local time (the deployment's reference timezone, no offset kept).
// Snoozed stays true once the instance has been pushed forward, independently
// of Status; the two can legitimately disagree (e.g. taken late).
type DoseInstance struct {
	ID            string     `json:"id"`
	ScheduleID    string     `json:"schedule_id"`
	UserID        string     `json:"user_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	TakenTime     *time.Time `json:"taken_time,omitempty"`
	Status        DoseStatus `json:"status"`
	Snoozed       bool       `json:"snoozed"`
	CreatedAt     time.Time  `json:"created_at"`
}
