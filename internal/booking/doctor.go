package booking

import (
	"time"

	"github.com/medibridge/patient-portal/internal/session"
)

// Doctor is a bookable provider as served by the doctor API. SlotsBooked
// maps a slot date ("D-M-YYYY") to the clock labels already taken on it.
type Doctor struct {
	ID          string              `json:"_id"`
	Name        string              `json:"name"`
	Image       string              `json:"image,omitempty"`
	Speciality  string              `json:"speciality"`
	Degree      string              `json:"degree,omitempty"`
	Experience  string              `json:"experience,omitempty"`
	About       string              `json:"about,omitempty"`
	Fees        float64             `json:"fees"`
	Available   bool                `json:"available"`
	Address     session.Address     `json:"address"`
	SlotsBooked map[string][]string `json:"slots_booked"`
}

// Appointment is one booked consultation, carrying a snapshot of the doctor
// it was booked with. Date is the booking instant in epoch milliseconds.
type Appointment struct {
	ID          string  `json:"_id"`
	DocData     Doctor  `json:"docData"`
	SlotDateKey string  `json:"slotDate"`
	SlotTime    string  `json:"slotTime"`
	Amount      float64 `json:"amount"`
	Cancelled   bool    `json:"cancelled"`
	IsCompleted bool    `json:"isCompleted"`
	Payment     bool    `json:"payment"`
	Date        int64   `json:"date"`
}

// BookedAt converts the epoch-millisecond booking instant.
func (a Appointment) BookedAt() time.Time {
	return time.UnixMilli(a.Date)
}

// Appointment display statuses, in precedence order.
const (
	StatusCancelled = "Cancelled"
	StatusCompleted = "Completed"
	StatusPaid      = "Paid"
	StatusUpcoming  = "Upcoming"
	StatusExpired   = "Expired"
)

// Status derives the display status relative to today.
func (a Appointment) Status(today time.Time) string {
	switch {
	case a.Cancelled:
		return StatusCancelled
	case a.IsCompleted:
		return StatusCompleted
	case a.Payment:
		return StatusPaid
	case a.Upcoming(today):
		return StatusUpcoming
	default:
		return StatusExpired
	}
}

// Upcoming reports whether the appointment's slot date is today or later.
func (a Appointment) Upcoming(today time.Time) bool {
	d, err := ParseSlotDate(a.SlotDateKey)
	if err != nil {
		return false
	}
	y, m, day := today.Date()
	midnight := time.Date(y, m, day, 0, 0, 0, 0, today.Location())
	return !d.Before(midnight)
}
