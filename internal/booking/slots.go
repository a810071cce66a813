package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clinic booking window: half-hour slots from 10:00 up to (not including)
// 21:00, offered for the next seven days.
const (
	openHour     = 10
	closeHour    = 21
	slotInterval = 30 * time.Minute
	horizonDays  = 7
)

// Slot is one bookable half-hour on a given date.
type Slot struct {
	At    time.Time
	Label string // clock label, e.g. "10:00 AM"
}

// Day groups the open slots of one calendar day.
type Day struct {
	Date  time.Time
	Slots []Slot
}

// SlotDateKey formats t as the booked-slots map key, "D-M-YYYY" without
// zero padding.
func SlotDateKey(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Day(), int(t.Month()), t.Year())
}

// SlotClock formats t as the slot time label, "3:04 PM" style.
func SlotClock(t time.Time) string {
	return t.Format("3:04 PM")
}

// ParseSlotDate parses a "D-M-YYYY" key back into a date (midnight, local).
func ParseSlotDate(key string) (time.Time, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("booking: malformed slot date %q", key)
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("booking: malformed slot date %q", key)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), nil
}

// GenerateSlots computes the bookable slots for the next seven days starting
// at now, excluding every date/time pair present in booked. The first day
// starts at the next half hour strictly after now, never earlier than 10:00;
// later days start at 10:00. Days with no open slots are omitted.
func GenerateSlots(now time.Time, booked map[string][]string) []Day {
	var days []Day
	for i := 0; i < horizonDays; i++ {
		date := now.AddDate(0, 0, i)
		start := time.Date(date.Year(), date.Month(), date.Day(), openHour, 0, 0, 0, now.Location())
		if i == 0 {
			if cutoff := nextHalfHour(now); cutoff.After(start) {
				start = cutoff
			}
		}
		end := time.Date(date.Year(), date.Month(), date.Day(), closeHour, 0, 0, 0, now.Location())

		var slots []Slot
		for at := start; at.Before(end); at = at.Add(slotInterval) {
			label := SlotClock(at)
			if slotTaken(booked[SlotDateKey(at)], label) {
				continue
			}
			slots = append(slots, Slot{At: at, Label: label})
		}
		if len(slots) > 0 {
			days = append(days, Day{Date: start, Slots: slots})
		}
	}
	return days
}

// nextHalfHour returns the first half-hour boundary strictly after t.
func nextHalfHour(t time.Time) time.Time {
	boundary := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	for !boundary.After(t) {
		boundary = boundary.Add(slotInterval)
	}
	return boundary
}

func slotTaken(taken []string, label string) bool {
	for _, s := range taken {
		if s == label {
			return true
		}
	}
	return false
}
