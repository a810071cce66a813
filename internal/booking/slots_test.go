package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotDateKeyNoZeroPadding(t *testing.T) {
	d := time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "5-6-2025", SlotDateKey(d))

	d = time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "25-12-2025", SlotDateKey(d))
}

func TestSlotClockLabels(t *testing.T) {
	assert.Equal(t, "10:00 AM", SlotClock(time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "8:30 PM", SlotClock(time.Date(2025, 6, 5, 20, 30, 0, 0, time.UTC)))
	assert.Equal(t, "12:00 PM", SlotClock(time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)))
}

func TestParseSlotDate(t *testing.T) {
	d, err := ParseSlotDate("5-6-2025")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.June, d.Month())
	assert.Equal(t, 5, d.Day())

	for _, bad := range []string{"", "5-6", "x-6-2025", "5-13-2025", "32-1-2025"} {
		_, err := ParseSlotDate(bad)
		assert.Error(t, err, bad)
	}
}

func labels(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Label
	}
	return out
}

func TestGenerateSlotsExcludesBooked(t *testing.T) {
	// Early morning on 5-6-2025: the whole first day window is open except
	// the booked 10:00 AM.
	now := time.Date(2025, time.June, 5, 8, 0, 0, 0, time.UTC)
	booked := map[string][]string{"5-6-2025": {"10:00 AM"}}

	days := GenerateSlots(now, booked)
	require.NotEmpty(t, days)
	first := days[0]
	got := labels(first.Slots)

	assert.NotContains(t, got, "10:00 AM")
	assert.Contains(t, got, "10:30 AM")
	assert.Contains(t, got, "8:30 PM")
	assert.NotContains(t, got, "9:00 PM", "window closes before 9 PM")
	// 22 half-hour increments between 10:00 and 21:00, minus the booked one.
	assert.Len(t, got, 21)
}

func TestGenerateSlotsSameDayCutoff(t *testing.T) {
	// 14:10 local: first slot is the next half hour after now.
	now := time.Date(2025, time.June, 5, 14, 10, 0, 0, time.UTC)
	days := GenerateSlots(now, nil)
	require.NotEmpty(t, days)
	assert.Equal(t, "2:30 PM", days[0].Slots[0].Label)

	// Exactly on a boundary: strictly after, so the next one.
	now = time.Date(2025, time.June, 5, 14, 30, 0, 0, time.UTC)
	days = GenerateSlots(now, nil)
	assert.Equal(t, "3:00 PM", days[0].Slots[0].Label)

	// Before opening: clamped to 10:00 AM.
	now = time.Date(2025, time.June, 5, 7, 45, 0, 0, time.UTC)
	days = GenerateSlots(now, nil)
	assert.Equal(t, "10:00 AM", days[0].Slots[0].Label)
}

func TestGenerateSlotsSevenDayHorizon(t *testing.T) {
	now := time.Date(2025, time.June, 5, 8, 0, 0, 0, time.UTC)
	days := GenerateSlots(now, nil)
	require.Len(t, days, 7)
	assert.Equal(t, 5, days[0].Date.Day())
	assert.Equal(t, 11, days[6].Date.Day())
	for _, day := range days[1:] {
		assert.Equal(t, "10:00 AM", day.Slots[0].Label, "later days open at 10:00 AM")
		assert.Len(t, day.Slots, 22)
	}
}

func TestGenerateSlotsOmitsFullyBookedDay(t *testing.T) {
	now := time.Date(2025, time.June, 5, 8, 0, 0, 0, time.UTC)
	var all []string
	for at := time.Date(2025, 6, 6, 10, 0, 0, 0, time.UTC); at.Hour() < 21; at = at.Add(30 * time.Minute) {
		all = append(all, SlotClock(at))
	}
	days := GenerateSlots(now, map[string][]string{"6-6-2025": all})
	require.Len(t, days, 6)
	for _, day := range days {
		assert.NotEqual(t, 6, day.Date.Day(), "fully booked day is omitted")
	}
}

func TestGenerateSlotsLateEveningSameDayEmpty(t *testing.T) {
	// After the last slot of the day: the first group is tomorrow.
	now := time.Date(2025, time.June, 5, 20, 45, 0, 0, time.UTC)
	days := GenerateSlots(now, nil)
	require.NotEmpty(t, days)
	assert.Equal(t, 6, days[0].Date.Day())
}

func TestAppointmentStatus(t *testing.T) {
	today := time.Date(2025, time.June, 5, 12, 0, 0, 0, time.Local)
	base := Appointment{SlotDateKey: "6-6-2025", SlotTime: "10:00 AM"}

	cancelled := base
	cancelled.Cancelled = true
	assert.Equal(t, StatusCancelled, cancelled.Status(today))

	completed := base
	completed.IsCompleted = true
	assert.Equal(t, StatusCompleted, completed.Status(today))

	paid := base
	paid.Payment = true
	assert.Equal(t, StatusPaid, paid.Status(today))

	assert.Equal(t, StatusUpcoming, base.Status(today))

	past := base
	past.SlotDateKey = "4-6-2025"
	assert.Equal(t, StatusExpired, past.Status(today))

	sameDay := base
	sameDay.SlotDateKey = "5-6-2025"
	assert.Equal(t, StatusUpcoming, sameDay.Status(today), "today counts as upcoming")
}

func TestBookedAt(t *testing.T) {
	at := time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)
	a := Appointment{Date: at.UnixMilli()}
	assert.True(t, a.BookedAt().Equal(at))
}
