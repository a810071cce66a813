package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/medibridge/patient-portal/internal/booking"
	"github.com/medibridge/patient-portal/internal/chat"
	"github.com/medibridge/patient-portal/internal/pharmacy"
	"github.com/medibridge/patient-portal/internal/session"
)

func render(fn func(*Renderer)) string {
	var buf bytes.Buffer
	fn(New(&buf, "₹"))
	return buf.String()
}

func TestDoctors(t *testing.T) {
	out := render(func(r *Renderer) {
		r.Doctors([]booking.Doctor{
			{ID: "doc-1", Name: "Dr. Adams", Speciality: "Dermatology", Fees: 500},
			{ID: "doc-2", Name: "Dr. Brook", Speciality: "General physician", Fees: 300},
		})
	})
	assert.Contains(t, out, "Dr. Adams")
	assert.Contains(t, out, "Dermatology")
	assert.Contains(t, out, "₹500.00")
	assert.True(t, strings.Index(out, "Dr. Adams") < strings.Index(out, "Dr. Brook"))
}

func TestDoctorsEmpty(t *testing.T) {
	out := render(func(r *Renderer) { r.Doctors(nil) })
	assert.Contains(t, out, "No doctors")
}

func TestSlotDaysNumbersAcrossDays(t *testing.T) {
	d1 := time.Date(2025, 6, 5, 10, 0, 0, 0, time.Local)
	d2 := time.Date(2025, 6, 6, 10, 0, 0, 0, time.Local)
	out := render(func(r *Renderer) {
		r.SlotDays([]booking.Day{
			{Date: d1, Slots: []booking.Slot{{At: d1, Label: "10:00 AM"}, {At: d1.Add(30 * time.Minute), Label: "10:30 AM"}}},
			{Date: d2, Slots: []booking.Slot{{At: d2, Label: "10:00 AM"}}},
		})
	})
	assert.Contains(t, out, "[1] 10:00 AM")
	assert.Contains(t, out, "[2] 10:30 AM")
	assert.Contains(t, out, "[3] 10:00 AM")
	assert.Contains(t, out, "Thu Jun 5")
}

func TestAppointmentsStatus(t *testing.T) {
	today := time.Date(2025, 6, 5, 12, 0, 0, 0, time.Local)
	out := render(func(r *Renderer) {
		r.Appointments([]booking.Appointment{
			{DocData: booking.Doctor{Name: "Dr. Adams"}, SlotDateKey: "6-6-2025", SlotTime: "10:00 AM", Amount: 500},
			{DocData: booking.Doctor{Name: "Dr. Brook"}, SlotDateKey: "1-6-2025", SlotTime: "10:00 AM", Cancelled: true},
		}, today)
	})
	assert.Contains(t, out, "Upcoming")
	assert.Contains(t, out, "Cancelled")
}

func TestThreadMarksOptimistic(t *testing.T) {
	conv := &chat.Conversation{
		ConversationSummary: chat.ConversationSummary{
			AppointmentID: "appt-1",
			Counterparty:  session.Profile{Name: "Dr. Adams"},
		},
		Messages: []chat.Message{
			{ID: "m1", SenderRole: chat.RoleProvider, Sender: session.Profile{Name: "Dr. Adams"}, Body: "Hi"},
			{ClientID: "c1", SenderRole: chat.RolePatient, Body: "Hello", SentAt: time.Now()},
		},
	}
	out := render(func(r *Renderer) { r.Thread(conv, chat.RolePatient) })
	assert.Contains(t, out, "Dr. Adams: Hi")
	assert.Contains(t, out, "You: Hello (sending)")
}

func TestConversationsPreviewTruncated(t *testing.T) {
	long := strings.Repeat("word ", 20)
	out := render(func(r *Renderer) {
		r.Conversations([]chat.ConversationSummary{
			{AppointmentID: "appt-1", Counterparty: session.Profile{Name: "Dr. Adams"}, LastMessage: long, LastMessageTime: time.Now()},
		})
	})
	assert.Contains(t, out, "…")
	assert.Contains(t, out, "just now")
}

func TestCartTotals(t *testing.T) {
	out := render(func(r *Renderer) {
		r.Cart([]pharmacy.Line{
			{Medicine: pharmacy.Medicine{Name: "Paracetamol", Price: 2.5}, Quantity: 4},
		}, 10)
	})
	assert.Contains(t, out, "Paracetamol")
	assert.Contains(t, out, "₹10.00")
}

func TestProfileSkipsBlankFields(t *testing.T) {
	out := render(func(r *Renderer) {
		r.Profile(session.Profile{Name: "Pat", Email: "pat@example.com"})
	})
	assert.Contains(t, out, "Pat")
	assert.NotContains(t, out, "Phone")
	assert.NotContains(t, out, "Gender")
}
