// Package ui renders portal data for the terminal. Renderers are pure: they
// take a snapshot and write to the configured writer, holding no state of
// their own beyond the currency symbol.
package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/medibridge/patient-portal/internal/booking"
	"github.com/medibridge/patient-portal/internal/chat"
	"github.com/medibridge/patient-portal/internal/pharmacy"
	"github.com/medibridge/patient-portal/internal/session"
)

// Renderer writes portal views to a single writer, typically stdout.
type Renderer struct {
	w        io.Writer
	currency string
}

func New(w io.Writer, currency string) *Renderer {
	if currency == "" {
		currency = "$"
	}
	return &Renderer{w: w, currency: currency}
}

func (r *Renderer) tab() *tabwriter.Writer {
	return tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
}

func (r *Renderer) price(amount float64) string {
	return fmt.Sprintf("%s%.2f", r.currency, amount)
}

// Doctors lists available doctors with their index for slot selection.
func (r *Renderer) Doctors(doctors []booking.Doctor) {
	if len(doctors) == 0 {
		fmt.Fprintln(r.w, "No doctors are available right now.")
		return
	}
	tw := r.tab()
	fmt.Fprintln(tw, "#\tID\tNAME\tSPECIALITY\tFEES")
	for i, d := range doctors {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, d.ID, d.Name, d.Speciality, r.price(d.Fees))
	}
	tw.Flush()
}

// DoctorDetail shows one doctor's full card.
func (r *Renderer) DoctorDetail(d booking.Doctor) {
	fmt.Fprintf(r.w, "%s", d.Name)
	if d.Degree != "" {
		fmt.Fprintf(r.w, ", %s", d.Degree)
	}
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "%s", d.Speciality)
	if d.Experience != "" {
		fmt.Fprintf(r.w, " · %s", d.Experience)
	}
	fmt.Fprintln(r.w)
	if d.About != "" {
		fmt.Fprintln(r.w, d.About)
	}
	fmt.Fprintf(r.w, "Consultation fee: %s\n", r.price(d.Fees))
}

// SlotDays prints the open slots per day, numbering every slot so the user
// can pick one by index.
func (r *Renderer) SlotDays(days []booking.Day) {
	if len(days) == 0 {
		fmt.Fprintln(r.w, "No open slots in the next seven days.")
		return
	}
	n := 0
	for _, day := range days {
		fmt.Fprintf(r.w, "%s\n", day.Date.Format("Mon Jan 2"))
		var labels []string
		for _, s := range day.Slots {
			n++
			labels = append(labels, fmt.Sprintf("[%d] %s", n, s.Label))
		}
		fmt.Fprintf(r.w, "  %s\n", strings.Join(labels, "  "))
	}
}

// Appointments lists the patient's appointments with derived statuses.
func (r *Renderer) Appointments(appts []booking.Appointment, today time.Time) {
	if len(appts) == 0 {
		fmt.Fprintln(r.w, "No appointments yet.")
		return
	}
	tw := r.tab()
	fmt.Fprintln(tw, "#\tDOCTOR\tDATE\tTIME\tFEE\tSTATUS")
	for i, a := range appts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, a.DocData.Name, a.SlotDateKey, a.SlotTime, r.price(a.Amount), a.Status(today))
	}
	tw.Flush()
}

// Conversations lists the chat directory, most recent first as given.
func (r *Renderer) Conversations(list []chat.ConversationSummary) {
	if len(list) == 0 {
		fmt.Fprintln(r.w, "No conversations yet.")
		return
	}
	tw := r.tab()
	fmt.Fprintln(tw, "#\tWITH\tLAST MESSAGE\tWHEN")
	for i, c := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			i+1, c.Counterparty.Name, preview(c.LastMessage, 40), relTime(c.LastMessageTime))
	}
	tw.Flush()
}

// Thread prints a conversation's messages oldest first. Messages still
// awaiting their server echo are marked as sending.
func (r *Renderer) Thread(conv *chat.Conversation, self chat.Role) {
	if conv == nil {
		return
	}
	fmt.Fprintf(r.w, "Conversation with %s\n", conv.Counterparty.Name)
	for _, m := range conv.Messages {
		name := m.Sender.Name
		if m.SenderRole == self {
			name = "You"
		}
		suffix := ""
		if m.Optimistic() {
			suffix = " (sending)"
		}
		fmt.Fprintf(r.w, "[%s] %s: %s%s\n", m.SentAt.Format("15:04"), name, m.Body, suffix)
	}
}

// Medicines lists the pharmacy catalog.
func (r *Renderer) Medicines(medicines []pharmacy.Medicine) {
	if len(medicines) == 0 {
		fmt.Fprintln(r.w, "No medicines found.")
		return
	}
	tw := r.tab()
	fmt.Fprintln(tw, "#\tNAME\tBRAND\tDOSE\tPRICE\tSTOCK")
	for i, m := range medicines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			i+1, m.Name, m.Brand, m.Dose, r.price(m.Price), m.Stock)
	}
	tw.Flush()
}

// Cart prints the cart lines and running total.
func (r *Renderer) Cart(lines []pharmacy.Line, total float64) {
	if len(lines) == 0 {
		fmt.Fprintln(r.w, "Cart is empty.")
		return
	}
	tw := r.tab()
	fmt.Fprintln(tw, "QTY\tNAME\tUNIT\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			l.Quantity, l.Medicine.Name, r.price(l.Medicine.Price), r.price(l.Medicine.Price*float64(l.Quantity)))
	}
	tw.Flush()
	fmt.Fprintf(r.w, "Total: %s\n", r.price(total))
}

// Orders lists placed medicine orders.
func (r *Renderer) Orders(orders []pharmacy.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(r.w, "No orders yet.")
		return
	}
	tw := r.tab()
	fmt.Fprintln(tw, "#\tORDER\tITEMS\tTOTAL\tSTATUS\tPLACED")
	for i, o := range orders {
		items := 0
		for _, m := range o.Medicines {
			items += m.Quantity
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			i+1, o.ID, items, r.price(o.TotalAmount), o.Status, o.CreatedAt.Format("Jan 2 2006"))
	}
	tw.Flush()
}

// Profile prints the signed-in patient's details.
func (r *Renderer) Profile(p session.Profile) {
	tw := r.tab()
	fmt.Fprintf(tw, "Name\t%s\n", p.Name)
	fmt.Fprintf(tw, "Email\t%s\n", p.Email)
	if p.Phone != "" {
		fmt.Fprintf(tw, "Phone\t%s\n", p.Phone)
	}
	if p.Address.Line1 != "" || p.Address.Line2 != "" {
		fmt.Fprintf(tw, "Address\t%s\n", strings.TrimSpace(p.Address.Line1+" "+p.Address.Line2))
	}
	if p.Gender != "" {
		fmt.Fprintf(tw, "Gender\t%s\n", p.Gender)
	}
	if p.DOB != "" {
		fmt.Fprintf(tw, "Born\t%s\n", p.DOB)
	}
	tw.Flush()
}

// Notice prints a one-line status message.
func (r *Renderer) Notice(format string, args ...any) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

func preview(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func relTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
