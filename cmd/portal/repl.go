package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/medibridge/patient-portal/internal/api"
	"github.com/medibridge/patient-portal/internal/booking"
	"github.com/medibridge/patient-portal/internal/chat"
	"github.com/medibridge/patient-portal/internal/config"
	"github.com/medibridge/patient-portal/internal/payments"
	"github.com/medibridge/patient-portal/internal/pharmacy"
	"github.com/medibridge/patient-portal/internal/session"
	"github.com/medibridge/patient-portal/internal/ui"
	"github.com/medibridge/patient-portal/pkg/logging"
)

// app ties the command loop to the portal services. The lists it caches
// (doctors, appointments, medicines, conversations) exist so commands can
// refer to entries by the index of the last listing.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	renderer  *ui.Renderer
	client    *api.Client
	session   *session.Manager
	conn      *chat.Conn
	directory *chat.Directory
	active    *chat.ActiveConversation
	cart      *pharmacy.Cart

	scanner *bufio.Scanner

	doctors      []booking.Doctor
	slotDoctor   *booking.Doctor
	slots        []booking.Slot
	appointments []booking.Appointment
	convs        []chat.ConversationSummary
	medicines    []pharmacy.Medicine
}

const helpText = `Commands:
  register <name> <email> <password>   create an account
  login <email> <password>             sign in
  logout                               sign out
  profile                              show your profile
  doctors                              list available doctors
  slots <doctor#>                      show open slots for a doctor
  book <slot#>                         book the numbered slot
  appointments                         list your appointments
  cancel <appt#>                       cancel an appointment
  pay <appt#>                          pay a consultation fee
  chats                                list your conversations
  open <chat#>                         open a conversation
  send <message>                       send into the open conversation
  close                                close the open conversation
  medicines [term]                     browse the pharmacy
  cart [add <med#> | qty <med#> <n> | rm <med#> | clear]
  order                                check out the cart
  orders                               list your medicine orders
  quit`

func (a *app) run(ctx context.Context, in io.Reader) {
	a.scanner = bufio.NewScanner(in)
	a.renderer.Notice("Patient portal. Type 'help' for commands.")
	for {
		fmt.Print("> ")
		if !a.scanner.Scan() {
			return
		}
		line := strings.TrimSpace(a.scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return
		}
		a.dispatch(ctx, cmd, args, line)
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string, line string) {
	switch cmd {
	case "help":
		a.renderer.Notice("%s", helpText)
	case "register":
		a.cmdRegister(ctx, args)
	case "login":
		a.cmdLogin(ctx, args)
	case "logout":
		a.cmdLogout()
	case "profile":
		a.cmdProfile(ctx)
	case "doctors":
		a.cmdDoctors(ctx)
	case "slots":
		a.cmdSlots(ctx, args)
	case "book":
		a.cmdBook(ctx, args)
	case "appointments":
		a.cmdAppointments(ctx)
	case "cancel":
		a.cmdCancel(ctx, args)
	case "pay":
		a.cmdPay(ctx, args)
	case "chats":
		a.cmdChats(ctx)
	case "open":
		a.cmdOpen(ctx, args)
	case "send":
		body := strings.TrimSpace(strings.TrimPrefix(line, "send"))
		a.cmdSend(body)
	case "close":
		a.active.Close()
		a.renderer.Notice("Conversation closed.")
	case "medicines":
		a.cmdMedicines(ctx, strings.Join(args, " "))
	case "cart":
		a.cmdCart(args)
	case "order":
		a.cmdOrder(ctx)
	case "orders":
		a.cmdOrders(ctx)
	default:
		a.renderer.Notice("Unknown command %q. Type 'help' for commands.", cmd)
	}
}

// fail reports a command error. An unauthorized response means the session
// token is dead, so the user is signed out on the spot.
func (a *app) fail(err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		a.renderer.Notice("Your session has expired, please log in again.")
		if logoutErr := a.session.Logout(); logoutErr != nil {
			a.logger.Warn("logout after auth failure", "error", logoutErr)
		}
		return
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		a.renderer.Notice("%s", apiErr.Message)
		return
	}
	a.renderer.Notice("Error: %v", err)
}

func (a *app) requireAuth() bool {
	if a.session.Authenticated() {
		return true
	}
	a.renderer.Notice("Please log in first.")
	return false
}

func (a *app) cmdRegister(ctx context.Context, args []string) {
	if len(args) != 3 {
		a.renderer.Notice("Usage: register <name> <email> <password>")
		return
	}
	token, err := a.client.Register(ctx, args[0], args[1], args[2])
	if err != nil {
		a.fail(err)
		return
	}
	a.finishSignIn(ctx, token)
}

func (a *app) cmdLogin(ctx context.Context, args []string) {
	if len(args) != 2 {
		a.renderer.Notice("Usage: login <email> <password>")
		return
	}
	token, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		a.fail(err)
		return
	}
	a.finishSignIn(ctx, token)
}

func (a *app) finishSignIn(ctx context.Context, token string) {
	if err := a.session.SetToken(token); err != nil {
		a.fail(err)
		return
	}
	profile, err := a.client.Profile(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	a.session.SetUser(*profile)
	a.renderer.Notice("Signed in as %s.", profile.Name)
}

func (a *app) cmdLogout() {
	if err := a.session.Logout(); err != nil {
		a.fail(err)
		return
	}
	a.renderer.Notice("Signed out.")
}

func (a *app) cmdProfile(ctx context.Context) {
	if !a.requireAuth() {
		return
	}
	profile, err := a.client.Profile(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	a.session.SetUser(*profile)
	a.renderer.Profile(*profile)
}

func (a *app) cmdDoctors(ctx context.Context) {
	doctors, err := a.client.AvailableDoctors(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	a.doctors = doctors
	a.renderer.Doctors(doctors)
}

func (a *app) cmdSlots(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.renderer.Notice("Usage: slots <doctor#>")
		return
	}
	if len(a.doctors) == 0 {
		a.cmdDoctors(ctx)
	}
	doctor, ok := pick(a.doctors, args[0])
	if !ok {
		a.renderer.Notice("No such doctor. Run 'doctors' first.")
		return
	}
	a.slotDoctor = doctor
	days := booking.GenerateSlots(time.Now(), doctor.SlotsBooked)
	a.slots = a.slots[:0]
	for _, day := range days {
		a.slots = append(a.slots, day.Slots...)
	}
	a.renderer.DoctorDetail(*doctor)
	a.renderer.SlotDays(days)
}

func (a *app) cmdBook(ctx context.Context, args []string) {
	if !a.requireAuth() {
		return
	}
	if len(args) != 1 || a.slotDoctor == nil {
		a.renderer.Notice("Usage: slots <doctor#>, then book <slot#>")
		return
	}
	slot, ok := pick(a.slots, args[0])
	if !ok {
		a.renderer.Notice("No such slot. Run 'slots' again.")
		return
	}
	msg, err := a.client.BookAppointment(ctx, a.slotDoctor.ID, booking.SlotDateKey(slot.At), slot.Label)
	if err != nil {
		a.fail(err)
		return
	}
	a.renderer.Notice("%s", msg)
}

func (a *app) cmdAppointments(ctx context.Context) {
	if !a.requireAuth() {
		return
	}
	appts, err := a.client.MyAppointments(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	a.appointments = appts
	a.renderer.Appointments(appts, time.Now())
}

func (a *app) cmdCancel(ctx context.Context, args []string) {
	if !a.requireAuth() {
		return
	}
	appt, ok := a.pickAppointment(ctx, args)
	if !ok {
		return
	}
	if err := a.client.CancelAppointment(ctx, appt.ID); err != nil {
		a.fail(err)
		return
	}
	a.renderer.Notice("Appointment cancelled.")
}

func (a *app) cmdPay(ctx context.Context, args []string) {
	if !a.requireAuth() {
		return
	}
	appt, ok := a.pickAppointment(ctx, args)
	if !ok {
		return
	}
	order, err := a.client.CreatePaymentOrder(ctx, appt.ID)
	if err != nil {
		a.fail(err)
		return
	}
	a.renderer.Notice("Gateway order %s opened for %d %s.", order.ID, order.Amount, order.Currency)
	a.renderer.Notice("Complete the payment in the gateway, then paste the callback values.")
	callback := payments.GatewayResponse{
		PaymentID: a.prompt("payment id: "),
		OrderID:   a.prompt("order id: "),
		Signature: a.prompt("signature: "),
	}
	if err := a.client.VerifyPayment(ctx, appt.ID, callback); err != nil {
		a.fail(err)
		return
	}
	a.renderer.Notice("Payment verified.")
}

func (a *app) pickAppointment(ctx context.Context, args []string) (*booking.Appointment, bool) {
	if len(args) != 1 {
		a.renderer.Notice("Give the appointment number from 'appointments'.")
		return nil, false
	}
	if len(a.appointments) == 0 {
		a.cmdAppointments(ctx)
	}
	appt, ok := pick(a.appointments, args[0])
	if !ok {
		a.renderer.Notice("No such appointment. Run 'appointments' first.")
		return nil, false
	}
	return appt, true
}

func (a *app) cmdChats(ctx context.Context) {
	if !a.requireAuth() {
		return
	}
	if err := a.directory.Refresh(ctx); err != nil {
		a.fail(err)
		return
	}
	a.convs = a.directory.Conversations()
	a.renderer.Conversations(a.convs)
}

func (a *app) cmdOpen(ctx context.Context, args []string) {
	if !a.requireAuth() {
		return
	}
	if len(args) != 1 {
		a.renderer.Notice("Usage: open <chat#>")
		return
	}
	if len(a.convs) == 0 {
		a.convs = a.directory.Conversations()
	}
	conv, ok := pick(a.convs, args[0])
	if !ok {
		a.renderer.Notice("No such conversation. Run 'chats' first.")
		return
	}
	if err := a.active.Open(ctx, conv.AppointmentID); err != nil {
		a.fail(err)
		return
	}
	a.showThread()
}

func (a *app) cmdSend(body string) {
	if a.active.State() != chat.StateReady {
		a.renderer.Notice("Open a conversation first.")
		return
	}
	if err := a.active.Send(body); err != nil {
		a.fail(err)
		return
	}
	a.showThread()
}

func (a *app) showThread() {
	summary := a.active.Conversation()
	if summary == nil {
		return
	}
	conv := &chat.Conversation{ConversationSummary: *summary, Messages: a.active.Messages()}
	a.renderer.Thread(conv, chat.RolePatient)
}

func (a *app) cmdMedicines(ctx context.Context, term string) {
	medicines, err := a.client.Medicines(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	a.medicines = pharmacy.Filter(medicines, term)
	a.renderer.Medicines(a.medicines)
}

func (a *app) cmdCart(args []string) {
	if len(args) == 0 {
		a.renderer.Cart(a.cart.Lines(), a.cart.Total())
		return
	}
	switch args[0] {
	case "add":
		if m, ok := a.pickMedicine(args[1:]); ok {
			a.cart.Add(*m)
			a.renderer.Notice("Added %s.", m.Name)
		}
	case "qty":
		if len(args) != 3 {
			a.renderer.Notice("Usage: cart qty <med#> <n>")
			return
		}
		m, ok := a.pickMedicine(args[1:2])
		if !ok {
			return
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil || qty < 1 {
			a.renderer.Notice("Quantity must be a positive number.")
			return
		}
		a.cart.SetQuantity(m.ID, qty)
		a.renderer.Cart(a.cart.Lines(), a.cart.Total())
	case "rm":
		if m, ok := a.pickMedicine(args[1:]); ok {
			a.cart.Remove(m.ID)
			a.renderer.Notice("Removed %s.", m.Name)
		}
	case "clear":
		a.cart.Clear()
		a.renderer.Notice("Cart cleared.")
	default:
		a.renderer.Notice("Usage: cart [add <med#> | qty <med#> <n> | rm <med#> | clear]")
	}
}

func (a *app) pickMedicine(args []string) (*pharmacy.Medicine, bool) {
	if len(args) != 1 {
		a.renderer.Notice("Which medicine? Use its number from 'medicines'.")
		return nil, false
	}
	m, ok := pick(a.medicines, args[0])
	if !ok {
		a.renderer.Notice("No such medicine. Run 'medicines' first.")
		return nil, false
	}
	return m, true
}

func (a *app) cmdOrder(ctx context.Context) {
	if !a.requireAuth() {
		return
	}
	if a.cart.Empty() {
		a.renderer.Notice("Cart is empty.")
		return
	}
	a.renderer.Cart(a.cart.Lines(), a.cart.Total())
	delivery := pharmacy.Delivery{
		Address: a.prompt("delivery address: "),
		Phone:   a.prompt("phone number: "),
	}
	checkout, err := a.client.CreateMedicineOrder(ctx, a.cart.Items(), delivery)
	if err != nil {
		a.fail(err)
		return
	}
	a.renderer.Notice("Order %s opened, gateway order %s for %d %s.",
		checkout.OrderID, checkout.Order.ID, checkout.Order.Amount, checkout.Order.Currency)
	a.renderer.Notice("Complete the payment in the gateway, then paste the callback values.")
	callback := payments.GatewayResponse{
		PaymentID: a.prompt("payment id: "),
		OrderID:   a.prompt("order id: "),
		Signature: a.prompt("signature: "),
	}
	if err := a.client.VerifyMedicinePayment(ctx, checkout.OrderID, callback); err != nil {
		a.fail(err)
		return
	}
	a.cart.Clear()
	a.renderer.Notice("Order placed.")
}

func (a *app) cmdOrders(ctx context.Context) {
	if !a.requireAuth() {
		return
	}
	orders, err := a.client.UserOrders(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	a.renderer.Orders(orders)
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(a.scanner.Text())
}

// pick resolves a 1-based index string against the last listed slice.
func pick[T any](items []T, arg string) (*T, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(items) {
		return nil, false
	}
	return &items[n-1], true
}
