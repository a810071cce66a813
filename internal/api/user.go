package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/medibridge/patient-portal/internal/booking"
	"github.com/medibridge/patient-portal/internal/payments"
	"github.com/medibridge/patient-portal/internal/session"
)

// Register creates an account and returns the issued session token.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	return c.authenticate(ctx, "/api/user/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/api/user/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, creds map[string]string) (string, error) {
	data, err := c.invoke(ctx, http.MethodPost, path, nil, creds)
	if err != nil {
		return "", err
	}
	resp, err := decodeInto[struct {
		envelope
		Token string `json:"token"`
	}](data)
	if err != nil {
		return "", err
	}
	if err := resp.reject(); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("api: no token in auth response")
	}
	return resp.Token, nil
}

// Profile fetches the signed-in patient's profile.
func (c *Client) Profile(ctx context.Context) (*session.Profile, error) {
	data, err := c.invoke(ctx, http.MethodGet, "/api/user/profile", nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[struct {
		envelope
		Data session.Profile `json:"data"`
	}](data)
	if err != nil {
		return nil, err
	}
	if err := resp.reject(); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// EditProfile updates the patient's profile.
func (c *Client) EditProfile(ctx context.Context, profile session.Profile) error {
	data, err := c.invoke(ctx, http.MethodPost, "/api/user/edit-profile", nil, profile)
	if err != nil {
		return err
	}
	resp, err := decodeInto[envelope](data)
	if err != nil {
		return err
	}
	return resp.reject()
}

// BookAppointment books docID at the given slot and returns the server's
// confirmation message.
func (c *Client) BookAppointment(ctx context.Context, docID, slotDate, slotTime string) (string, error) {
	data, err := c.invoke(ctx, http.MethodPost, "/api/user/book-appointment", nil, map[string]string{
		"docId":    docID,
		"slotDate": slotDate,
		"slotTime": slotTime,
	})
	if err != nil {
		return "", err
	}
	resp, err := decodeInto[envelope](data)
	if err != nil {
		return "", err
	}
	if err := resp.reject(); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// MyAppointments lists the patient's appointments, newest bookings first as
// served by the backend.
func (c *Client) MyAppointments(ctx context.Context) ([]booking.Appointment, error) {
	data, err := c.invoke(ctx, http.MethodGet, "/api/user/my-appointments", nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[struct {
		envelope
		Data []booking.Appointment `json:"data"`
	}](data)
	if err != nil {
		return nil, err
	}
	if err := resp.reject(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CancelAppointment cancels one appointment.
func (c *Client) CancelAppointment(ctx context.Context, appointmentID string) error {
	data, err := c.invoke(ctx, http.MethodPost, "/api/user/cancel-appointment", nil, map[string]string{
		"appointmentId": appointmentID,
	})
	if err != nil {
		return err
	}
	resp, err := decodeInto[envelope](data)
	if err != nil {
		return err
	}
	return resp.reject()
}

// CreatePaymentOrder asks the backend to open a gateway order for an
// appointment's consultation fee.
func (c *Client) CreatePaymentOrder(ctx context.Context, appointmentID string) (*payments.Order, error) {
	data, err := c.invoke(ctx, http.MethodPost, "/api/user/payment-razorpay", nil, map[string]string{
		"appointmentId": appointmentID,
	})
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[struct {
		envelope
		Order payments.Order `json:"order"`
	}](data)
	if err != nil {
		return nil, err
	}
	if err := resp.reject(); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

// VerifyPayment relays the gateway callback for server-side verification.
func (c *Client) VerifyPayment(ctx context.Context, appointmentID string, g payments.GatewayResponse) error {
	if err := g.Validate(); err != nil {
		return err
	}
	data, err := c.invoke(ctx, http.MethodPost, "/api/user/verify-payment", nil, struct {
		AppointmentID string `json:"appointmentId"`
		payments.GatewayResponse
	}{appointmentID, g})
	if err != nil {
		return err
	}
	resp, err := decodeInto[envelope](data)
	if err != nil {
		return err
	}
	return resp.reject()
}

// AvailableDoctors lists doctors currently accepting bookings, including
// their booked-slots maps for client-side slot generation.
func (c *Client) AvailableDoctors(ctx context.Context) ([]booking.Doctor, error) {
	data, err := c.invoke(ctx, http.MethodGet, "/api/doctor/get-all-available-doctors", nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[struct {
		envelope
		Data []booking.Doctor `json:"data"`
	}](data)
	if err != nil {
		return nil, err
	}
	if err := resp.reject(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Doctor finds one doctor by id in the available list.
func (c *Client) Doctor(ctx context.Context, docID string) (*booking.Doctor, error) {
	doctors, err := c.AvailableDoctors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doctors {
		if doctors[i].ID == docID {
			return &doctors[i], nil
		}
	}
	return nil, fmt.Errorf("api: doctor %s not found", docID)
}
