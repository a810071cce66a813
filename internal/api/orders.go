package api

import (
	"context"
	"net/http"

	"github.com/medibridge/patient-portal/internal/payments"
	"github.com/medibridge/patient-portal/internal/pharmacy"
)

// Medicines lists the pharmacy catalog.
func (c *Client) Medicines(ctx context.Context) ([]pharmacy.Medicine, error) {
	data, err := c.invoke(ctx, http.MethodGet, "/api/pharmacy/all-medicines", nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[struct {
		envelope
		Data []pharmacy.Medicine `json:"data"`
	}](data)
	if err != nil {
		return nil, err
	}
	if err := resp.reject(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// MedicineCheckout is the gateway order opened for a medicine purchase plus
// the backend's own order reference for later verification.
type MedicineCheckout struct {
	OrderID string
	Order   payments.Order
}

// CreateMedicineOrder places a medicine order and opens its gateway order.
// Delivery details are validated before anything goes over the wire.
func (c *Client) CreateMedicineOrder(ctx context.Context, items []pharmacy.OrderItem, delivery pharmacy.Delivery) (*MedicineCheckout, error) {
	if err := delivery.Validate(); err != nil {
		return nil, err
	}
	data, err := c.invoke(ctx, http.MethodPost, "/api/orders/medicine-payment", nil, struct {
		Medicines       []pharmacy.OrderItem `json:"medicines"`
		DeliveryAddress string               `json:"deliveryAddress"`
		PhoneNumber     string               `json:"phoneNumber"`
	}{items, delivery.Address, delivery.Phone})
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[struct {
		envelope
		RazorpayOrder payments.Order `json:"razorpayOrder"`
		OrderID       string         `json:"orderId"`
	}](data)
	if err != nil {
		return nil, err
	}
	if err := resp.reject(); err != nil {
		return nil, err
	}
	return &MedicineCheckout{OrderID: resp.OrderID, Order: resp.RazorpayOrder}, nil
}

// VerifyMedicinePayment relays the gateway callback for a medicine order.
func (c *Client) VerifyMedicinePayment(ctx context.Context, orderID string, g payments.GatewayResponse) error {
	if err := g.Validate(); err != nil {
		return err
	}
	data, err := c.invoke(ctx, http.MethodPost, "/api/orders/verify-payment-medicine", nil, struct {
		OrderID string `json:"orderId"`
		payments.GatewayResponse
	}{orderID, g})
	if err != nil {
		return err
	}
	resp, err := decodeInto[envelope](data)
	if err != nil {
		return err
	}
	return resp.reject()
}

// UserOrders lists the patient's placed medicine orders.
func (c *Client) UserOrders(ctx context.Context) ([]pharmacy.Order, error) {
	data, err := c.invoke(ctx, http.MethodGet, "/api/orders/user-orders", nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[struct {
		envelope
		Data []pharmacy.Order `json:"data"`
	}](data)
	if err != nil {
		return nil, err
	}
	if err := resp.reject(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
