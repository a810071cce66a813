package pharmacy

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// Medicine is one catalog entry from the pharmacy API.
type Medicine struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand,omitempty"`
	Dose     string  `json:"dose,omitempty"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Stock    int     `json:"stock"`
	Category string  `json:"category,omitempty"`
}

// OrderItem is one line of a medicine order payload.
type OrderItem struct {
	MedicineID string `json:"medicineId"`
	Quantity   int    `json:"quantity"`
}

// Order is a placed medicine order as returned by the orders API.
type Order struct {
	ID              string      `json:"_id"`
	Medicines       []OrderItem `json:"medicines"`
	TotalAmount     float64     `json:"totalAmount"`
	DeliveryAddress string      `json:"deliveryAddress"`
	PhoneNumber     string      `json:"phoneNumber"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Delivery holds the checkout contact details.
type Delivery struct {
	Address string
	Phone   string
}

// Validate rejects checkouts with missing delivery details at the UI
// boundary, before any request goes out.
func (d Delivery) Validate() error {
	if strings.TrimSpace(d.Address) == "" || strings.TrimSpace(d.Phone) == "" {
		return errors.New("pharmacy: delivery address and phone are required")
	}
	return nil
}

// Cart accumulates medicines ahead of checkout.
type Cart struct {
	mu    sync.Mutex
	lines map[string]*line
}

type line struct {
	medicine Medicine
	quantity int
}

// Line is a read-only cart snapshot entry.
type Line struct {
	Medicine Medicine
	Quantity int
}

func NewCart() *Cart {
	return &Cart{lines: make(map[string]*line)}
}

// Add puts one more unit of m in the cart.
func (c *Cart) Add(m Medicine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.lines[m.ID]; ok {
		l.quantity++
		return
	}
	c.lines[m.ID] = &line{medicine: m, quantity: 1}
}

// SetQuantity adjusts a line; quantities below one are ignored.
func (c *Cart) SetQuantity(medicineID string, qty int) {
	if qty < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.lines[medicineID]; ok {
		l.quantity = qty
	}
}

// Remove drops a line entirely.
func (c *Cart) Remove(medicineID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lines, medicineID)
}

// Clear empties the cart, as after a confirmed checkout.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[string]*line)
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Total is the cart price in currency units.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, l := range c.lines {
		total += l.medicine.Price * float64(l.quantity)
	}
	return total
}

// Lines returns a snapshot sorted by medicine name.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	out := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, Line{Medicine: l.medicine, Quantity: l.quantity})
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Medicine.Name < out[j].Medicine.Name })
	return out
}

// Items builds the order payload lines for checkout.
func (c *Cart) Items() []OrderItem {
	lines := c.Lines()
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{MedicineID: l.Medicine.ID, Quantity: l.Quantity})
	}
	return items
}

// Filter returns the medicines whose name or brand contains term,
// case-insensitively. A blank term returns the input unchanged.
func Filter(medicines []Medicine, term string) []Medicine {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return medicines
	}
	var out []Medicine
	for _, m := range medicines {
		if strings.Contains(strings.ToLower(m.Name), term) || strings.Contains(strings.ToLower(m.Brand), term) {
			out = append(out, m)
		}
	}
	return out
}
