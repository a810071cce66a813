package pharmacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paracetamol = Medicine{ID: "med-1", Name: "Paracetamol", Brand: "Calpol", Price: 2.5}
	ibuprofen   = Medicine{ID: "med-2", Name: "Ibuprofen", Brand: "Advil", Price: 4}
)

func TestCartAddAndTotal(t *testing.T) {
	cart := NewCart()
	assert.True(t, cart.Empty())

	cart.Add(paracetamol)
	cart.Add(paracetamol)
	cart.Add(ibuprofen)

	assert.False(t, cart.Empty())
	assert.InDelta(t, 9.0, cart.Total(), 1e-9)

	lines := cart.Lines()
	require.Len(t, lines, 2)
	// Sorted by name.
	assert.Equal(t, "Ibuprofen", lines[0].Medicine.Name)
	assert.Equal(t, 2, lines[1].Quantity)
}

func TestCartQuantityRules(t *testing.T) {
	cart := NewCart()
	cart.Add(paracetamol)

	cart.SetQuantity("med-1", 5)
	assert.InDelta(t, 12.5, cart.Total(), 1e-9)

	cart.SetQuantity("med-1", 0)
	assert.InDelta(t, 12.5, cart.Total(), 1e-9, "quantities below one are ignored")

	cart.SetQuantity("missing", 3) // unknown line, no-op

	cart.Remove("med-1")
	assert.True(t, cart.Empty())
}

func TestCartItemsPayload(t *testing.T) {
	cart := NewCart()
	cart.Add(paracetamol)
	cart.Add(ibuprofen)
	cart.SetQuantity("med-2", 3)

	items := cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, OrderItem{MedicineID: "med-2", Quantity: 3}, items[0])
	assert.Equal(t, OrderItem{MedicineID: "med-1", Quantity: 1}, items[1])
}

func TestCartClear(t *testing.T) {
	cart := NewCart()
	cart.Add(paracetamol)
	cart.Clear()
	assert.True(t, cart.Empty())
	assert.Zero(t, cart.Total())
}

func TestDeliveryValidate(t *testing.T) {
	assert.NoError(t, Delivery{Address: "12 Elm St", Phone: "5551234"}.Validate())
	assert.Error(t, Delivery{Address: " ", Phone: "5551234"}.Validate())
	assert.Error(t, Delivery{Address: "12 Elm St"}.Validate())
}

func TestFilter(t *testing.T) {
	meds := []Medicine{paracetamol, ibuprofen}

	assert.Len(t, Filter(meds, ""), 2)
	assert.Len(t, Filter(meds, "  "), 2)

	byName := Filter(meds, "para")
	require.Len(t, byName, 1)
	assert.Equal(t, "med-1", byName[0].ID)

	byBrand := Filter(meds, "advil")
	require.Len(t, byBrand, 1)
	assert.Equal(t, "med-2", byBrand[0].ID)

	assert.Empty(t, Filter(meds, "aspirin"))
}
