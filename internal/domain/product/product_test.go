package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestock_AddsQuantity(t *testing.T) {
	p := Product{ID: "p1", Inventory: 5, Status: StatusActive}

	next, err := p.Restock(2)

	require.NoError(t, err)
	assert.Equal(t, 7, next.Inventory)
	assert.Equal(t, StatusActive, next.Status)
	assert.Equal(t, 5, p.Inventory, "receiver must not change")
}

func TestRestock_OutOfStockBecomesActive(t *testing.T) {
	p := Product{ID: "p1", Inventory: 0, Status: StatusOutOfStock}

	next, err := p.Restock(1)

	require.NoError(t, err)
	assert.Equal(t, 1, next.Inventory)
	assert.Equal(t, StatusActive, next.Status)
}

func TestRestock_InactiveStaysInactive(t *testing.T) {
	p := Product{ID: "p1", Inventory: 0, Status: StatusInactive}

	next, err := p.Restock(3)

	require.NoError(t, err)
	assert.Equal(t, 3, next.Inventory)
	assert.Equal(t, StatusInactive, next.Status)
}

func TestRestock_InvalidQuantity(t *testing.T) {
	p := Product{ID: "p1", Inventory: 4, Status: StatusActive}

	for _, q := range []int{0, -1} {
		next, err := p.Restock(q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Equal(t, p, next)
	}
}

func TestRestock_RejectsCorruptInventory(t *testing.T) {
	p := Product{ID: "p1", Inventory: -2, Status: StatusActive}

	_, err := p.Restock(1)

	assert.ErrorIs(t, err, ErrNegativeInventory)
}
