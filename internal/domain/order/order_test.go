package order

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Transition Table Tests
// ============================================

func TestCanTransition_AllPairs(t *testing.T) {
	legal := map[Status]map[Status]bool{
		StatusPending:   {StatusPaid: true, StatusCancelled: true},
		StatusPaid:      {StatusPreparing: true, StatusCancelled: true},
		StatusPreparing: {StatusShipped: true, StatusCancelled: true},
		StatusShipped:   {StatusDelivered: true},
		StatusDelivered: {},
		StatusCancelled: {},
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			want := legal[from][to]
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition("REFUNDED", StatusPaid))
	assert.False(t, CanTransition(StatusPending, "REFUNDED"))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusDelivered))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusShipped))
	assert.False(t, IsTerminal("bogus"))
}

func TestAllowedTransitions_ReturnsCopy(t *testing.T) {
	next := AllowedTransitions(StatusPending)
	require.Equal(t, []Status{StatusPaid, StatusCancelled}, next)

	next[0] = StatusDelivered
	assert.Equal(t, []Status{StatusPaid, StatusCancelled}, AllowedTransitions(StatusPending))
	assert.Empty(t, AllowedTransitions(StatusCancelled))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("SHIPPED")
	assert.True(t, ok)
	assert.Equal(t, StatusShipped, s)

	_, ok = ParseStatus(" PAID ")
	assert.False(t, ok)
	_, ok = ParseStatus("  PAID \n")
	assert.False(t, ok)
	_, ok = ParseStatus("shipped")
	assert.False(t, ok)
	_, ok = ParseStatus("")
	assert.False(t, ok)
}

func TestRequiresRefund(t *testing.T) {
	tests := []struct {
		prev Status
		next Status
		want bool
	}{
		{StatusPending, StatusCancelled, false},
		{StatusPaid, StatusCancelled, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusPaid, StatusPreparing, false},
		{StatusShipped, StatusDelivered, false},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, RequiresRefund(tt.prev, tt.next), "%s -> %s", tt.prev, tt.next)
	}
}

// ============================================
// Order Tests
// ============================================

func TestOrder_ComputedFields(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{ProductID: "p1", BrandID: "b1", Quantity: 3, UnitPrice: decimal.RequireFromString("12000")},
		{ProductID: "p2", BrandID: "b2", Quantity: 1, UnitPrice: decimal.RequireFromString("4500.50")},
	}}

	assert.Equal(t, 4, o.ItemCount())
	assert.True(t, decimal.RequireFromString("40500.50").Equal(o.Subtotal()))
	assert.True(t, o.HasBrand("b2"))
	assert.False(t, o.HasBrand("b3"))
	assert.False(t, o.HasBrand(""))
}

func TestPaymentMetadata_WithShipment_DoesNotMutate(t *testing.T) {
	orig := PaymentMetadata{Extra: map[string]any{"pgTxId": "tx-1"}}
	shippedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	merged := orig.WithShipment(Shipment{TrackingNumber: "TRK-1", ShippedAt: shippedAt})

	assert.Nil(t, orig.Shipment)
	require.NotNil(t, merged.Shipment)
	assert.Equal(t, "TRK-1", merged.Shipment.TrackingNumber)
	assert.Equal(t, "tx-1", merged.Extra["pgTxId"])

	merged.Extra["pgTxId"] = "changed"
	assert.Equal(t, "tx-1", orig.Extra["pgTxId"])
}

func TestPaymentMetadata_JSON(t *testing.T) {
	shippedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := PaymentMetadata{Extra: map[string]any{"pgTxId": "tx-1"}}.
		WithShipment(Shipment{TrackingNumber: "TRK-1", ShippedAt: shippedAt})

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "tx-1", flat["pgTxId"])
	assert.Equal(t, "TRK-1", flat["trackingNumber"])
	assert.Equal(t, "2026-03-01T09:00:00Z", flat["shippedAt"])

	var back PaymentMetadata
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Shipment)
	assert.True(t, shippedAt.Equal(back.Shipment.ShippedAt))
	assert.Equal(t, map[string]any{"pgTxId": "tx-1"}, back.Extra)
}

func TestPaymentMetadata_UnmarshalEmpty(t *testing.T) {
	var m PaymentMetadata
	require.NoError(t, json.Unmarshal([]byte(`{}`), &m))
	assert.Nil(t, m.Shipment)
	assert.Nil(t, m.Extra)
}

func TestPaymentMetadata_UnmarshalForeignShippedAt(t *testing.T) {
	data := []byte(`{"provider":"stripe","trackingNumber":"X1","shippedAt":"2024/01/02 10:00"}`)

	var m PaymentMetadata
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Nil(t, m.Shipment)
	assert.Equal(t, map[string]any{
		"provider":       "stripe",
		"trackingNumber": "X1",
		"shippedAt":      "2024/01/02 10:00",
	}, m.Extra)

	// shipping later replaces the foreign keys with the typed shipment
	shippedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out, err := json.Marshal(m.WithShipment(Shipment{TrackingNumber: "TRK-2", ShippedAt: shippedAt}))
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(out, &flat))
	assert.Equal(t, "TRK-2", flat["trackingNumber"])
	assert.Equal(t, "2026-03-01T09:00:00Z", flat["shippedAt"])
	assert.Equal(t, "stripe", flat["provider"])
}
