package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a customer's purchase with its line items.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	User            Customer        `json:"user"`
	Status          Status          `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Memo            string          `json:"memo,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	PaymentMetadata PaymentMetadata `json:"paymentMetadata"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Customer is the order owner as needed for display and notification.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ShippingAddress struct {
	RecipientName string `json:"recipientName"`
	Phone         string `json:"phone"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2,omitempty"`
	PostalCode    string `json:"postalCode"`
}

// OrderItem is a product line with the unit price frozen at order time.
// BrandID is read from the referenced product and is not stored on the item.
type OrderItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	BrandID     string          `json:"brandId,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// LineTotal is UnitPrice × Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemCount is the sum of item quantities.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Subtotal sums the line totals.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// HasBrand reports whether any item belongs to brandID.
func (o *Order) HasBrand(brandID string) bool {
	if brandID == "" {
		return false
	}
	for _, it := range o.Items {
		if it.BrandID == brandID {
			return true
		}
	}
	return false
}

// Shipment is the proof of dispatch recorded when an order ships.
type Shipment struct {
	TrackingNumber string    `json:"trackingNumber"`
	ShippedAt      time.Time `json:"shippedAt"`
}

// PaymentMetadata holds payment-provider data for an order. Shipment is the
// typed part written by fulfillment; Extra keeps every other key untouched.
type PaymentMetadata struct {
	Shipment *Shipment
	Extra    map[string]any
}

const (
	metaTrackingNumber = "trackingNumber"
	metaShippedAt      = "shippedAt"
)

// WithShipment returns a copy of m with s merged in. m is not modified.
func (m PaymentMetadata) WithShipment(s Shipment) PaymentMetadata {
	out := PaymentMetadata{Shipment: &s}
	if len(m.Extra) > 0 {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MarshalJSON flattens Shipment and Extra into a single object.
func (m PaymentMetadata) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		flat[k] = v
	}
	if m.Shipment != nil {
		flat[metaTrackingNumber] = m.Shipment.TrackingNumber
		flat[metaShippedAt] = m.Shipment.ShippedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(flat)
}

func (m *PaymentMetadata) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*m = PaymentMetadata{}

	// Keys written by a payment provider in another format stay in Extra.
	tracking, hasTracking := flat[metaTrackingNumber].(string)
	shippedRaw, hasShipped := flat[metaShippedAt].(string)
	if hasTracking && hasShipped {
		if shippedAt, err := time.Parse(time.RFC3339Nano, shippedRaw); err == nil {
			m.Shipment = &Shipment{TrackingNumber: tracking, ShippedAt: shippedAt}
			delete(flat, metaTrackingNumber)
			delete(flat, metaShippedAt)
		}
	}
	if len(flat) > 0 {
		m.Extra = flat
	}
	return nil
}
