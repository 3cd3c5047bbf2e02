package notification

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/fairway-commerce/internal/domain/order"
)

// Type identifies the template a message is rendered with.
type Type string

const (
	TypeShipped   Type = "ORDER_SHIPPED"
	TypeCancelled Type = "ORDER_CANCELLED"
)

// ChannelEmail is the only delivery channel.
const ChannelEmail = "email"

// Message is what the API hands to the notifier for one order event.
type Message struct {
	Type           Type            `json:"type"`
	Channel        string          `json:"channel"`
	Recipient      string          `json:"recipient"`
	RecipientName  string          `json:"recipientName"`
	OrderID        string          `json:"orderId"`
	OrderNumber    string          `json:"orderNumber"`
	TrackingNumber string          `json:"trackingNumber,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	RequiresRefund bool            `json:"requiresRefund,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Items          []Item          `json:"items"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// ForTransition builds the message for an order that just moved to its
// current status. ok is false for statuses that notify nobody.
func ForTransition(o *order.Order, previous order.Status, reason string, now time.Time) (Message, bool) {
	var typ Type
	switch o.Status {
	case order.StatusShipped:
		typ = TypeShipped
	case order.StatusCancelled:
		typ = TypeCancelled
	default:
		return Message{}, false
	}

	msg := Message{
		Type:           typ,
		Channel:        ChannelEmail,
		Recipient:      o.User.Email,
		RecipientName:  o.User.Name,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Reason:         reason,
		RequiresRefund: order.RequiresRefund(previous, o.Status),
		Total:          o.TotalAmount,
		Items:          make([]Item, len(o.Items)),
		OccurredAt:     now,
	}
	if typ == TypeShipped && o.PaymentMetadata.Shipment != nil {
		msg.TrackingNumber = o.PaymentMetadata.Shipment.TrackingNumber
	}
	for i, it := range o.Items {
		msg.Items[i] = Item{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return msg, true
}
