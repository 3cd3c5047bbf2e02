package fulfillment

import (
	"github.com/example/fairway-commerce/internal/auth"
	"github.com/example/fairway-commerce/internal/domain/audit"
	"github.com/example/fairway-commerce/internal/domain/order"
)

const (
	MaxReasonLength         = 500
	MaxTrackingNumberLength = 100
)

// TransitionRequest asks to move one order to Status.
type TransitionRequest struct {
	OrderID        string
	Status         string
	Identity       auth.Identity
	Reason         string
	TrackingNumber string
	Origin         audit.Origin
}

// Notification acknowledges the hand-off of the customer notification.
type Notification struct {
	Sent      bool   `json:"sent"`
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
}

type TransitionResult struct {
	Order          *order.Order `json:"order"`
	PreviousStatus order.Status `json:"previousStatus"`
	Notification   Notification `json:"notification"`
}
