package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/fairway-commerce/internal/email"
)

// Mailer is the part of email.Service the handler needs.
type Mailer interface {
	SendShipmentNotice(to, customerName, orderNumber, trackingNumber string, items []email.OrderItem) error
	SendCancellationNotice(to, customerName, orderNumber, reason string, total decimal.Decimal, refund bool, items []email.OrderItem) error
}

// Handler processes notification messages for sending emails
type Handler struct {
	mailer Mailer
	logger *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, logger *zap.Logger) *Handler {
	return &Handler{
		mailer: mailer,
		logger: logger.With(zap.String("component", "notifier")),
	}
}

// HandleMessage processes a message from Kafka
func (h *Handler) HandleMessage(ctx context.Context, key, value []byte) error {
	var msg Message
	if err := json.Unmarshal(value, &msg); err != nil {
		h.logger.Error("failed to unmarshal notification", zap.ByteString("key", key), zap.Error(err))
		return err
	}

	if msg.Channel != ChannelEmail {
		h.logger.Debug("skipping unsupported channel", zap.String("channel", msg.Channel))
		return nil
	}
	if msg.Recipient == "" {
		h.logger.Warn("notification without recipient", zap.String("order_id", msg.OrderID))
		return nil
	}

	items := make([]email.OrderItem, len(msg.Items))
	for i, it := range msg.Items {
		items[i] = email.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}

	var err error
	switch msg.Type {
	case TypeShipped:
		err = h.mailer.SendShipmentNotice(msg.Recipient, msg.RecipientName, msg.OrderNumber, msg.TrackingNumber, items)
	case TypeCancelled:
		err = h.mailer.SendCancellationNotice(msg.Recipient, msg.RecipientName, msg.OrderNumber, msg.Reason, msg.Total, msg.RequiresRefund, items)
	default:
		h.logger.Debug("ignoring notification type", zap.String("type", string(msg.Type)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("send %s email for order %s: %w", msg.Type, msg.OrderNumber, err)
	}

	h.logger.Info("notification email sent",
		zap.String("type", string(msg.Type)),
		zap.String("order_number", msg.OrderNumber),
		zap.String("recipient", msg.Recipient))
	return nil
}
