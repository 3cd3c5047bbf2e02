package fulfillment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/example/fairway-commerce/internal/apperr"
	"github.com/example/fairway-commerce/internal/domain/audit"
	"github.com/example/fairway-commerce/internal/domain/order"
	"github.com/example/fairway-commerce/internal/infrastructure/store"
	"github.com/example/fairway-commerce/internal/metrics"
	"github.com/example/fairway-commerce/internal/notification"
)

const DefaultTxTimeout = 30 * time.Second

// Notifier accepts customer notifications without waiting for delivery.
type Notifier interface {
	Enqueue(msg notification.Message) bool
}

type Options struct {
	// TxTimeout bounds the whole transaction. Zero means DefaultTxTimeout.
	TxTimeout time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Engine applies order status transitions and their side effects. It keeps
// no state between calls and is safe for concurrent use.
type Engine struct {
	store     store.TxRunner
	notifier  Notifier
	metrics   *metrics.FulfillmentMetrics
	logger    *zap.Logger
	txTimeout time.Duration
	now       func() time.Time
}

// NewEngine creates an Engine. notifier and m may be nil.
func NewEngine(s store.TxRunner, notifier Notifier, m *metrics.FulfillmentMetrics, logger *zap.Logger, opts Options) *Engine {
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = DefaultTxTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:     s,
		notifier:  notifier,
		metrics:   m,
		logger:    logger.With(zap.String("component", "fulfillment")),
		txTimeout: opts.TxTimeout,
		now:       opts.Now,
	}
}

// TransitionOrder moves an order to the requested status. Existence,
// authorization, the transition table, inventory restoration, the status
// write and every audit entry are applied in one transaction: either all of
// them persist or none do. The customer notification is handed off after
// commit and never fails the call.
func (e *Engine) TransitionOrder(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	target, tracking, err := validate(req)
	if err != nil {
		e.observe(target, err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.txTimeout)
	defer cancel()

	var (
		updated  *order.Order
		previous order.Status
		now      = e.now().UTC()
	)
	start := time.Now()
	err = e.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, req.OrderID)
		if errors.Is(err, store.ErrOrderNotFound) {
			return apperr.NotFound("order not found").WithDetails(map[string]any{"orderId": req.OrderID})
		}
		if err != nil {
			return err
		}

		if err := Authorize(req.Identity, o); err != nil {
			return err
		}

		if !order.CanTransition(o.Status, target) {
			invalid := apperr.InvalidTransition(
				string(o.Status),
				string(target),
				order.StatusNames(order.AllowedTransitions(o.Status)),
			)
			if order.IsTerminal(o.Status) {
				invalid.Message = "order is " + string(o.Status) + " and its status can no longer change"
			}
			return invalid
		}

		if target == order.StatusCancelled {
			if err := e.restoreInventory(ctx, tx, o, req, now); err != nil {
				return err
			}
		}

		next := *o
		next.Status = target
		next.UpdatedAt = now
		if target == order.StatusShipped {
			next.PaymentMetadata = o.PaymentMetadata.WithShipment(order.Shipment{
				TrackingNumber: tracking,
				ShippedAt:      now,
			})
		}
		if err := tx.UpdateOrderStatus(ctx, &next); err != nil {
			return err
		}

		entry := audit.NewEntry(
			req.Identity.UserID,
			string(req.Identity.Role),
			audit.ActionOrderStatusChanged,
			audit.EntityOrder,
			o.ID,
			map[string]any{
				"orderNumber":    o.OrderNumber,
				"previousStatus": string(o.Status),
				"newStatus":      string(target),
				"reason":         req.Reason,
				"trackingNumber": tracking,
				"requiresRefund": order.RequiresRefund(o.Status, target),
				"actorRole":      string(req.Identity.Role),
				"actorUsername":  req.Identity.Username,
			},
			req.Origin,
			now,
		)
		if err := tx.AppendAudit(ctx, entry); err != nil {
			return err
		}

		previous = o.Status
		updated = &next
		return nil
	})
	if e.metrics != nil {
		e.metrics.TxDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		err = e.classify(ctx, req, err)
		e.observe(target, err)
		return nil, err
	}
	e.observe(target, nil)

	e.logger.Info("order status changed",
		zap.String("order_id", updated.ID),
		zap.String("order_number", updated.OrderNumber),
		zap.String("from", string(previous)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", req.Identity.UserID),
		zap.String("actor_role", string(req.Identity.Role)))

	return &TransitionResult{
		Order:          updated,
		PreviousStatus: previous,
		Notification:   e.notify(updated, previous, req.Reason, now),
	}, nil
}

func validate(req TransitionRequest) (order.Status, string, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return "", "", apperr.Validation("order id is required").WithDetails(map[string]any{"field": "id"})
	}
	target, ok := order.ParseStatus(req.Status)
	if !ok {
		return "", "", apperr.Validation("invalid status").WithDetails(map[string]any{
			"field":   "status",
			"allowed": order.StatusNames(order.Statuses),
		})
	}
	if utf8.RuneCountInString(req.Reason) > MaxReasonLength {
		return target, "", apperr.Validation("reason is too long").WithDetails(map[string]any{
			"field":     "reason",
			"maxLength": MaxReasonLength,
		})
	}
	tracking := strings.TrimSpace(req.TrackingNumber)
	if utf8.RuneCountInString(tracking) > MaxTrackingNumberLength {
		return target, "", apperr.Validation("tracking number is too long").WithDetails(map[string]any{
			"field":     "trackingNumber",
			"maxLength": MaxTrackingNumberLength,
		})
	}
	if target == order.StatusShipped && tracking == "" {
		return target, "", apperr.Validation("tracking number is required to ship an order").WithDetails(map[string]any{
			"field": "trackingNumber",
		})
	}
	return target, tracking, nil
}

// restoreInventory puts every item back on the shelf. Products are locked in
// id order so concurrent cancellations sharing products cannot deadlock.
func (e *Engine) restoreInventory(ctx context.Context, tx store.Tx, o *order.Order, req TransitionRequest, now time.Time) error {
	items := make([]order.OrderItem, len(o.Items))
	copy(items, o.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	for _, it := range items {
		p, err := tx.GetProductForUpdate(ctx, it.ProductID)
		if err != nil {
			return err
		}
		restocked, err := p.Restock(it.Quantity)
		if err != nil {
			return err
		}
		restocked.UpdatedAt = now
		if err := tx.UpdateProduct(ctx, restocked); err != nil {
			return err
		}

		entry := audit.NewEntry(
			req.Identity.UserID,
			string(req.Identity.Role),
			audit.ActionInventoryRestoredOnCancel,
			audit.EntityProduct,
			p.ID,
			map[string]any{
				audit.MetaOrderID:       o.ID,
				"orderNumber":           o.OrderNumber,
				"productId":             p.ID,
				"quantityRestored":      it.Quantity,
				"inventoryAfter":        restocked.Inventory,
				"previousProductStatus": string(p.Status),
				"productStatus":         string(restocked.Status),
			},
			req.Origin,
			now,
		)
		if err := tx.AppendAudit(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) classify(ctx context.Context, req TransitionRequest, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		e.logger.Warn("order transition timed out",
			zap.String("order_id", req.OrderID),
			zap.Duration("timeout", e.txTimeout),
			zap.Error(err))
		return apperr.TransactionTimeout(err)
	}
	e.logger.Error("order transition failed",
		zap.String("order_id", req.OrderID),
		zap.String("status", req.Status),
		zap.Error(err))
	return apperr.Storage(err)
}

func (e *Engine) notify(o *order.Order, previous order.Status, reason string, now time.Time) Notification {
	ack := Notification{Type: notification.ChannelEmail, Recipient: o.User.Email}

	msg, ok := notification.ForTransition(o, previous, reason, now)
	if !ok {
		return ack
	}
	if e.notifier == nil || msg.Recipient == "" {
		e.logger.Warn("notification not dispatched",
			zap.String("order_id", o.ID),
			zap.String("type", string(msg.Type)),
			zap.Bool("has_recipient", msg.Recipient != ""))
		e.observeNotification(msg.Type, false)
		return ack
	}

	ack.Sent = e.notifier.Enqueue(msg)
	if !ack.Sent {
		e.logger.Warn("notification queue refused message",
			zap.String("order_id", o.ID),
			zap.String("type", string(msg.Type)))
	}
	e.observeNotification(msg.Type, ack.Sent)
	return ack
}

func (e *Engine) observe(target order.Status, err error) {
	if e.metrics == nil {
		return
	}
	to := string(target)
	if to == "" {
		to = "UNKNOWN"
	}
	result := "ok"
	if err != nil {
		result = string(apperr.KindOf(err))
	}
	e.metrics.Transitions.WithLabelValues(to, result).Inc()
}

func (e *Engine) observeNotification(typ notification.Type, sent bool) {
	if e.metrics == nil {
		return
	}
	s := "false"
	if sent {
		s = "true"
	}
	e.metrics.Notifications.WithLabelValues(string(typ), s).Inc()
}
