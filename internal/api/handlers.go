package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/fairway-commerce/internal/api/middleware"
	"github.com/example/fairway-commerce/internal/api/respond"
	"github.com/example/fairway-commerce/internal/apperr"
	"github.com/example/fairway-commerce/internal/auth"
	"github.com/example/fairway-commerce/internal/domain/audit"
	"github.com/example/fairway-commerce/internal/domain/order"
	"github.com/example/fairway-commerce/internal/fulfillment"
	"github.com/example/fairway-commerce/internal/infrastructure/store"
)

const maxBodyBytes = 1 << 20

// OrderTransitioner is the fulfillment entry point the handlers call.
type OrderTransitioner interface {
	TransitionOrder(ctx context.Context, req fulfillment.TransitionRequest) (*fulfillment.TransitionResult, error)
}

type Handlers struct {
	engine OrderTransitioner
	reads  store.ReadStore
	logger *zap.Logger
}

func NewHandlers(engine OrderTransitioner, reads store.ReadStore, logger *zap.Logger) *Handlers {
	return &Handlers{
		engine: engine,
		reads:  reads,
		logger: logger.With(zap.String("component", "api")),
	}
}

// OrderResponse is an order with its computed fields.
type OrderResponse struct {
	*order.Order
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func newOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{Order: o, ItemCount: o.ItemCount(), Subtotal: o.Subtotal()}
}

type UpdateStatusRequest struct {
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

type UpdateStatusResponse struct {
	Order          OrderResponse            `json:"order"`
	PreviousStatus order.Status             `json:"previousStatus"`
	Notification   fulfillment.Notification `json:"notification"`
}

// Order Handlers

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	o, err := h.loadVisibleOrder(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, newOrderResponse(o))
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	var req UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.engine.TransitionOrder(r.Context(), fulfillment.TransitionRequest{
		OrderID:        chi.URLParam(r, "id"),
		Status:         req.Status,
		Identity:       identity,
		Reason:         req.Reason,
		TrackingNumber: req.TrackingNumber,
		Origin: audit.Origin{
			IPAddress: middleware.ClientIP(r),
			UserAgent: r.UserAgent(),
		},
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, UpdateStatusResponse{
		Order:          newOrderResponse(result.Order),
		PreviousStatus: result.PreviousStatus,
		Notification:   result.Notification,
	})
}

func (h *Handlers) GetOrderAuditLogs(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentity(r.Context())

	o, err := h.loadVisibleOrder(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			h.respondError(w, r, apperr.Validation("limit must be a positive integer"))
			return
		}
	}

	entries, err := h.reads.ListOrderAuditLogs(r.Context(), o.ID, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"auditLogs": entries})
}

// loadVisibleOrder returns the order if the caller may read it. Buyers see
// only their own orders and brand admins only orders with their items;
// anything else looks like a missing order.
func (h *Handlers) loadVisibleOrder(ctx context.Context, identity auth.Identity, id string) (*order.Order, error) {
	o, err := h.reads.GetOrder(ctx, id)
	if errors.Is(err, store.ErrOrderNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, err
	}

	visible := false
	switch identity.Role {
	case auth.RolePlatformAdmin:
		visible = true
	case auth.RoleBrandAdmin:
		visible = o.HasBrand(identity.BrandID)
	case auth.RoleBuyer:
		visible = o.UserID == identity.UserID
	}
	if !visible {
		return nil, apperr.NotFound("order not found")
	}
	return o, nil
}

// Helper functions

func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	respond.Error(w, err)
}

// decodeJSON reads exactly one JSON object and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid request body").WithDetails(map[string]any{"cause": err.Error()})
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("request body must contain a single JSON object")
	}
	return nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
