// Package audit models the append-only audit trail.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action tags.
const (
	ActionOrderStatusChanged        = "ORDER_STATUS_CHANGED"
	ActionInventoryRestoredOnCancel = "INVENTORY_RESTORED_ON_CANCEL"
)

// Entity types.
const (
	EntityOrder   = "ORDER"
	EntityProduct = "PRODUCT"
)

// MetaOrderID is the metadata key linking a non-order entry to the order
// that caused it.
const MetaOrderID = "orderId"

type Entry struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actorId"`
	ActorRole  string         `json:"actorRole"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Metadata   map[string]any `json:"metadata"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Origin identifies where a request came from.
type Origin struct {
	IPAddress string
	UserAgent string
}

// NewEntry stamps a new entry with an id and creation time.
func NewEntry(actorID, actorRole, action, entityType, entityID string, metadata map[string]any, origin Origin, now time.Time) Entry {
	return Entry{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		ActorRole:  actorRole,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
		IPAddress:  origin.IPAddress,
		UserAgent:  origin.UserAgent,
		CreatedAt:  now,
	}
}
