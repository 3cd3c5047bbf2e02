package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewEntry(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	meta := map[string]any{"newStatus": "SHIPPED"}

	e := NewEntry("admin-1", "ADMIN", ActionOrderStatusChanged, EntityOrder, "order-1", meta,
		Origin{IPAddress: "10.0.0.1", UserAgent: "curl/8"}, now)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "admin-1", e.ActorID)
	assert.Equal(t, "ADMIN", e.ActorRole)
	assert.Equal(t, ActionOrderStatusChanged, e.Action)
	assert.Equal(t, EntityOrder, e.EntityType)
	assert.Equal(t, "order-1", e.EntityID)
	assert.Equal(t, meta, e.Metadata)
	assert.Equal(t, "10.0.0.1", e.IPAddress)
	assert.Equal(t, "curl/8", e.UserAgent)
	assert.Equal(t, now, e.CreatedAt)

	other := NewEntry("admin-1", "ADMIN", ActionOrderStatusChanged, EntityOrder, "order-1", nil, Origin{}, now)
	assert.NotEqual(t, e.ID, other.ID)
}
