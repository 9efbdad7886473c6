package types

import (
	"time"

	"github.com/hakikicode/SmartDesign/models"
)

// IngestRequest is the body accepted by POST /updates and POST /webhook.
// Unknown fields are ignored so webhook producers can send their full payload.
type IngestRequest struct {
	Message       *string `json:"message" binding:"required"`
	Kind          string  `json:"kind" binding:"omitempty,oneof=comment task update"`
	CorrelationID string  `json:"correlationId" binding:"omitempty,max=128"`
}

// IngestResponse acknowledges an appended update.
type IngestResponse struct {
	ID            int64  `json:"id"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// UpdateItem is one element of the GET /updates array.
type UpdateItem struct {
	ID            int64     `json:"id"`
	Message       string    `json:"message"`
	Origin        string    `json:"origin"`
	Kind          string    `json:"kind"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewUpdateItem(u models.Update) UpdateItem {
	return UpdateItem{
		ID:            u.ID,
		Message:       u.Message,
		Origin:        string(u.Origin),
		Kind:          string(u.Kind),
		CorrelationID: u.CorrelationID,
		CreatedAt:     u.CreatedAt,
	}
}

// ToModel converts a wire item back into the domain record.
func (i UpdateItem) ToModel() models.Update {
	return models.Update{
		ID:            i.ID,
		Message:       i.Message,
		Origin:        models.Origin(i.Origin),
		Kind:          models.Kind(i.Kind),
		CorrelationID: i.CorrelationID,
		CreatedAt:     i.CreatedAt,
	}
}
