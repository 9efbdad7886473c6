package models

import "time"

// Origin tells where an update was produced.
type Origin string

const (
	OriginExternal Origin = "external"
	OriginLocal    Origin = "local"
)

// Kind distinguishes comments from task assignments. Producers that send neither get KindUpdate.
type Kind string

const (
	KindComment Kind = "comment"
	KindTask    Kind = "task"
	KindUpdate  Kind = "update"
)

// Update is one immutable collaboration event in the log.
// Confirmed updates have positive ids assigned by the store; local placeholders use negative ids.
type Update struct {
	ID            int64     `json:"id"`
	Message       string    `json:"message"`
	Origin        Origin    `json:"origin"`
	Kind          Kind      `json:"kind"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IsPlaceholder reports whether the update is a local record not yet confirmed by the server.
func (u Update) IsPlaceholder() bool {
	return u.ID <= 0
}
