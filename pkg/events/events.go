package events

// Type values carried in the "type" field of pushed events.
const (
	TypeUpdateAppended = "update.appended"
)

// UpdateAppended is pushed to websocket subscribers after the store accepts an update.
// It is a hint only: subscribers fetch the record itself through GET /updates.
type UpdateAppended struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

func NewUpdateAppended(id int64) UpdateAppended {
	return UpdateAppended{Type: TypeUpdateAppended, ID: id}
}
