package notify

import (
	"encoding/json"
	"log/slog"

	"github.com/hakikicode/SmartDesign/websocket"
)

// Notifier pushes server-side events to connected subscribers.
type Notifier interface {
	Broadcast(event interface{})
}

// WSNotifier implements Notifier using a WebSocket Hub.
type WSNotifier struct {
	Hub *websocket.Hub
}

// Broadcast serializes the event as JSON and queues it for every connected client.
func (n *WSNotifier) Broadcast(event interface{}) {
	if n == nil || n.Hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal notification", "err", err)
		return
	}
	n.Hub.Broadcast(payload)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Broadcast(interface{}) {}
