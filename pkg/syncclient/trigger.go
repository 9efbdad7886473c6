package syncclient

import (
	"log/slog"
	"sort"

	"github.com/hakikicode/SmartDesign/models"
	"github.com/hakikicode/SmartDesign/pkg/metrics"
)

// Notification is fired once for every newly observed confirmed update.
type Notification struct {
	Update models.Update
	// Own is set when the update confirms a placeholder created by this client.
	Own bool
}

// Notifier receives notifications synchronously from inside a tick.
// Implementations must not block and must not call back into the Loop.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes one structured log line per notification.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("new collaboration update",
		"id", n.Update.ID,
		"kind", n.Update.Kind,
		"own", n.Own,
		"message", n.Update.Message,
	)
}

// Trigger decides which records are new relative to a watermark and fires one notification for each.
type Trigger struct {
	notifier Notifier
	isOwn    func(correlationID string) bool
}

func NewTrigger(n Notifier) *Trigger {
	return &Trigger{notifier: n}
}

// Fire notifies, in ascending id order, every confirmed record in view with id > previous
// and returns the advanced watermark. Placeholders never fire and never move the watermark.
func (t *Trigger) Fire(view []models.Update, previous int64) (watermark int64, fired int) {
	fresh := NewSince(view, previous)
	watermark = previous
	for _, u := range fresh {
		if t.notifier != nil {
			own := t.isOwn != nil && t.isOwn(u.CorrelationID)
			t.notifier.Notify(Notification{Update: u, Own: own})
		}
		metrics.NotificationsTotal.Inc()
		watermark = u.ID
	}
	return watermark, len(fresh)
}

// NewSince returns the confirmed records with id > watermark, sorted by id.
func NewSince(view []models.Update, watermark int64) []models.Update {
	var fresh []models.Update
	for _, u := range view {
		if !u.IsPlaceholder() && u.ID > watermark {
			fresh = append(fresh, u)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].ID < fresh[j].ID })
	return fresh
}
