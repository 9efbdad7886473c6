package repository

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hakikicode/SmartDesign/models"
	"github.com/hakikicode/SmartDesign/pkg/metrics"
)

// ErrSequenceExhausted is returned once the id space is used up. Callers treat it as fatal.
var ErrSequenceExhausted = errors.New("update sequence exhausted")

// UpdatesRepository is the append-only, in-memory update log.
// Appends are serialized by mu; readers get copies of a consistent prefix.
type UpdatesRepository struct {
	mu      sync.RWMutex
	updates []models.Update
	lastID  int64
	now     func() time.Time
}

func NewUpdatesRepository() *UpdatesRepository {
	return &UpdatesRepository{now: time.Now}
}

// WithClock replaces the timestamp source. Intended for tests.
func (r *UpdatesRepository) WithClock(now func() time.Time) *UpdatesRepository {
	r.now = now
	return r
}

// Append assigns the next sequence id and adds the update to the end of the log.
func (r *UpdatesRepository) Append(message string, origin models.Origin, kind models.Kind, correlationID string) (models.Update, error) {
	if kind == "" {
		kind = models.KindUpdate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastID == math.MaxInt64 {
		return models.Update{}, ErrSequenceExhausted
	}
	r.lastID++
	u := models.Update{
		ID:            r.lastID,
		Message:       message,
		Origin:        origin,
		Kind:          kind,
		CorrelationID: correlationID,
		CreatedAt:     r.now().UTC(),
	}
	r.updates = append(r.updates, u)
	metrics.LogSize.Set(float64(len(r.updates)))
	return u, nil
}

// Snapshot returns a copy of the full log in insertion order.
func (r *UpdatesRepository) Snapshot() []models.Update {
	return r.Since(0)
}

// Since returns the updates with id greater than since. A non-positive since returns the full log.
func (r *UpdatesRepository) Since(since int64) []models.Update {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := 0
	if since > 0 {
		// ids are gap-free and start at 1, but search anyway so the log stays the only source of truth
		start = sort.Search(len(r.updates), func(i int) bool { return r.updates[i].ID > since })
	}
	out := make([]models.Update, len(r.updates)-start)
	copy(out, r.updates[start:])
	return out
}

func (r *UpdatesRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.updates)
}

func (r *UpdatesRepository) LastID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastID
}
