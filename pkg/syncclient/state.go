package syncclient

import (
	"sort"
	"time"

	"github.com/hakikicode/SmartDesign/models"
)

// state is the loop-owned SyncState. It is only touched with Loop.mu held.
type state struct {
	lastSeenID int64
	// confirmed holds server records sorted by id.
	confirmed []models.Update
	// placeholders holds unconfirmed local records in creation order.
	placeholders []models.Update
	// own holds the correlation ids this client issued.
	own             map[string]struct{}
	nextPlaceholder int64
}

func newState() state {
	return state{own: make(map[string]struct{}), nextPlaceholder: -1}
}

// addPlaceholder records an optimistic local update and returns it.
func (s *state) addPlaceholder(message string, kind models.Kind, correlationID string, now time.Time) models.Update {
	u := models.Update{
		ID:            s.nextPlaceholder,
		Message:       message,
		Origin:        models.OriginLocal,
		Kind:          kind,
		CorrelationID: correlationID,
		CreatedAt:     now.UTC(),
	}
	s.nextPlaceholder--
	s.placeholders = append(s.placeholders, u)
	if correlationID != "" {
		s.own[correlationID] = struct{}{}
	}
	return u
}

// merge folds remote records into the confirmed list. A remote record whose correlation id
// matches a placeholder confirms it and the placeholder is dropped. Records already present
// are ignored, so overlapping fetches are harmless. It returns the number of placeholders confirmed.
func (s *state) merge(remote []models.Update) int {
	if len(remote) == 0 {
		return 0
	}
	known := make(map[int64]struct{}, len(s.confirmed))
	for _, u := range s.confirmed {
		known[u.ID] = struct{}{}
	}

	confirmedPlaceholders := 0
	for _, r := range remote {
		if r.ID <= 0 {
			continue
		}
		if _, ok := known[r.ID]; ok {
			continue
		}
		known[r.ID] = struct{}{}
		if r.CorrelationID != "" {
			for i, p := range s.placeholders {
				if p.CorrelationID == r.CorrelationID {
					s.placeholders = append(s.placeholders[:i:i], s.placeholders[i+1:]...)
					confirmedPlaceholders++
					break
				}
			}
		}
		s.confirmed = append(s.confirmed, r)
	}
	sort.SliceStable(s.confirmed, func(i, j int) bool { return s.confirmed[i].ID < s.confirmed[j].ID })
	return confirmedPlaceholders
}

// mergedView returns confirmed records by id followed by the optimistic tail.
func (s *state) mergedView() []models.Update {
	out := make([]models.Update, 0, len(s.confirmed)+len(s.placeholders))
	out = append(out, s.confirmed...)
	return append(out, s.placeholders...)
}

// maxConfirmedID is the highest server-assigned id held, or 0.
func (s *state) maxConfirmedID() int64 {
	if len(s.confirmed) == 0 {
		return 0
	}
	return s.confirmed[len(s.confirmed)-1].ID
}

func (s *state) isOwn(correlationID string) bool {
	if correlationID == "" {
		return false
	}
	_, ok := s.own[correlationID]
	return ok
}
