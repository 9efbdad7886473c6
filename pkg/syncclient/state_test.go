package syncclient

import (
	"testing"
	"time"

	"github.com/hakikicode/SmartDesign/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func remote(id int64, msg, corr string) models.Update {
	return models.Update{ID: id, Message: msg, Origin: models.OriginExternal, Kind: models.KindUpdate, CorrelationID: corr}
}

func TestMergeConfirmsPlaceholderByCorrelationID(t *testing.T) {
	s := newState()
	p := s.addPlaceholder("nice", models.KindComment, "c-1", time.Now())
	assert.Equal(t, int64(-1), p.ID)
	assert.Equal(t, models.OriginLocal, p.Origin)

	// same text, different correlation id: not a confirmation
	n := s.merge([]models.Update{remote(1, "nice", "")})
	assert.Equal(t, 0, n)
	require.Len(t, s.placeholders, 1)

	n = s.merge([]models.Update{remote(2, "nice", "c-1")})
	assert.Equal(t, 1, n)
	assert.Empty(t, s.placeholders)
	assert.True(t, s.isOwn("c-1"))

	view := s.mergedView()
	require.Len(t, view, 2)
	assert.Equal(t, int64(1), view[0].ID)
	assert.Equal(t, int64(2), view[1].ID)
}

func TestMergeDedupesAndSorts(t *testing.T) {
	s := newState()
	s.merge([]models.Update{remote(3, "c", ""), remote(1, "a", "")})
	s.merge([]models.Update{remote(1, "a", ""), remote(2, "b", ""), remote(0, "bogus", "")})
	view := s.mergedView()
	require.Len(t, view, 3)
	for i, u := range view {
		assert.Equal(t, int64(i+1), u.ID)
	}
	assert.Equal(t, int64(3), s.maxConfirmedID())
}

func TestMergedViewPutsPlaceholdersLast(t *testing.T) {
	s := newState()
	s.addPlaceholder("first", models.KindComment, "a", time.Now())
	s.addPlaceholder("second", models.KindTask, "b", time.Now())
	s.merge([]models.Update{remote(7, "x", "")})

	view := s.mergedView()
	require.Len(t, view, 3)
	assert.Equal(t, int64(7), view[0].ID)
	assert.Equal(t, int64(-1), view[1].ID)
	assert.Equal(t, int64(-2), view[2].ID)
}
