package syncclient

import (
	"testing"

	"github.com/hakikicode/SmartDesign/models"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	got []Notification
}

func (r *recorder) Notify(n Notification) { r.got = append(r.got, n) }

func (r *recorder) ids() []int64 {
	out := make([]int64, 0, len(r.got))
	for _, n := range r.got {
		out = append(out, n.Update.ID)
	}
	return out
}

func TestTriggerFiresOncePerNewRecordInOrder(t *testing.T) {
	rec := &recorder{}
	tr := NewTrigger(rec)
	view := []models.Update{remote(3, "c", ""), remote(1, "a", ""), remote(2, "b", "")}

	w, fired := tr.Fire(view, 1)
	assert.Equal(t, int64(3), w)
	assert.Equal(t, 2, fired)
	assert.Equal(t, []int64{2, 3}, rec.ids())

	w, fired = tr.Fire(view, w)
	assert.Equal(t, int64(3), w)
	assert.Zero(t, fired)
	assert.Len(t, rec.got, 2)
}

func TestTriggerIgnoresPlaceholdersAndEmptyViews(t *testing.T) {
	rec := &recorder{}
	tr := NewTrigger(rec)

	w, fired := tr.Fire(nil, 4)
	assert.Equal(t, int64(4), w)
	assert.Zero(t, fired)

	view := []models.Update{{ID: -1, Message: "pending", Origin: models.OriginLocal}}
	w, fired = tr.Fire(view, 4)
	assert.Equal(t, int64(4), w)
	assert.Zero(t, fired)
	assert.Empty(t, rec.got)
}

func TestTriggerMarksOwnUpdates(t *testing.T) {
	rec := &recorder{}
	tr := NewTrigger(rec)
	tr.isOwn = func(id string) bool { return id == "mine" }

	tr.Fire([]models.Update{remote(1, "x", "mine"), remote(2, "y", "theirs")}, 0)
	assert.True(t, rec.got[0].Own)
	assert.False(t, rec.got[1].Own)
}

func TestNewSince(t *testing.T) {
	view := []models.Update{remote(1, "a", ""), remote(2, "b", ""), {ID: -1}}
	assert.Len(t, NewSince(view, 0), 2)
	assert.Len(t, NewSince(view, 1), 1)
	assert.Empty(t, NewSince(view, 2))
}
