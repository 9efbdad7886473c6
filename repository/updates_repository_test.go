package repository

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/hakikicode/SmartDesign/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAssignsGapFreeIncreasingIDs(t *testing.T) {
	repo := NewUpdatesRepository()
	for i := 1; i <= 50; i++ {
		u, err := repo.Append(fmt.Sprintf("msg %d", i), models.OriginExternal, "", "")
		require.NoError(t, err)
		assert.Equal(t, int64(i), u.ID)
		assert.Equal(t, models.KindUpdate, u.Kind)
	}
	assert.Equal(t, 50, repo.Len())
	assert.Equal(t, int64(50), repo.LastID())
}

func TestAppendStampsClock(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := NewUpdatesRepository().WithClock(func() time.Time { return at })
	u, err := repo.Append("hello", models.OriginExternal, models.KindComment, "c-1")
	require.NoError(t, err)
	assert.Equal(t, at, u.CreatedAt)
	assert.Equal(t, "c-1", u.CorrelationID)
	assert.Equal(t, models.KindComment, u.Kind)
}

func TestConcurrentAppendsStayGapFree(t *testing.T) {
	repo := NewUpdatesRepository()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := repo.Append("x", models.OriginExternal, "", "")
				assert.NoError(t, err)
				_ = repo.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := repo.Snapshot()
	require.Len(t, snap, 800)
	for i, u := range snap {
		assert.Equal(t, int64(i+1), u.ID)
	}
}

func TestSnapshotIsIdempotentAndDetached(t *testing.T) {
	repo := NewUpdatesRepository()
	_, _ = repo.Append("a", models.OriginExternal, "", "")
	_, _ = repo.Append("b", models.OriginExternal, "", "")

	first := repo.Snapshot()
	second := repo.Snapshot()
	assert.Equal(t, first, second)

	first[0].Message = "mutated"
	assert.Equal(t, "a", repo.Snapshot()[0].Message)
}

func TestSinceReturnsSuffix(t *testing.T) {
	repo := NewUpdatesRepository()
	for i := 0; i < 5; i++ {
		_, _ = repo.Append(fmt.Sprint(i), models.OriginExternal, "", "")
	}
	full := repo.Snapshot()
	for k := int64(-1); k <= 6; k++ {
		var want []models.Update
		for _, u := range full {
			if u.ID > k {
				want = append(want, u)
			}
		}
		got := repo.Since(k)
		if want == nil {
			assert.Empty(t, got, "since=%d", k)
			continue
		}
		assert.Equal(t, want, got, "since=%d", k)
	}
}

func TestSnapshotOfEmptyLogIsEmptySlice(t *testing.T) {
	repo := NewUpdatesRepository()
	snap := repo.Snapshot()
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestAppendFailsWhenSequenceExhausted(t *testing.T) {
	repo := NewUpdatesRepository()
	repo.lastID = math.MaxInt64 - 1
	u, err := repo.Append("last", models.OriginExternal, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), u.ID)

	_, err = repo.Append("overflow", models.OriginExternal, "", "")
	assert.ErrorIs(t, err, ErrSequenceExhausted)
	assert.Equal(t, 1, repo.Len())
}
