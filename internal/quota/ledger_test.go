package quota

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryReserveWithinLimit(t *testing.T) {
	l := NewLedger(map[string]Limit{
		"script": {Limit: 10, Window: time.Hour},
	})

	require.True(t, l.TryReserve("script", 4))
	require.True(t, l.TryReserve("script", 6))
	assert.False(t, l.TryReserve("script", 1), "reservation past the limit must fail")

	u := l.Usage("script")
	assert.Equal(t, int64(10), u.Used)
	assert.Equal(t, int64(10), u.Limit)
}

func TestTryReserveRejectsWithoutPartialCommit(t *testing.T) {
	l := NewLedger(map[string]Limit{
		"image": {Limit: 5, Window: time.Hour},
	})

	require.True(t, l.TryReserve("image", 3))
	require.False(t, l.TryReserve("image", 3))

	u := l.Usage("image")
	assert.Equal(t, int64(3), u.Used, "failed reservation must not consume anything")
}

func TestUnlimitedClass(t *testing.T) {
	l := NewLedger(nil)

	for i := 0; i < 1000; i++ {
		require.True(t, l.TryReserve("speech", 1))
	}
	assert.Equal(t, int64(1000), l.Usage("speech").Used)
}

func TestRelease(t *testing.T) {
	l := NewLedger(map[string]Limit{
		"video": {Limit: 2, Window: time.Hour},
	})

	require.True(t, l.TryReserve("video", 2))
	require.False(t, l.TryReserve("video", 1))

	l.Release("video", 1)
	assert.True(t, l.TryReserve("video", 1), "released capacity should be reservable again")

	// Releasing more than reserved clamps at zero.
	l.Release("video", 100)
	assert.Equal(t, int64(0), l.Usage("video").Used)
}

func TestWindowReset(t *testing.T) {
	l := NewLedger(map[string]Limit{
		"script": {Limit: 1, Window: time.Minute},
	})
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	require.True(t, l.TryReserve("script", 1))
	require.False(t, l.TryReserve("script", 1))

	now = now.Add(time.Minute)
	assert.True(t, l.TryReserve("script", 1), "usage should reset after the window elapses")
	assert.Equal(t, int64(1), l.Usage("script").Used)
}

func TestConcurrentReservationsNeverExceedLimit(t *testing.T) {
	const limit = 100
	l := NewLedger(map[string]Limit{
		"script": {Limit: limit, Window: time.Hour},
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if l.TryReserve("script", 1) {
					mu.Lock()
					granted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, granted, "exactly limit reservations should succeed")
	assert.Equal(t, int64(limit), l.Usage("script").Used)
}

func TestSnapshot(t *testing.T) {
	l := NewLedger(map[string]Limit{
		"script": {Limit: 10, Window: time.Hour},
		"video":  {Limit: 5, Window: time.Hour},
	})
	require.True(t, l.TryReserve("script", 2))

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, int64(2), snap["script"].Used)
	assert.Equal(t, int64(0), snap["video"].Used)
	assert.Equal(t, int64(5), snap["video"].Limit)
}
