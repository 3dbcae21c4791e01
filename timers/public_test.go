package timers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTimeout_ClampsNonPositiveAndOversizedDelay(t *testing.T) {
	assert.Equal(t, int64(1), clampDelay(0, 1000))
	assert.Equal(t, int64(1), clampDelay(-5, 1000))
	assert.Equal(t, int64(1), clampDelay(1001, 1000))
	assert.Equal(t, int64(500), clampDelay(500, 1000))
}

func TestSetTimeout_RejectsNilCallback(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	_, err := s.SetTimeout(nil, time.Second, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeError)
}

// TestTimeout_UnrefMigratesOffSharedBucket is scenario S6: unref'ing a
// pending timer removes it from the shared refed bucket and arms a private
// unrefed handle instead, firing normally once the delay elapses.
func TestTimeout_UnrefMigratesOffSharedBucket(t *testing.T) {
	s, clock, handles := newTestScheduler(t)
	fired := false

	tm, err := s.SetTimeout(func() { fired = true }, 100*time.Millisecond, nil)
	require.NoError(t, err)

	s.mu.Lock()
	_, refedExists := s.registry.refed[100]
	s.mu.Unlock()
	require.True(t, refedExists)

	tm.Unref()

	s.mu.Lock()
	_, refedExists = s.registry.refed[100]
	unrefedCount := len(s.registry.unrefed)
	s.mu.Unlock()
	assert.False(t, refedExists, "the shared refed bucket must be gone once its only item migrates off")
	assert.Equal(t, 0, unrefedCount, "Unref migrates onto a private handle, not the shared unrefed bucket")

	require.NotNil(t, tm.it.handle)
	clock.Advance(100)
	tm.it.handle.(*mockNativeTimer).Fire()

	assert.True(t, fired)
	_ = handles
}

func TestTimeout_RefMovesPrivateHandleBackToSharedBucket(t *testing.T) {
	s, clock, handles := newTestScheduler(t)
	fired := false

	tm, err := s.SetTimeout(func() { fired = true }, 100*time.Millisecond, nil)
	require.NoError(t, err)
	tm.Unref()
	require.NotNil(t, tm.it.handle)

	tm.Ref()
	assert.Nil(t, tm.it.handle, "Ref closes the private handle and reinstalls the item on the shared bucket")

	s.mu.Lock()
	_, refedExists := s.registry.refed[100]
	s.mu.Unlock()
	assert.True(t, refedExists)

	clock.Advance(100)
	fireBucketFor(s, handles, 100)
	assert.True(t, fired)
}

func TestTimeout_CloseIsIdempotentAndSafeAfterFire(t *testing.T) {
	s, clock, handles := newTestScheduler(t)
	calls := 0

	tm, err := s.SetTimeout(func() { calls++ }, 10*time.Millisecond, nil)
	require.NoError(t, err)

	clock.Advance(10)
	fireBucketFor(s, handles, 10)
	assert.Equal(t, 1, calls)

	tm.Close()
	tm.Close()
	s.ClearTimeout(tm)
	s.ClearTimeout(nil)
}

func TestSetInterval_RearmsOnPrivateHandleWhenUnrefed(t *testing.T) {
	s, clock, _ := newTestScheduler(t)
	fires := 0

	tm, err := s.SetInterval(func() { fires++ }, 10*time.Millisecond, nil)
	require.NoError(t, err)
	tm.Unref()
	require.NotNil(t, tm.it.handle)

	for i := 0; i < 3; i++ {
		clock.Advance(10)
		tm.it.handle.(*mockNativeTimer).Fire()
	}

	assert.Equal(t, 3, fires)
}
