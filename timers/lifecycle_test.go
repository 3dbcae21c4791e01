package timers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) (*Scheduler, *mockClock, *[]*mockNativeTimer) {
	t.Helper()
	clock := newMockClock(0)
	var handles []*mockNativeTimer
	var s *Scheduler
	s = NewScheduler(
		WithClock(clock),
		WithNativeTimerFactory(func() NativeTimer {
			return newMockNativeTimerFactory(s.Liveness(), &handles)()
		}),
	)
	return s, clock, &handles
}

func TestEnroll_RejectsNonFiniteOrNegative(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	it := NewInternalItem()

	err := s.Enroll(it, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRangeError)

	err = s.Enroll(it, math.NaN())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRangeError)
}

func TestEnroll_ClampsToTimeoutMax(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	it := NewInternalItem()

	require.NoError(t, s.Enroll(it, float64(DefaultTimeoutMax)+1000))
	assert.Equal(t, DefaultTimeoutMax, it.item.idleTimeout)
}

func TestEnroll_ReenrollUnenrollsFirst(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	it := NewInternalItem()
	it.OnTimeout(func() {})

	require.NoError(t, s.Enroll(it, 10))
	s.Active(it)
	assert.True(t, it.item.linked())

	require.NoError(t, s.Enroll(it, 20))
	assert.False(t, it.item.linked(), "re-enrolling an active item must unenroll it first")
	assert.Equal(t, int64(20), it.item.idleTimeout)
}

func TestActive_NegativeIdleTimeoutIsNoop(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	it := NewInternalItem() // never enrolled, idleTimeout == -1

	s.Active(it)
	assert.False(t, it.item.linked())
}

func TestUnenroll_CollapsesEmptyRefedBucket(t *testing.T) {
	s, _, handles := newTestScheduler(t)
	it := NewInternalItem()
	it.OnTimeout(func() {})
	require.NoError(t, s.Enroll(it, 10))
	s.Active(it)

	require.Len(t, *handles, 1)
	s.Unenroll(it)

	assert.False(t, it.item.linked())
	assert.Equal(t, int64(-1), it.item.idleTimeout)
	assert.True(t, (*handles)[0].closed, "dropping the last item in a refed bucket must close its handle")
}

func TestUnenroll_LeavesUnrefedBucketForDrainToCollapse(t *testing.T) {
	s, _, handles := newTestScheduler(t)
	it := NewInternalItem()
	it.OnTimeout(func() {})
	require.NoError(t, s.Enroll(it, 10))
	s.UnrefActive(it)

	s.Unenroll(it)

	assert.False(t, (*handles)[0].closed, "unref'd bucket cleanup is left for the next onFire drain, not unenroll")
}
