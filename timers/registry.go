package timers

// bucket is a native timer handle paired with the intrusive list of items
// sharing its duration (§3's Bucket record, §4.C).
type bucket struct {
	msecs   int64
	unrefed bool
	items   *itemList
	handle  NativeTimer
}

func newBucket(msecs int64, unrefed bool, handle NativeTimer) *bucket {
	return &bucket{msecs: msecs, unrefed: unrefed, items: newItemList(), handle: handle}
}

// bucketRegistry owns the two duration->bucket maps of §3: refed buckets
// keep the process alive, unrefed buckets do not, and membership in the two
// is disjoint.
type bucketRegistry struct {
	refed   map[int64]*bucket
	unrefed map[int64]*bucket
}

func newBucketRegistry() *bucketRegistry {
	return &bucketRegistry{refed: make(map[int64]*bucket), unrefed: make(map[int64]*bucket)}
}

func (r *bucketRegistry) selectMap(unrefed bool) map[int64]*bucket {
	if unrefed {
		return r.unrefed
	}
	return r.refed
}

// getOrCreate returns the existing bucket for msecs in the selected
// registry, or allocates and arms a new one (§4.C.1).
func (r *bucketRegistry) getOrCreate(s *Scheduler, msecs int64, unrefed bool) *bucket {
	m := r.selectMap(unrefed)
	if b, ok := m[msecs]; ok {
		return b
	}

	handle := s.newNativeTimer()
	if unrefed {
		handle.Unref()
	} else {
		handle.Ref()
	}
	b := newBucket(msecs, unrefed, handle)
	handle.Arm(msecs, func() { s.onFire(b) })
	m[msecs] = b
	s.metrics.armedTimers.WithLabelValues(livenessLabel(unrefed)).Inc()
	return b
}

// drop closes and deregisters b. Only called when b's list is empty.
func (r *bucketRegistry) drop(s *Scheduler, b *bucket) {
	m := r.selectMap(b.unrefed)
	if cur, ok := m[b.msecs]; !ok || cur != b {
		return
	}
	b.handle.Close()
	delete(m, b.msecs)
	s.metrics.armedTimers.WithLabelValues(livenessLabel(b.unrefed)).Dec()
}

func livenessLabel(unrefed bool) string {
	if unrefed {
		return "unrefed"
	}
	return "refed"
}
