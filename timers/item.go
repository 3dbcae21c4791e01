package timers

import (
	"container/list"

	"github.com/google/uuid"
)

// item is the shared schedulable capability behind both the public Timeout
// and the bare InternalItem embedders get from enroll/active/unenroll. It
// mirrors the data model of §3: an idleTimeout duration, the idleStart
// activation stamp, the onTimeout/repeat closures, the called flag, and the
// bucket/list-element pair that records current list membership.
type item struct {
	idleTimeout  int64 // milliseconds; -1 means inactive/unenrolled
	idleStart    int64 // milliseconds; only meaningful when idleStartSet
	idleStartSet bool
	onTimeout    func()
	repeat       func()
	called       bool
	domain       Domain

	bucket *bucket
	elem   *list.Element

	// handle is set only for unref'd one-shots migrated off a shared bucket.
	handle NativeTimer

	id string
}

func newItem() *item {
	return &item{idleTimeout: -1, id: uuid.New().String()}
}

// linked reports whether the item currently sits in a bucket's list.
func (it *item) linked() bool {
	return it.bucket != nil
}

// InternalItem is the low-level adoption protocol surface (§6): an embedder
// owns a plain record reused as a timer item via enroll/active/unenroll.
type InternalItem struct {
	*item
}

// NewInternalItem returns a fresh, unenrolled item for the enroll/active/unenroll protocol.
func NewInternalItem() *InternalItem {
	return &InternalItem{item: newItem()}
}

// OnTimeout sets the callback invoked when this item fires.
func (i *InternalItem) OnTimeout(fn func()) {
	i.onTimeout = fn
}

// ID returns this item's debug correlation id.
func (i *InternalItem) ID() string {
	return i.id
}

// Immediate is a callback scheduled for the next event-loop turn, bypassing
// duration buckets entirely (§3's Immediate queue).
type Immediate struct {
	onImmediate func()
	domain      Domain
	elem        *list.Element
	id          string
	cleared     bool
}

func newImmediateID() string {
	return uuid.New().String()
}
