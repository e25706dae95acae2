package gpu

// DefaultBarrierBatch is the number of barriers queued before a flush is
// forced.
const DefaultBarrierBatch = 16

// StateTracker batches resource barriers for the command list currently
// being recorded. Barriers reach the list only in FlushResourceBarriers.
//
// CommandList.ResourceBarrier implementations must not retain the slice they
// are handed; the tracker reuses it.
type StateTracker struct {
	list    CommandList
	pending []Barrier

	emitted uint64
	flushes uint64
}

// NewStateTracker returns a tracker that flushes every capacity barriers.
// A capacity below 1 selects DefaultBarrierBatch.
func NewStateTracker(capacity int) *StateTracker {
	if capacity < 1 {
		capacity = DefaultBarrierBatch
	}
	return &StateTracker{pending: make([]Barrier, 0, capacity)}
}

// Bind attaches the tracker to list. Pending barriers are kept, so callers
// flush before switching lists.
func (t *StateTracker) Bind(list CommandList) { t.list = list }

// Capacity returns the batch size.
func (t *StateTracker) Capacity() int { return cap(t.pending) }

// Pending returns the number of queued, unflushed barriers.
func (t *StateTracker) Pending() int { return len(t.pending) }

// Emitted returns the total number of barriers queued since creation.
func (t *StateTracker) Emitted() uint64 { return t.emitted }

// Flushes returns the number of ResourceBarrier calls made.
func (t *StateTracker) Flushes() uint64 { return t.flushes }

// TransitionResource moves r to state. Nothing is queued when r is already
// there, except that unordered-access always gets a UAV barrier. When r has a
// split barrier outstanding towards state, the end half is queued instead of
// a full transition.
func (t *StateTracker) TransitionResource(r *Resource, state ResourceState, flushImmediate bool) {
	if r.transitioning != StateInvalid && r.transitioning != state {
		t.endSplit(r)
	}
	old := r.current
	switch {
	case old != state:
		flags := BarrierFlagNone
		if r.transitioning == state {
			flags = BarrierFlagEndOnly
			r.transitioning = StateInvalid
		}
		t.push(Barrier{
			Kind:     BarrierTransition,
			Flags:    flags,
			Resource: r.native,
			Before:   old,
			After:    state,
		})
		r.current = state
		if old == StateUnorderedAccess || state == StateUnorderedAccess {
			t.push(Barrier{Kind: BarrierUAV, Resource: r.native})
		}
	case state == StateUnorderedAccess:
		t.push(Barrier{Kind: BarrierUAV, Resource: r.native})
	}
	if flushImmediate {
		t.FlushResourceBarriers()
	}
}

// BeginResourceTransition queues the begin half of a split barrier towards
// state. If r is already transitioning to state, the end half is queued and
// the split is resolved.
func (t *StateTracker) BeginResourceTransition(r *Resource, state ResourceState, flushImmediate bool) {
	switch {
	case r.transitioning == state:
		t.endSplit(r)
	case r.transitioning != StateInvalid:
		t.endSplit(r)
		fallthrough
	default:
		if r.current != state {
			t.push(Barrier{
				Kind:     BarrierTransition,
				Flags:    BarrierFlagBeginOnly,
				Resource: r.native,
				Before:   r.current,
				After:    state,
			})
			r.transitioning = state
		}
	}
	if flushImmediate {
		t.FlushResourceBarriers()
	}
}

// InsertUAVBarrier orders unordered-access reads and writes of r.
func (t *StateTracker) InsertUAVBarrier(r *Resource, flushImmediate bool) {
	t.push(Barrier{Kind: BarrierUAV, Resource: r.native})
	if flushImmediate {
		t.FlushResourceBarriers()
	}
}

// FlushResourceBarriers hands every queued barrier to the bound list in one
// call. It panics with ErrNoCommandList when barriers are pending and no
// list is bound.
func (t *StateTracker) FlushResourceBarriers() {
	if len(t.pending) == 0 {
		return
	}
	if t.list == nil {
		panic(ErrNoCommandList)
	}
	t.list.ResourceBarrier(t.pending)
	clear(t.pending)
	t.pending = t.pending[:0]
	t.flushes++
}

func (t *StateTracker) endSplit(r *Resource) {
	t.push(Barrier{
		Kind:     BarrierTransition,
		Flags:    BarrierFlagEndOnly,
		Resource: r.native,
		Before:   r.current,
		After:    r.transitioning,
	})
	r.current = r.transitioning
	r.transitioning = StateInvalid
}

func (t *StateTracker) push(b Barrier) {
	if len(t.pending) == cap(t.pending) {
		t.FlushResourceBarriers()
	}
	t.pending = append(t.pending, b)
	t.emitted++
}
