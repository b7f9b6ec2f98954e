package history

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
)

type changeKey struct {
	writer types.GUID
	seq    types.SequenceNumber
}

// ReaderHistoryCache is the Reader-side store of completed CacheChanges
// plus in-progress fragment reassemblies (spec §4.3). Completed changes
// are keyed by (writer GUID, sequence number) and carry a SampleState the
// application advances from NotRead to Read by taking them.
type ReaderHistoryCache struct {
	qosKind types.HistoryKind
	depth   int

	completed map[changeKey]*CacheChange
	order     []changeKey // insertion order, oldest first

	inProgress map[changeKey]*FragmentedCacheChange
}

// NewReaderHistoryCache builds an empty cache governed by the given
// HistoryQos.
func NewReaderHistoryCache(qos types.HistoryQos) *ReaderHistoryCache {
	return &ReaderHistoryCache{
		qosKind:    qos.Kind,
		depth:      qos.Depth,
		completed:  make(map[changeKey]*CacheChange),
		inProgress: make(map[changeKey]*FragmentedCacheChange),
	}
}

// Transfer inserts a fully-received (unfragmented) change, marking it
// NotRead (spec §4.3 transfer).
func (r *ReaderHistoryCache) Transfer(c CacheChange) {
	c.SampleState = SampleStateNotRead
	k := changeKey{writer: c.WriterGUID, seq: c.SequenceNumber}
	if _, exists := r.completed[k]; exists {
		return
	}
	r.completed[k] = &c
	r.order = append(r.order, k)
	r.evictIfNeeded(c.WriterGUID)
}

func (r *ReaderHistoryCache) evictIfNeeded(writer types.GUID) {
	if r.qosKind != types.HistoryKeepLast || r.depth <= 0 {
		return
	}
	var perWriter []changeKey
	for _, k := range r.order {
		if k.writer == writer {
			perWriter = append(perWriter, k)
		}
	}
	for len(perWriter) > r.depth {
		evict := perWriter[0]
		perWriter = perWriter[1:]
		delete(r.completed, evict)
		r.removeFromOrder(evict)
	}
}

func (r *ReaderHistoryCache) removeFromOrder(k changeKey) {
	for i, o := range r.order {
		if o == k {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// HasChange reports whether a completed change for (writer, seq) is
// already present, used by the Reader engine to detect and silently drop
// duplicate DATA delivery (spec §4.7 edge case).
func (r *ReaderHistoryCache) HasChange(writer types.GUID, seq types.SequenceNumber) bool {
	_, ok := r.completed[changeKey{writer: writer, seq: seq}]
	return ok
}

// TakeChange marks the change at (writer, seq) Read and returns it. The
// second return is false if no such change exists.
func (r *ReaderHistoryCache) TakeChange(writer types.GUID, seq types.SequenceNumber) (CacheChange, bool) {
	k := changeKey{writer: writer, seq: seq}
	c, ok := r.completed[k]
	if !ok {
		return CacheChange{}, false
	}
	c.SampleState = SampleStateRead
	return *c, true
}

// TakeNextChange returns and marks Read the oldest NotRead change across
// all writers (spec SUPPLEMENTED FEATURES: take_next_change), or false if
// none is pending.
func (r *ReaderHistoryCache) TakeNextChange() (CacheChange, bool) {
	for _, k := range r.order {
		c := r.completed[k]
		if c.SampleState == SampleStateNotRead {
			c.SampleState = SampleStateRead
			return *c, true
		}
	}
	return CacheChange{}, false
}

// GetFirstAvailableChange returns the oldest NotRead change without
// marking it Read.
func (r *ReaderHistoryCache) GetFirstAvailableChange() (CacheChange, bool) {
	for _, k := range r.order {
		c := r.completed[k]
		if c.SampleState == SampleStateNotRead {
			return *c, true
		}
	}
	return CacheChange{}, false
}

// TakeNotReadChanges returns and marks Read every currently NotRead
// change, oldest first.
func (r *ReaderHistoryCache) TakeNotReadChanges() []CacheChange {
	var out []CacheChange
	for _, k := range r.order {
		c := r.completed[k]
		if c.SampleState == SampleStateNotRead {
			c.SampleState = SampleStateRead
			out = append(out, *c)
		}
	}
	return out
}

// PushFragment routes an arriving fragment of (writer, seq) into its
// in-progress reassembly, creating one on first arrival, and returns the
// reassembled CacheChange once complete (spec §4.3 push_fragmented_change
// / reassembly).
func (r *ReaderHistoryCache) PushFragment(writer types.GUID, seq types.SequenceNumber, kind types.ChangeKind, instance types.InstanceHandle, sampleSize, fragmentSize uint32, emission types.Timestamp, fragmentIdx uint32, data []byte, reception types.Timestamp) (CacheChange, bool) {
	k := changeKey{writer: writer, seq: seq}
	f, ok := r.inProgress[k]
	if !ok {
		f = NewFragmentedCacheChange(kind, writer, instance, seq, sampleSize, fragmentSize, emission)
		r.inProgress[k] = f
	}
	f.InsertFragment(fragmentIdx, data)
	if !f.IsComplete() {
		return CacheChange{}, false
	}
	delete(r.inProgress, k)
	c := f.ToCacheChange(reception)
	r.Transfer(c)
	return c, true
}

// GetFragmentedChange returns the in-progress reassembly for (writer, seq),
// if any. The pointer is the stored reassembly itself, not a copy.
func (r *ReaderHistoryCache) GetFragmentedChange(writer types.GUID, seq types.SequenceNumber) (*FragmentedCacheChange, bool) {
	f, ok := r.inProgress[changeKey{writer: writer, seq: seq}]
	return f, ok
}

// RemoveFragmentedChange discards an in-progress reassembly, e.g. when a
// GAP or newer HEARTBEAT indicates it will never complete (spec §4.3
// remove_fragmented_change).
func (r *ReaderHistoryCache) RemoveFragmentedChange(writer types.GUID, seq types.SequenceNumber) {
	delete(r.inProgress, changeKey{writer: writer, seq: seq})
}

// InProgressSequences returns the sequence numbers of every reassembly
// still in progress for writer, used by the Reader engine's tick to decide
// which sequences need a NACK_FRAG alongside the ACKNACK.
func (r *ReaderHistoryCache) InProgressSequences(writer types.GUID) []types.SequenceNumber {
	var out []types.SequenceNumber
	for k := range r.inProgress {
		if k.writer == writer {
			out = append(out, k.seq)
		}
	}
	return out
}
