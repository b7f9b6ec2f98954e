package history

import (
	"sort"

	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// WriterHistoryCache is the ordered store of CacheChange a Writer keeps for
// possible retransmission (spec §4.2). Eviction follows the owning
// endpoint's HistoryQos: KeepLast retains only the Depth most recent
// changes per instance; KeepAll retains everything until the caller
// explicitly removes a change (e.g. once every matched reader has acked
// it).
type WriterHistoryCache struct {
	qosKind types.HistoryKind
	depth   int

	// changes is kept sorted ascending by SequenceNumber; sequence numbers
	// are assigned in strictly increasing order by the Writer so append
	// preserves order without a re-sort.
	changes []CacheChange

	// byInstance counts live (non-evicted) changes per instance, used only
	// to enforce KeepLast depth.
	byInstance map[types.InstanceHandle][]types.SequenceNumber

	nextSeq types.SequenceNumber
}

// NewWriterHistoryCache builds an empty cache governed by the given
// HistoryQos.
func NewWriterHistoryCache(qos types.HistoryQos) *WriterHistoryCache {
	return &WriterHistoryCache{
		qosKind:    qos.Kind,
		depth:      qos.Depth,
		byInstance: make(map[types.InstanceHandle][]types.SequenceNumber),
		nextSeq:    types.SequenceNumberFirst,
	}
}

// NewChange assigns the next SequenceNumber for this Writer without adding
// it to the cache (spec §4.2 new_change: "allocates a sequence number;
// does not itself store the change").
func (w *WriterHistoryCache) NewChange() types.SequenceNumber {
	seq := w.nextSeq
	w.nextSeq = w.nextSeq.Next()
	return seq
}

// AddChange inserts c into the cache, applying KeepLast eviction for its
// instance if configured (spec §4.2 add_change). It rejects a duplicate
// SequenceNumber rather than overwriting the existing entry.
func (w *WriterHistoryCache) AddChange(c CacheChange) error {
	if _, exists := w.GetChange(c.SequenceNumber); exists {
		return rtpserrors.NewSequenceAlreadyPresent("history.add_change", int64(c.SequenceNumber))
	}

	w.changes = append(w.changes, c)
	w.byInstance[c.InstanceHandle] = append(w.byInstance[c.InstanceHandle], c.SequenceNumber)

	if w.qosKind == types.HistoryKeepLast && w.depth > 0 {
		seqs := w.byInstance[c.InstanceHandle]
		for len(seqs) > w.depth {
			evict := seqs[0]
			seqs = seqs[1:]
			w.removeSequence(evict)
		}
		w.byInstance[c.InstanceHandle] = seqs
	}
	return nil
}

// RemoveChange evicts the change with the given SequenceNumber, typically
// once every matched reader proxy has acknowledged it (spec §4.2
// remove_change).
func (w *WriterHistoryCache) RemoveChange(seq types.SequenceNumber) {
	if c, ok := w.GetChange(seq); ok {
		seqs := w.byInstance[c.InstanceHandle]
		for i, s := range seqs {
			if s == seq {
				w.byInstance[c.InstanceHandle] = append(seqs[:i], seqs[i+1:]...)
				break
			}
		}
	}
	w.removeSequence(seq)
}

func (w *WriterHistoryCache) removeSequence(seq types.SequenceNumber) {
	for i, c := range w.changes {
		if c.SequenceNumber == seq {
			w.changes = append(w.changes[:i], w.changes[i+1:]...)
			return
		}
	}
}

// GetChange looks up a change by SequenceNumber.
func (w *WriterHistoryCache) GetChange(seq types.SequenceNumber) (CacheChange, bool) {
	i := sort.Search(len(w.changes), func(i int) bool { return w.changes[i].SequenceNumber >= seq })
	if i < len(w.changes) && w.changes[i].SequenceNumber == seq {
		return w.changes[i], true
	}
	return CacheChange{}, false
}

// GetMinSequence returns the smallest SequenceNumber currently held, or
// SequenceNumberUnknown if empty.
func (w *WriterHistoryCache) GetMinSequence() types.SequenceNumber {
	if len(w.changes) == 0 {
		return types.SequenceNumberUnknown
	}
	return w.changes[0].SequenceNumber
}

// GetMaxSequence returns the largest SequenceNumber currently held, or
// SequenceNumberUnknown if empty.
func (w *WriterHistoryCache) GetMaxSequence() types.SequenceNumber {
	if len(w.changes) == 0 {
		return types.SequenceNumberUnknown
	}
	return w.changes[len(w.changes)-1].SequenceNumber
}

// AllSequences returns every SequenceNumber currently held, ascending.
func (w *WriterHistoryCache) AllSequences() []types.SequenceNumber {
	out := make([]types.SequenceNumber, len(w.changes))
	for i, c := range w.changes {
		out[i] = c.SequenceNumber
	}
	return out
}

// LastFragmentOf returns the final FragmentNumber for a fragmented change
// of the given sequence, used to answer HEARTBEAT_FRAG (spec §4.2
// last_fragment_per_sequence). The second return is false if the sequence
// is unknown or was never fragmented.
func (w *WriterHistoryCache) LastFragmentOf(seq types.SequenceNumber) (types.FragmentNumber, bool) {
	c, ok := w.GetChange(seq)
	if !ok || c.FragmentSize == 0 {
		return 0, false
	}
	return types.FragmentNumber(c.FragmentsCount()), true
}
