package proxy

import (
	"sort"

	"github.com/rtps-go/rtps/internal/rtps/types"
)

// ReaderProxy is held by a Writer, one per matched remote Reader (spec
// §4.5 / type table). Tracks the cumulative acknowledged high-water mark,
// the set of sequences the reader has negatively acknowledged, and
// per-sequence fragment NACKs.
type ReaderProxy struct {
	RemoteReaderGUID    types.GUID
	ExpectsInlineQoS    bool
	Locators            []types.Locator
	HighestSentChangeSN types.SequenceNumber

	// AcknowledgedChanges is the cumulative high-water sequence from the
	// most recent ACKNACK (base-1): every sequence <= this is acked.
	AcknowledgedChanges types.SequenceNumber

	// RequestedChanges is the ordered set of sequences the reader has
	// NACKed, pending retransmission.
	requestedChanges map[types.SequenceNumber]struct{}

	// RequestedFragments maps a requested sequence to the ordered set of
	// missing FragmentNumbers for it.
	requestedFragments map[types.SequenceNumber]map[types.FragmentNumber]struct{}

	// AckNackCount/NackFragCount are the last accepted monotonic counters,
	// used to reject stale replays (spec §4.5).
	AckNackCount  int32
	NackFragCount int32

	IsActive bool
}

// NewReaderProxy builds an empty proxy for remote.
func NewReaderProxy(remote types.GUID, locators []types.Locator, expectsInlineQoS bool) *ReaderProxy {
	return &ReaderProxy{
		RemoteReaderGUID:   remote,
		ExpectsInlineQoS:   expectsInlineQoS,
		Locators:           locators,
		requestedChanges:   make(map[types.SequenceNumber]struct{}),
		requestedFragments: make(map[types.SequenceNumber]map[types.FragmentNumber]struct{}),
		IsActive:           true,
	}
}

// AcceptAckNack validates and applies an incoming ACKNACK's count, base,
// and requested-set, per spec §4.6 ingest steps 4-5. Returns false (no
// state change) if count is stale.
func (p *ReaderProxy) AcceptAckNack(count int32, base types.SequenceNumber, requested []types.SequenceNumber) bool {
	if count <= p.AckNackCount {
		return false
	}
	p.AckNackCount = count
	p.AckedChangesSet(base - 1)
	p.RequestedChangesSet(requested)
	return true
}

// AckedChangesSet records the highest acknowledged sequence.
func (p *ReaderProxy) AckedChangesSet(seq types.SequenceNumber) {
	if seq > p.AcknowledgedChanges {
		p.AcknowledgedChanges = seq
	}
}

// RequestedChangesSet replaces the pending NACK set with set.
func (p *ReaderProxy) RequestedChangesSet(set []types.SequenceNumber) {
	p.requestedChanges = make(map[types.SequenceNumber]struct{}, len(set))
	for _, seq := range set {
		p.requestedChanges[seq] = struct{}{}
	}
}

// AcceptNackFrag validates and records an incoming NACK_FRAG's fragment
// request set for seq, rejecting stale counters.
func (p *ReaderProxy) AcceptNackFrag(count int32, seq types.SequenceNumber, fragments []types.FragmentNumber) bool {
	if count <= p.NackFragCount {
		return false
	}
	p.NackFragCount = count
	set := make(map[types.FragmentNumber]struct{}, len(fragments))
	for _, f := range fragments {
		set[f] = struct{}{}
	}
	p.requestedFragments[seq] = set
	return true
}

// RequestedChanges returns the pending NACKed sequences, ascending.
func (p *ReaderProxy) RequestedChanges() []types.SequenceNumber {
	out := make([]types.SequenceNumber, 0, len(p.requestedChanges))
	for seq := range p.requestedChanges {
		out = append(out, seq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PopRequestedChange removes and returns the lowest pending NACKed
// sequence (spec §4.6 tick: "pop one").
func (p *ReaderProxy) PopRequestedChange() (types.SequenceNumber, bool) {
	seqs := p.RequestedChanges()
	if len(seqs) == 0 {
		return 0, false
	}
	delete(p.requestedChanges, seqs[0])
	return seqs[0], true
}

// RequestedFragmentsFor returns the missing FragmentNumbers for seq,
// ascending.
func (p *ReaderProxy) RequestedFragmentsFor(seq types.SequenceNumber) []types.FragmentNumber {
	set := p.requestedFragments[seq]
	if len(set) == 0 {
		return nil
	}
	out := make([]types.FragmentNumber, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
