// Package proxy implements the per-peer bookkeeping held by the opposite
// endpoint: WriterProxy (held by a Reader), ReaderProxy (held by a
// Writer), and ParticipantProxy (held by the discovery engine).
package proxy

import (
	"sort"

	"github.com/rtps-go/rtps/internal/rtps/types"
)

// ChangeStatus is one of the closed set a WriterProxy tracks per sequence
// number (spec §4.4).
type ChangeStatus int

const (
	StatusUnknown ChangeStatus = iota
	StatusMissing
	StatusReceived
	StatusNotAvailableFiltered
	StatusNotAvailableRemoved
	StatusNotAvailableUnspecified
)

func (s ChangeStatus) isNotAvailable() bool {
	return s == StatusNotAvailableFiltered || s == StatusNotAvailableRemoved || s == StatusNotAvailableUnspecified
}

// WriterProxy is held by a Reader, one per matched remote Writer (spec
// §4.4). The ChangeFromWriter map is ordered by sequence number; entries
// are created lazily as missing_changes_update/received_change_set extend
// the tracked range.
type WriterProxy struct {
	RemoteWriterGUID      types.GUID
	Locators              []types.Locator
	DataMaxSizeSerialized uint32

	changes   map[types.SequenceNumber]ChangeStatus
	firstSeen types.SequenceNumber // lowest sequence ever entered into the map

	LastHeartbeatTimestamp types.Timestamp
	LastHeartbeatCount     int32
	LastNackFragSent       int32

	// LastAnnouncedFragment records, per sequence, the last_fragment_num
	// reported by the most recent HEARTBEAT_FRAG (spec §4.7 "record
	// last_announced_fragment for that sequence").
	LastAnnouncedFragment map[types.SequenceNumber]types.FragmentNumber
}

// NewWriterProxy builds an empty proxy for remote.
func NewWriterProxy(remote types.GUID, locators []types.Locator, dataMaxSize uint32) *WriterProxy {
	return &WriterProxy{
		RemoteWriterGUID:      remote,
		Locators:              locators,
		DataMaxSizeSerialized: dataMaxSize,
		changes:               make(map[types.SequenceNumber]ChangeStatus),
		firstSeen:             types.SequenceNumberFirst,
		LastAnnouncedFragment: make(map[types.SequenceNumber]types.FragmentNumber),
	}
}

func (p *WriterProxy) statusOf(seq types.SequenceNumber) ChangeStatus {
	if s, ok := p.changes[seq]; ok {
		return s
	}
	return StatusUnknown
}

// MissingChangesUpdate fills the map from first_seen up to and including
// lastAvailable; every still-Unknown entry becomes Missing (spec §4.4).
func (p *WriterProxy) MissingChangesUpdate(lastAvailable types.SequenceNumber) {
	for seq := p.firstSeen; seq <= lastAvailable; seq++ {
		if p.statusOf(seq) == StatusUnknown {
			p.changes[seq] = StatusMissing
		}
	}
}

// LostChangesUpdate marks every Unknown or Missing entry with
// seq < firstAvailable as NotAvailableRemoved (if changesRemoved) else
// NotAvailableUnspecified (spec §4.4).
func (p *WriterProxy) LostChangesUpdate(firstAvailable types.SequenceNumber, changesRemoved bool) {
	lost := StatusNotAvailableUnspecified
	if changesRemoved {
		lost = StatusNotAvailableRemoved
	}
	for seq := p.firstSeen; seq < firstAvailable; seq++ {
		s := p.statusOf(seq)
		if s == StatusUnknown || s == StatusMissing {
			p.changes[seq] = lost
		}
	}
	if firstAvailable > p.firstSeen {
		p.firstSeen = firstAvailable
	}
}

// ReceivedChangeSet fills up to seq and sets that entry to Received.
// Idempotent: never downgrades an entry already Received (spec §4.4).
func (p *WriterProxy) ReceivedChangeSet(seq types.SequenceNumber) {
	for s := p.firstSeen; s < seq; s++ {
		if p.statusOf(s) == StatusUnknown {
			p.changes[s] = StatusMissing
		}
	}
	p.changes[seq] = StatusReceived
}

// NotAvailableChangeSet applies the filtered/removed/unspecified status to
// every sequence in set, per the filteredCount == |set| rule (spec §4.4).
func (p *WriterProxy) NotAvailableChangeSet(set []types.SequenceNumber, filteredCount int) {
	var status ChangeStatus
	switch {
	case filteredCount == len(set):
		status = StatusNotAvailableFiltered
	case filteredCount == 0:
		status = StatusNotAvailableRemoved
	default:
		status = StatusNotAvailableUnspecified
	}
	for _, seq := range set {
		p.changes[seq] = status
	}
}

// AvailableChangesMax returns the highest contiguous sequence whose status
// is Received or any NotAvailable* (spec §4.4). Returns SequenceNumberUnknown
// if no such sequence exists yet.
func (p *WriterProxy) AvailableChangesMax() types.SequenceNumber {
	max := types.SequenceNumberUnknown
	for seq := p.firstSeen; ; seq++ {
		s, ok := p.changes[seq]
		if !ok {
			break
		}
		if s != StatusReceived && !s.isNotAvailable() {
			break
		}
		max = seq
	}
	return max
}

// MissingChanges returns every sequence currently Missing, ascending.
func (p *WriterProxy) MissingChanges() []types.SequenceNumber {
	var out []types.SequenceNumber
	for seq, s := range p.changes {
		if s == StatusMissing {
			out = append(out, seq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LostChanges returns every sequence currently in a NotAvailable* state,
// ascending.
func (p *WriterProxy) LostChanges() []types.SequenceNumber {
	var out []types.SequenceNumber
	for seq, s := range p.changes {
		if s.isNotAvailable() {
			out = append(out, seq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clean drops map entries with seq < minSeqInCache and status in
// {Received, NotAvailable*}. Entries strictly before the current
// AvailableChangesMax whose status is still Missing are preserved — a NACK
// is still owed for them (spec §4.4).
func (p *WriterProxy) Clean(minSeqInCache types.SequenceNumber) {
	for seq, s := range p.changes {
		if seq < minSeqInCache && (s == StatusReceived || s.isNotAvailable()) {
			delete(p.changes, seq)
		}
	}
	for seq := range p.LastAnnouncedFragment {
		if seq < minSeqInCache {
			delete(p.LastAnnouncedFragment, seq)
		}
	}
}
