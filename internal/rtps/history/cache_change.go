// Package history implements the Writer- and Reader-side ordered stores of
// CacheChange described in spec §3-§4.3: WriterHistoryCache,
// ReaderHistoryCache, and the fragment reassembly buffer.
package history

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
)

// CacheChange is the atomic unit of state a Writer publishes (spec §3).
type CacheChange struct {
	Kind               types.ChangeKind
	WriterGUID         types.GUID
	InstanceHandle     types.InstanceHandle
	SequenceNumber     types.SequenceNumber
	SampleSize         uint32
	FragmentSize       uint32
	EmissionTimestamp  types.Timestamp
	ReceptionTimestamp types.Timestamp
	InlineQoS          []byte // opaque encoded ParameterList, if present
	Payload            []byte // opaque serialized payload, if present

	// SampleState tracks Reader-side read/unread status (spec §3
	// ReaderHistoryCache: "per-entry sample_state ∈ {NotRead, Read}").
	// Ignored on the Writer side.
	SampleState SampleState
}

// SampleState is the Reader-side per-entry read marker.
type SampleState int

const (
	SampleStateNotRead SampleState = iota
	SampleStateRead
)

// FragmentsCount returns ⌈sample_size / fragment_size⌉ (spec §3), or 1 when
// FragmentSize is 0 (an unfragmented change never enters the reassembly
// path, so this only matters for display/diagnostics).
func (c CacheChange) FragmentsCount() uint32 {
	if c.FragmentSize == 0 {
		return 1
	}
	return (c.SampleSize + c.FragmentSize - 1) / c.FragmentSize
}

// FragmentPresence marks one slot of a FragmentedCacheChange's presence
// vector (spec §3).
type FragmentPresence int

const (
	FragmentMissing FragmentPresence = iota
	FragmentPresent
)

// FragmentedCacheChange is an in-progress reassembly (spec §3). Invariant:
// once IsComplete() holds, Buffer is exactly SampleSize bytes of
// contiguous payload and the caller promotes it to a CacheChange.
type FragmentedCacheChange struct {
	Kind              types.ChangeKind
	WriterGUID        types.GUID
	InstanceHandle    types.InstanceHandle
	SequenceNumber    types.SequenceNumber
	SampleSize        uint32
	FragmentSize      uint32
	EmissionTimestamp types.Timestamp

	Presence []FragmentPresence // length FragmentsCount()
	Buffer   []byte             // length SampleSize, filled in as fragments arrive
}

// NewFragmentedCacheChange allocates a reassembly buffer sized for the
// given sample/fragment size pair.
func NewFragmentedCacheChange(kind types.ChangeKind, writerGUID types.GUID, instance types.InstanceHandle, seq types.SequenceNumber, sampleSize, fragmentSize uint32, emission types.Timestamp) *FragmentedCacheChange {
	fragsCount := (sampleSize + fragmentSize - 1) / fragmentSize
	return &FragmentedCacheChange{
		Kind: kind, WriterGUID: writerGUID, InstanceHandle: instance, SequenceNumber: seq,
		SampleSize: sampleSize, FragmentSize: fragmentSize, EmissionTimestamp: emission,
		Presence: make([]FragmentPresence, fragsCount),
		Buffer:   make([]byte, sampleSize),
	}
}

// FragmentsCount returns ⌈sample_size / fragment_size⌉.
func (f *FragmentedCacheChange) FragmentsCount() uint32 {
	return (f.SampleSize + f.FragmentSize - 1) / f.FragmentSize
}

// InsertFragment writes data (for the fragment at 0-based index idx) into
// Buffer at its corresponding offset and marks the slot Present. idx must
// be < len(Presence); callers validate this via the writer/reader engines.
func (f *FragmentedCacheChange) InsertFragment(idx uint32, data []byte) {
	if int(idx) >= len(f.Presence) {
		return
	}
	f.Presence[idx] = FragmentPresent
	start := idx * f.FragmentSize
	end := start + uint32(len(data))
	if end > uint32(len(f.Buffer)) {
		end = uint32(len(f.Buffer))
	}
	if start < end {
		copy(f.Buffer[start:end], data)
	}
}

// IsComplete reports whether every fragment slot is Present (spec §3
// invariant).
func (f *FragmentedCacheChange) IsComplete() bool {
	for _, p := range f.Presence {
		if p != FragmentPresent {
			return false
		}
	}
	return true
}

// MissingFragments returns the 1-based FragmentNumbers still Missing, in
// ascending order.
func (f *FragmentedCacheChange) MissingFragments() []types.FragmentNumber {
	var out []types.FragmentNumber
	for i, p := range f.Presence {
		if p == FragmentMissing {
			out = append(out, types.FragmentNumber(i+1))
		}
	}
	return out
}

// ToCacheChange promotes a complete reassembly to a CacheChange, with the
// given reception timestamp (reception time is necessarily when the last
// fragment arrived, not tracked per-fragment).
func (f *FragmentedCacheChange) ToCacheChange(reception types.Timestamp) CacheChange {
	return CacheChange{
		Kind: f.Kind, WriterGUID: f.WriterGUID, InstanceHandle: f.InstanceHandle,
		SequenceNumber: f.SequenceNumber, SampleSize: f.SampleSize, FragmentSize: f.FragmentSize,
		EmissionTimestamp: f.EmissionTimestamp, ReceptionTimestamp: reception,
		Payload: append([]byte(nil), f.Buffer...),
	}
}
