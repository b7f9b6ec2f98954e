package proxy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtps-go/rtps/internal/rtps/types"
)

func TestWriterProxyMissingAndReceived(t *testing.T) {
	p := NewWriterProxy(types.GUID{}, nil, 0)

	p.MissingChangesUpdate(3)
	require.ElementsMatch(t, []types.SequenceNumber{1, 2, 3}, p.MissingChanges())

	p.ReceivedChangeSet(2)
	require.Equal(t, StatusReceived, p.statusOf(2))
	require.ElementsMatch(t, []types.SequenceNumber{1, 3}, p.MissingChanges())

	// Idempotent: re-applying Received never downgrades.
	p.ReceivedChangeSet(2)
	require.Equal(t, StatusReceived, p.statusOf(2))
}

func TestWriterProxyAvailableChangesMaxRequiresContiguity(t *testing.T) {
	p := NewWriterProxy(types.GUID{}, nil, 0)
	p.ReceivedChangeSet(1)
	require.Equal(t, types.SequenceNumber(1), p.AvailableChangesMax())

	// seq 2 missing, so max does not advance past 1 even though 3 arrived.
	p.changes[3] = StatusReceived
	require.Equal(t, types.SequenceNumber(1), p.AvailableChangesMax())

	p.NotAvailableChangeSet([]types.SequenceNumber{2}, 0)
	require.Equal(t, types.SequenceNumber(3), p.AvailableChangesMax())
}

func TestWriterProxyLostChangesUpdate(t *testing.T) {
	p := NewWriterProxy(types.GUID{}, nil, 0)
	p.MissingChangesUpdate(5)
	p.LostChangesUpdate(3, true)

	require.Equal(t, StatusNotAvailableRemoved, p.statusOf(1))
	require.Equal(t, StatusNotAvailableRemoved, p.statusOf(2))
	require.Equal(t, StatusMissing, p.statusOf(3))
}

func TestWriterProxyCleanPreservesOwedMissing(t *testing.T) {
	p := NewWriterProxy(types.GUID{}, nil, 0)
	p.MissingChangesUpdate(3)
	p.ReceivedChangeSet(1)

	p.Clean(2)
	require.Equal(t, StatusMissing, p.statusOf(2), "still-owed Missing entry must survive Clean")
	_, stillThere := p.changes[1]
	require.False(t, stillThere, "Received entry below minSeqInCache should be dropped")
}

func TestReaderProxyAcceptAckNackRejectsStaleCount(t *testing.T) {
	p := NewReaderProxy(types.GUID{}, nil, false)

	require.True(t, p.AcceptAckNack(1, 5, []types.SequenceNumber{5, 6}))
	require.Equal(t, types.SequenceNumber(4), p.AcknowledgedChanges)
	require.ElementsMatch(t, []types.SequenceNumber{5, 6}, p.RequestedChanges())

	require.False(t, p.AcceptAckNack(1, 10, nil), "count <= last accepted must be rejected")
	require.Equal(t, types.SequenceNumber(4), p.AcknowledgedChanges)
}

func TestReaderProxyPopRequestedChangeOrdersAscending(t *testing.T) {
	p := NewReaderProxy(types.GUID{}, nil, false)
	p.RequestedChangesSet([]types.SequenceNumber{7, 3, 5})

	first, ok := p.PopRequestedChange()
	require.True(t, ok)
	require.Equal(t, types.SequenceNumber(3), first)

	second, _ := p.PopRequestedChange()
	require.Equal(t, types.SequenceNumber(5), second)
}

func TestParticipantProxyHasExpired(t *testing.T) {
	p := &ParticipantProxy{LeaseEnd: types.TimestampFromMillis(1000)}
	require.False(t, p.HasExpired(999))
	require.True(t, p.HasExpired(1000))
	require.True(t, p.HasExpired(1001))
}
