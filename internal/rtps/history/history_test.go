package history

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

func TestWriterHistoryCacheKeepLastEvicts(t *testing.T) {
	w := NewWriterHistoryCache(types.HistoryQos{Kind: types.HistoryKeepLast, Depth: 2})
	inst := types.InstanceHandle{1}

	var seqs []types.SequenceNumber
	for i := 0; i < 3; i++ {
		seq := w.NewChange()
		w.AddChange(CacheChange{InstanceHandle: inst, SequenceNumber: seq})
		seqs = append(seqs, seq)
	}

	require.Equal(t, []types.SequenceNumber{seqs[1], seqs[2]}, w.AllSequences())
	_, ok := w.GetChange(seqs[0])
	require.False(t, ok, "oldest change should have been evicted")
}

func TestWriterHistoryCacheKeepAllRetainsUntilRemoved(t *testing.T) {
	w := NewWriterHistoryCache(types.HistoryQos{Kind: types.HistoryKeepAll})
	inst := types.InstanceHandle{2}

	seq1 := w.NewChange()
	w.AddChange(CacheChange{InstanceHandle: inst, SequenceNumber: seq1})
	seq2 := w.NewChange()
	w.AddChange(CacheChange{InstanceHandle: inst, SequenceNumber: seq2})

	require.Equal(t, seq1, w.GetMinSequence())
	require.Equal(t, seq2, w.GetMaxSequence())

	w.RemoveChange(seq1)
	require.Equal(t, seq2, w.GetMinSequence())
}

func TestWriterHistoryCacheAddChangeRejectsDuplicateSequence(t *testing.T) {
	w := NewWriterHistoryCache(types.HistoryQos{Kind: types.HistoryKeepAll})
	inst := types.InstanceHandle{3}

	seq := w.NewChange()
	require.NoError(t, w.AddChange(CacheChange{InstanceHandle: inst, SequenceNumber: seq, Payload: []byte("first")}))

	err := w.AddChange(CacheChange{InstanceHandle: inst, SequenceNumber: seq, Payload: []byte("second")})
	require.Error(t, err)
	require.True(t, rtpserrors.IsEngineError(err))

	c, ok := w.GetChange(seq)
	require.True(t, ok)
	require.Equal(t, []byte("first"), c.Payload, "the rejected duplicate must not overwrite the original change")
}

func TestReaderHistoryCacheTakeNextChangeOrdersByArrival(t *testing.T) {
	r := NewReaderHistoryCache(types.HistoryQos{Kind: types.HistoryKeepAll})
	writer := types.GUID{}

	r.Transfer(CacheChange{WriterGUID: writer, SequenceNumber: 1, Payload: []byte("a")})
	r.Transfer(CacheChange{WriterGUID: writer, SequenceNumber: 2, Payload: []byte("b")})

	first, ok := r.TakeNextChange()
	require.True(t, ok)
	require.Equal(t, types.SequenceNumber(1), first.SequenceNumber)

	second, ok := r.TakeNextChange()
	require.True(t, ok)
	require.Equal(t, types.SequenceNumber(2), second.SequenceNumber)

	_, ok = r.TakeNextChange()
	require.False(t, ok)
}

func TestReaderHistoryCacheDuplicateTransferIgnored(t *testing.T) {
	r := NewReaderHistoryCache(types.HistoryQos{Kind: types.HistoryKeepAll})
	writer := types.GUID{}

	r.Transfer(CacheChange{WriterGUID: writer, SequenceNumber: 1, Payload: []byte("a")})
	r.Transfer(CacheChange{WriterGUID: writer, SequenceNumber: 1, Payload: []byte("a-resent")})

	c, ok := r.TakeChange(writer, 1)
	require.True(t, ok)
	require.Equal(t, []byte("a"), c.Payload, "first delivery wins on duplicate transfer")
}

func TestFragmentedCacheChangeReassembly(t *testing.T) {
	f := NewFragmentedCacheChange(types.ChangeKindAlive, types.GUID{}, types.InstanceHandle{}, 1, 10, 4, types.Timestamp{})
	require.Equal(t, uint32(3), f.FragmentsCount())
	require.False(t, f.IsComplete())

	f.InsertFragment(0, []byte{1, 2, 3, 4})
	f.InsertFragment(1, []byte{5, 6, 7, 8})
	require.False(t, f.IsComplete())
	require.Equal(t, []types.FragmentNumber{3}, f.MissingFragments())

	f.InsertFragment(2, []byte{9, 10})
	require.True(t, f.IsComplete())

	c := f.ToCacheChange(types.Timestamp{})
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if diff := cmp.Diff(want, c.Payload); diff != "" {
		t.Fatalf("reassembled payload mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderHistoryCachePushFragmentCompletes(t *testing.T) {
	r := NewReaderHistoryCache(types.HistoryQos{Kind: types.HistoryKeepAll})
	writer := types.GUID{}

	_, done := r.PushFragment(writer, 5, types.ChangeKindAlive, types.InstanceHandle{}, 8, 4, types.Timestamp{}, 0, []byte{1, 2, 3, 4}, types.Timestamp{})
	require.False(t, done)

	_, ok := r.GetFragmentedChange(writer, 5)
	require.True(t, ok)

	c, done := r.PushFragment(writer, 5, types.ChangeKindAlive, types.InstanceHandle{}, 8, 4, types.Timestamp{}, 1, []byte{5, 6, 7, 8}, types.Timestamp{})
	require.True(t, done)
	require.Equal(t, types.SequenceNumber(5), c.SequenceNumber)

	_, ok = r.GetFragmentedChange(writer, 5)
	require.False(t, ok, "completed reassembly should be removed from in-progress set")
	require.True(t, r.HasChange(writer, 5))
}
