// Package scenario wires a Writer and a Reader engine together through the
// actual wire codec, the way cmd/rtps-demo's participant.ingest does for two
// live participants, to pin the end-to-end behavior that each engine's own
// unit tests only exercise one side of: a reliable exchange reaching a
// steady ACKed state, a writer retransmitting after an ACKNACK reports a
// gap, a fragmented sample reassembling across several DATA_FRAGs, and a
// best-effort writer never retransmitting a sample a reader never saw.
package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/reader"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
	"github.com/rtps-go/rtps/internal/rtps/writer"
)

func guidPrefix(b byte) types.GuidPrefix {
	var p types.GuidPrefix
	p[0] = b
	return p
}

func writerGUID(prefix types.GuidPrefix) types.GUID {
	return types.NewGUID(prefix, types.EntityId{Key: [3]byte{0, 0, 1}, Kind: types.EntityKindUserWriterWithKey})
}

func readerGUID(prefix types.GuidPrefix) types.GUID {
	return types.NewGUID(prefix, types.EntityId{Key: [3]byte{0, 0, 1}, Kind: types.EntityKindUserReaderWithKey})
}

// deliver decodes every Message effect in effects and routes each
// submessage to ingest with the sending message's own header GuidPrefix,
// mirroring cmd/rtps-demo/participant.go's ingest loop.
func deliver(t *testing.T, effects []effect.Effect, ingest func(types.GuidPrefix, wire.Submessage, int64), nowMillis int64) {
	t.Helper()
	for _, e := range effects {
		if e.Kind != effect.KindMessage {
			continue
		}
		msg, err := wire.DecodeMessage(e.Message.Message)
		require.NoError(t, err)
		for _, sm := range msg.Submessages {
			ingest(msg.Header.GuidPrefix, sm, nowMillis)
		}
	}
}

func messagesOf(t *testing.T, effects []effect.Effect) []wire.Message {
	t.Helper()
	var out []wire.Message
	for _, e := range effects {
		if e.Kind != effect.KindMessage {
			continue
		}
		msg, err := wire.DecodeMessage(e.Message.Message)
		require.NoError(t, err)
		out = append(out, msg)
	}
	return out
}

func submessagesOf(t *testing.T, effects []effect.Effect) []wire.Submessage {
	t.Helper()
	var out []wire.Submessage
	for _, msg := range messagesOf(t, effects) {
		out = append(out, msg.Submessages...)
	}
	return out
}

// TestReliableExchangeReachesFullyAckedSteadyState exercises the ordinary
// reliable path: the writer's DATA+piggybacked HEARTBEAT reaches the
// reader, the reader delivers the sample and ACKNACKs with nothing
// requested, and the writer, on ingesting that ACKNACK and ticking, has
// nothing left to retransmit.
func TestReliableExchangeReachesFullyAckedSteadyState(t *testing.T) {
	wPrefix, rPrefix := guidPrefix(0x01), guidPrefix(0x02)
	wGUID, rGUID := writerGUID(wPrefix), readerGUID(rPrefix)

	w := writer.New(writer.Config{
		GUID: wGUID, Reliability: types.ReliabilityReliable,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, NackResponseDelayMillis: 50,
	})
	r := reader.New(reader.Config{
		GUID: rGUID, Reliability: types.ReliabilityReliable,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, HeartbeatResponseDelayMillis: 50,
	})
	w.AddProxy(rGUID, nil, false)
	r.AddProxy(wGUID, nil, 0)

	c := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("sample-1"), nil, 1000)
	w.AddChange(c, true, 1000)
	deliver(t, w.Effects(), r.Ingest, 1000)

	got, ok := r.TakeNextChange()
	require.True(t, ok)
	require.Equal(t, []byte("sample-1"), got.Payload)

	r.Tick(1000)
	ackEffects := r.Effects()
	acks := submessagesOf(t, ackEffects)
	require.Len(t, acks, 1)
	ack, ok := acks[0].(*wire.AckNack)
	require.True(t, ok)
	require.Equal(t, uint32(0), ack.WriterSNState.NumBits())

	deliver(t, ackEffects, w.Ingest, 1000)
	w.Tick(1000)
	require.Empty(t, messagesOf(t, w.Effects()), "fully acked writer must retransmit nothing on tick")
}

// TestWriterRetransmitsOnAckNackRequestingMissingSequence simulates a
// dropped DATA: the reader never sees sequence 1, so its HEARTBEAT-driven
// ACKNACK reports it missing, and the writer's next Tick retransmits it,
// after which the reader holds both samples.
func TestWriterRetransmitsOnAckNackRequestingMissingSequence(t *testing.T) {
	wPrefix, rPrefix := guidPrefix(0x03), guidPrefix(0x04)
	wGUID, rGUID := writerGUID(wPrefix), readerGUID(rPrefix)

	w := writer.New(writer.Config{
		GUID: wGUID, Reliability: types.ReliabilityReliable,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, NackResponseDelayMillis: 50,
	})
	r := reader.New(reader.Config{
		GUID: rGUID, Reliability: types.ReliabilityReliable,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, HeartbeatResponseDelayMillis: 50,
	})
	w.AddProxy(rGUID, nil, false)
	r.AddProxy(wGUID, nil, 0)

	c1 := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("sample-1"), nil, 1000)
	w.AddChange(c1, false, 1000)
	w.Effects() // dropped in transit: never delivered to the reader

	c2 := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("sample-2"), nil, 1010)
	w.AddChange(c2, true, 1010)
	deliver(t, w.Effects(), r.Ingest, 1010)

	first, ok := r.GetFirstAvailableChange()
	require.True(t, ok)
	require.Equal(t, []byte("sample-2"), first.Payload, "only the non-dropped sample has arrived so far")

	r.Tick(1010)
	deliver(t, r.Effects(), w.Ingest, 1010)
	w.Tick(1010)

	retransmitEffects := w.Effects()
	retransmitted := submessagesOf(t, retransmitEffects)
	var sawSeq1Data bool
	for _, sm := range retransmitted {
		if d, ok := sm.(*wire.Data); ok && d.WriterSN == c1.SequenceNumber {
			sawSeq1Data = true
			require.Equal(t, []byte("sample-1"), d.Payload.Data)
		}
	}
	require.True(t, sawSeq1Data, "writer must retransmit the sequence the reader's ACKNACK reported missing")

	deliver(t, retransmitEffects, r.Ingest, 1010)
	got := r.TakeNotReadChanges()
	require.Len(t, got, 2)
	payloads := map[string]bool{}
	for _, c := range got {
		payloads[string(c.Payload)] = true
	}
	require.True(t, payloads["sample-1"])
	require.True(t, payloads["sample-2"])
}

// TestFragmentedDeliveryReassemblesAcrossDataFrags exercises a sample larger
// than the configured FragmentSize: AddChange splits it into several
// DATA_FRAG submessages, and the reader's reassembly buffer stitches them
// back into one CacheChange once the last fragment arrives.
func TestFragmentedDeliveryReassemblesAcrossDataFrags(t *testing.T) {
	wPrefix, rPrefix := guidPrefix(0x05), guidPrefix(0x06)
	wGUID, rGUID := writerGUID(wPrefix), readerGUID(rPrefix)

	const fragSize = 16
	w := writer.New(writer.Config{
		GUID: wGUID, Reliability: types.ReliabilityBestEffort,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, FragmentSize: fragSize,
	})
	r := reader.New(reader.Config{
		GUID: rGUID, Reliability: types.ReliabilityBestEffort,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, FragmentSize: fragSize,
	})
	w.AddProxy(rGUID, nil, false)
	r.AddProxy(wGUID, nil, 0)

	payload := []byte("this payload is fifty bytes long for fragmentation")
	require.Greater(t, len(payload), fragSize)

	c := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, payload, nil, 2000)
	w.AddChange(c, false, 2000)

	frags := submessagesOf(t, w.Effects())
	require.Greater(t, len(frags), 1, "a sample larger than FragmentSize must split into more than one DATA_FRAG")
	for _, sm := range frags {
		_, ok := sm.(*wire.DataFrag)
		require.True(t, ok, "every emitted submessage for this change must be a DATA_FRAG")
	}

	for _, sm := range frags {
		r.Ingest(wPrefix, sm, 2000)
	}

	got, ok := r.GetFirstAvailableChange()
	require.True(t, ok)
	require.Equal(t, payload, got.Payload)
	require.Equal(t, c.SequenceNumber, got.SequenceNumber)
}

// TestBestEffortWriterNeverRetransmitsDroppedSample pins the best-effort
// contract: a dropped DATA is simply gone (no ACKNACK, no NACK, no
// retransmission machinery engages), yet the reader still receives later
// samples normally.
func TestBestEffortWriterNeverRetransmitsDroppedSample(t *testing.T) {
	wPrefix, rPrefix := guidPrefix(0x07), guidPrefix(0x08)
	wGUID, rGUID := writerGUID(wPrefix), readerGUID(rPrefix)

	w := writer.New(writer.Config{
		GUID: wGUID, Reliability: types.ReliabilityBestEffort,
		History: types.HistoryQos{Kind: types.HistoryKeepAll},
	})
	r := reader.New(reader.Config{
		GUID: rGUID, Reliability: types.ReliabilityBestEffort,
		History: types.HistoryQos{Kind: types.HistoryKeepAll},
	})
	w.AddProxy(rGUID, nil, false)
	r.AddProxy(wGUID, nil, 0)

	c1 := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("lost-sample"), nil, 3000)
	w.AddChange(c1, false, 3000)
	w.Effects() // dropped: best-effort readers never recover this

	c2 := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("next-sample"), nil, 3010)
	w.AddChange(c2, false, 3010)
	deliver(t, w.Effects(), r.Ingest, 3010)

	// A best-effort Reader still answers Tick with an ACKNACK (Tick itself
	// never gates on reliability), but its WriterProxy never recorded
	// sequence 1 as Missing in the first place: a best-effort reader that
	// sees a non-contiguous arrival marks the gap NotAvailable instead (see
	// internal/rtps/reader/ingest.go's best-effort branch), so the ACKNACK
	// requests nothing and the writer's tick has nothing to retransmit.
	r.Tick(3010)
	deliver(t, r.Effects(), w.Ingest, 3010)
	w.Tick(3010)
	require.Empty(t, messagesOf(t, w.Effects()), "best-effort writer must never retransmit a dropped sample")

	got, ok := r.TakeNextChange()
	require.True(t, ok)
	require.Equal(t, []byte("next-sample"), got.Payload)

	_, ok = r.TakeNextChange()
	require.False(t, ok, "the dropped sample must never surface: best-effort offers no recovery")
}
