package reader

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
)

func testGUID(lastKeyByte byte, kind types.EntityKind) types.GUID {
	var prefix types.GuidPrefix
	prefix[0] = 0xBB
	return types.GUID{Prefix: prefix, Entity: types.EntityId{Key: [3]byte{0, 0, lastKeyByte}, Kind: kind}}
}

func newTestReader(reliability types.ReliabilityKind, stateless bool) *Reader {
	return New(Config{
		GUID:                            testGUID(1, types.EntityKindUserReaderWithKey),
		Reliability:                     reliability,
		History:                         types.HistoryQos{Kind: types.HistoryKeepAll},
		FragmentSize:                    0,
		Stateless:                       stateless,
		HeartbeatResponseDelayMillis:    50,
		HeartbeatSuppressionDelayMillis: 0,
	})
}

func decodeOneMessage(t *testing.T, raw []byte) wire.Message {
	t.Helper()
	msg, err := wire.DecodeMessage(raw)
	require.NoError(t, err)
	return msg
}

func TestReaderIngestDataDeliversAndMarksReceived(t *testing.T) {
	r := newTestReader(types.ReliabilityBestEffort, false)
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	r.AddProxy(writer, nil, 0)

	data := &wire.Data{
		ReaderId: r.guid.Entity, WriterId: writer.Entity, WriterSN: 1,
		Payload: &wire.SerializedPayload{Encapsulation: wire.EncapsulationCDRLE, Data: []byte("hello")},
	}
	r.Ingest(writer.Prefix, data, 1000)

	effects := r.Effects()
	require.Len(t, effects, 1)
	require.Equal(t, effect.KindDataAvailable, effects[0].Kind)

	c, ok := r.GetFirstAvailableChange()
	require.True(t, ok)
	require.Equal(t, []byte("hello"), c.Payload)

	wp := r.proxies[writer]
	require.Equal(t, types.SequenceNumber(1), wp.AvailableChangesMax())
}

func TestReaderIngestDataDuplicateIsIdempotent(t *testing.T) {
	r := newTestReader(types.ReliabilityBestEffort, false)
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	r.AddProxy(writer, nil, 0)

	data := &wire.Data{
		ReaderId: r.guid.Entity, WriterId: writer.Entity, WriterSN: 1,
		Payload: &wire.SerializedPayload{Encapsulation: wire.EncapsulationCDRLE, Data: []byte("hello")},
	}
	r.Ingest(writer.Prefix, data, 1000)
	require.Len(t, r.Effects(), 1)

	r.Ingest(writer.Prefix, data, 1001)
	require.Empty(t, r.Effects(), "duplicate delivery must not produce a second DataAvailable")
}

func TestReaderIngestDataUnmatchedWriterIsDroppedUnlessStateless(t *testing.T) {
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	data := &wire.Data{
		ReaderId: types.EntityIdUnknown, WriterId: writer.Entity, WriterSN: 1,
		Payload: &wire.SerializedPayload{Encapsulation: wire.EncapsulationCDRLE, Data: []byte("x")},
	}

	stateful := newTestReader(types.ReliabilityBestEffort, false)
	stateful.Ingest(writer.Prefix, data, 0)
	require.Empty(t, stateful.Effects(), "an unmatched writer must be dropped in stateful mode")

	stateless := newTestReader(types.ReliabilityBestEffort, true)
	stateless.Ingest(writer.Prefix, data, 0)
	require.Len(t, stateless.Effects(), 1, "stateless mode accepts data from any writer on demand")
}

func TestReaderIngestDataNonContiguousArrivalBestEffortMarksGapNotAvailable(t *testing.T) {
	r := newTestReader(types.ReliabilityBestEffort, false)
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	r.AddProxy(writer, nil, 0)

	data := func(seq types.SequenceNumber) *wire.Data {
		return &wire.Data{
			ReaderId: r.guid.Entity, WriterId: writer.Entity, WriterSN: seq,
			Payload: &wire.SerializedPayload{Encapsulation: wire.EncapsulationCDRLE, Data: []byte("x")},
		}
	}
	r.Ingest(writer.Prefix, data(1), 0)
	_ = r.Effects()
	r.Ingest(writer.Prefix, data(3), 1)
	_ = r.Effects()

	wp := r.proxies[writer]
	require.Equal(t, types.SequenceNumber(3), wp.AvailableChangesMax())
	require.Empty(t, wp.MissingChanges(), "best-effort never recovers a skipped sequence through NACK")
}

func TestReaderIngestDataFragReassembles(t *testing.T) {
	r := newTestReader(types.ReliabilityReliable, false)
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	r.AddProxy(writer, nil, 0)

	payload := []byte("0123456789")
	frag1 := &wire.DataFrag{
		ReaderId: r.guid.Entity, WriterId: writer.Entity, WriterSN: 1,
		FragmentStartingNum: 1, FragmentsInSubmessage: 1, FragmentSize: 5, SampleSize: uint32(len(payload)),
		Payload: payload[0:5],
	}
	r.Ingest(writer.Prefix, frag1, 0)
	require.Empty(t, r.Effects(), "an incomplete reassembly must not yet raise DataAvailable")

	frag2 := &wire.DataFrag{
		ReaderId: r.guid.Entity, WriterId: writer.Entity, WriterSN: 1,
		FragmentStartingNum: 2, FragmentsInSubmessage: 1, FragmentSize: 5, SampleSize: uint32(len(payload)),
		Payload: payload[5:10],
	}
	r.Ingest(writer.Prefix, frag2, 1)

	effects := r.Effects()
	require.Len(t, effects, 1)
	require.Equal(t, effect.KindDataAvailable, effects[0].Kind)

	c, ok := r.TakeNextChange()
	require.True(t, ok)
	require.Equal(t, payload, c.Payload)
}

func TestReaderIngestHeartbeatSchedulesTickWhenMissing(t *testing.T) {
	r := newTestReader(types.ReliabilityReliable, false)
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	r.AddProxy(writer, nil, 0)

	hb := &wire.Heartbeat{ReaderId: r.guid.Entity, WriterId: writer.Entity, FirstSN: 1, LastSN: 3, Count: 1}
	r.Ingest(writer.Prefix, hb, 100)

	effects := r.Effects()
	require.Len(t, effects, 1)
	require.Equal(t, effect.KindScheduleTick, effects[0].Kind)
	require.Equal(t, effect.TimerReader, effects[0].ScheduleTick.Id)

	wp := r.proxies[writer]
	require.ElementsMatch(t, []types.SequenceNumber{1, 2, 3}, wp.MissingChanges())
}

func TestReaderIngestHeartbeatRejectsStaleCount(t *testing.T) {
	r := newTestReader(types.ReliabilityReliable, false)
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	r.AddProxy(writer, nil, 0)

	r.Ingest(writer.Prefix, &wire.Heartbeat{ReaderId: r.guid.Entity, WriterId: writer.Entity, FirstSN: 1, LastSN: 1, Count: 5}, 0)
	require.Len(t, r.Effects(), 1)

	r.Ingest(writer.Prefix, &wire.Heartbeat{ReaderId: r.guid.Entity, WriterId: writer.Entity, FirstSN: 1, LastSN: 5, Count: 5}, 1)
	require.Empty(t, r.Effects(), "a heartbeat whose count does not advance must be dropped")
}

func TestReaderIngestGapMarksNotAvailable(t *testing.T) {
	r := newTestReader(types.ReliabilityReliable, false)
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	r.AddProxy(writer, nil, 0)

	set := types.NewSequenceNumberSet(4)
	r.Ingest(writer.Prefix, &wire.Gap{WriterId: writer.Entity, GapStart: 1, GapList: set}, 0)

	wp := r.proxies[writer]
	require.Equal(t, types.SequenceNumber(3), wp.AvailableChangesMax())
}

func TestReaderTickEmitsAckNackForMissingChanges(t *testing.T) {
	r := newTestReader(types.ReliabilityReliable, false)
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	r.AddProxy(writer, []types.Locator{types.NewUDPv4Locator(net.IPv4(127, 0, 0, 1), 7400)}, 0)

	r.Ingest(writer.Prefix, &wire.Heartbeat{ReaderId: r.guid.Entity, WriterId: writer.Entity, FirstSN: 1, LastSN: 3, Count: 1}, 0)
	_ = r.Effects()

	r.Tick(10)
	effects := r.Effects()
	require.Len(t, effects, 1)
	msg := decodeOneMessage(t, effects[0].Message.Message)
	require.Len(t, msg.Submessages, 1)
	ackNack, ok := msg.Submessages[0].(*wire.AckNack)
	require.True(t, ok)
	require.Equal(t, types.SequenceNumber(1), ackNack.WriterSNState.Base)
	require.ElementsMatch(t, []types.SequenceNumber{1, 2, 3}, ackNack.WriterSNState.Sorted())
}

func TestReaderTickEmitsNackFragForIncompleteReassembly(t *testing.T) {
	r := newTestReader(types.ReliabilityReliable, false)
	writer := testGUID(2, types.EntityKindUserWriterWithKey)
	r.AddProxy(writer, nil, 0)

	frag1 := &wire.DataFrag{
		ReaderId: r.guid.Entity, WriterId: writer.Entity, WriterSN: 1,
		FragmentStartingNum: 1, FragmentsInSubmessage: 1, FragmentSize: 5, SampleSize: 10,
		Payload: []byte("01234"),
	}
	r.Ingest(writer.Prefix, frag1, 0)
	_ = r.Effects()

	r.Tick(20)
	effects := r.Effects()
	require.Len(t, effects, 1)
	msg := decodeOneMessage(t, effects[0].Message.Message)

	var sawNackFrag bool
	for _, sm := range msg.Submessages {
		if nf, ok := sm.(*wire.NackFrag); ok {
			sawNackFrag = true
			require.Equal(t, types.SequenceNumber(1), nf.WriterSN)
			require.Contains(t, nf.FragmentNumbers.Sorted(), types.FragmentNumber(2))
		}
	}
	require.True(t, sawNackFrag, "tick should nack the still-missing second fragment")
}
