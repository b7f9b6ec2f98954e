package writer

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
	prefix[0] = 0xAA
	return types.GUID{Prefix: prefix, Entity: types.EntityId{Key: [3]byte{0, 0, lastKeyByte}, Kind: kind}}
}

func newTestWriter(reliability types.ReliabilityKind) *Writer {
	return New(Config{
		GUID:                    testGUID(1, types.EntityKindUserWriterWithKey),
		Reliability:             reliability,
		History:                 types.HistoryQos{Kind: types.HistoryKeepAll},
		FragmentSize:            0,
		NackResponseDelayMillis: 50,
	})
}

func decodeOneMessage(t *testing.T, raw []byte) wire.Message {
	t.Helper()
	msg, err := wire.DecodeMessage(raw)
	require.NoError(t, err)
	return msg
}

func TestWriterAddChangeEmitsData(t *testing.T) {
	w := newTestWriter(types.ReliabilityBestEffort)
	reader := testGUID(2, types.EntityKindUserReaderWithKey)
	w.AddProxy(reader, []types.Locator{types.NewUDPv4Locator(net.IPv4(127, 0, 0, 1), 7400)}, false)

	c := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("hello"), nil, 1000)
	w.AddChange(c, false, 1000)

	effects := w.Effects()
	require.Len(t, effects, 1)
	require.Equal(t, effect.KindMessage, effects[0].Kind)

	msg := decodeOneMessage(t, effects[0].Message.Message)
	require.Len(t, msg.Submessages, 1)
	data, ok := msg.Submessages[0].(*wire.Data)
	require.True(t, ok)
	require.Equal(t, c.SequenceNumber, data.WriterSN)
	require.Equal(t, []byte("hello"), data.Payload.Data)
}

func TestWriterAddChangePiggybacksHeartbeatWhenReliable(t *testing.T) {
	w := newTestWriter(types.ReliabilityReliable)
	reader := testGUID(2, types.EntityKindUserReaderWithKey)
	w.AddProxy(reader, nil, false)

	c := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("x"), nil, 0)
	w.AddChange(c, true, 0)

	effects := w.Effects()
	require.Len(t, effects, 1)
	msg := decodeOneMessage(t, effects[0].Message.Message)
	require.Len(t, msg.Submessages, 2)
	_, isData := msg.Submessages[0].(*wire.Data)
	require.True(t, isData)
	_, isHeartbeat := msg.Submessages[1].(*wire.Heartbeat)
	require.True(t, isHeartbeat)
}

func TestWriterIngestAckNackSchedulesRetransmitTick(t *testing.T) {
	w := newTestWriter(types.ReliabilityReliable)
	reader := testGUID(2, types.EntityKindUserReaderWithKey)
	w.AddProxy(reader, nil, false)

	c1 := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("1"), nil, 0)
	w.AddChange(c1, false, 0)
	_ = w.Effects() // drain the DATA emitted above

	ackNack := &wire.AckNack{
		ReaderId: reader.Entity, WriterId: w.guid.Entity,
		WriterSNState: func() types.SequenceNumberSet {
			s := types.NewSequenceNumberSet(c1.SequenceNumber)
			return s
		}(),
		Count: 1,
	}
	w.Ingest(reader.Prefix, ackNack, 10)

	effects := w.Effects()
	require.Len(t, effects, 1)
	require.Equal(t, effect.KindScheduleTick, effects[0].Kind)
	require.Equal(t, effect.TimerWriter, effects[0].ScheduleTick.Id)
}

func TestWriterIngestAckNackRejectsLoopback(t *testing.T) {
	w := newTestWriter(types.ReliabilityReliable)
	ackNack := &wire.AckNack{ReaderId: types.EntityIdUnknown, WriterId: w.guid.Entity, Count: 1}
	w.Ingest(w.guid.Prefix, ackNack, 0)
	require.Empty(t, w.Effects())
}

func TestWriterTickIsNoopForBestEffort(t *testing.T) {
	w := newTestWriter(types.ReliabilityBestEffort)
	reader := testGUID(2, types.EntityKindUserReaderWithKey)
	w.AddProxy(reader, nil, false)

	c1 := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("1"), nil, 0)
	w.AddChange(c1, false, 0)
	_ = w.Effects() // drain the DATA emitted above

	w.Tick(10)
	require.Empty(t, w.Effects(), "a best-effort writer must never build a HEARTBEAT or retransmit on tick")
}

func TestWriterIngestDropsAckNackForBestEffort(t *testing.T) {
	w := newTestWriter(types.ReliabilityBestEffort)
	reader := testGUID(2, types.EntityKindUserReaderWithKey)
	w.AddProxy(reader, nil, false)

	c1 := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("1"), nil, 0)
	w.AddChange(c1, false, 0)
	_ = w.Effects()

	ackNack := &wire.AckNack{
		ReaderId: reader.Entity, WriterId: w.guid.Entity,
		WriterSNState: types.NewSequenceNumberSet(c1.SequenceNumber),
		Count:         1,
	}
	w.Ingest(reader.Prefix, ackNack, 10)
	require.Empty(t, w.Effects(), "a best-effort writer must never act on an inbound ACKNACK")
}

func TestWriterTickRetransmitsRequestedChange(t *testing.T) {
	w := newTestWriter(types.ReliabilityReliable)
	reader := testGUID(2, types.EntityKindUserReaderWithKey)
	w.AddProxy(reader, []types.Locator{types.NewUDPv4Locator(net.IPv4(127, 0, 0, 1), 7410)}, false)

	c1 := w.NewChange(types.ChangeKindAlive, types.InstanceHandle{}, []byte("1"), nil, 0)
	w.AddChange(c1, false, 0)
	_ = w.Effects()

	rp := w.proxies[reader]
	rp.RequestedChangesSet([]types.SequenceNumber{c1.SequenceNumber})

	w.Tick(20)
	effects := w.Effects()
	require.Len(t, effects, 1)
	msg := decodeOneMessage(t, effects[0].Message.Message)

	var sawData bool
	for _, sm := range msg.Submessages {
		if d, ok := sm.(*wire.Data); ok {
			sawData = true
			require.Equal(t, c1.SequenceNumber, d.WriterSN)
		}
	}
	require.True(t, sawData, "tick should retransmit the requested change as DATA")
}
