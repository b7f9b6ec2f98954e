package wire

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// HeartbeatFrag is the HEARTBEAT_FRAG submessage (kind 0x13): reader_id,
// writer_id, writer_sn, last_fragment_num, count.
type HeartbeatFrag struct {
	ReaderId        types.EntityId
	WriterId        types.EntityId
	WriterSN        types.SequenceNumber
	LastFragmentNum types.FragmentNumber
	Count           int32
}

func (h *HeartbeatFrag) Kind() SubmessageKind { return KindHeartbeatFrag }
func (h *HeartbeatFrag) flags() byte          { return 0 }

func (h *HeartbeatFrag) encodeBody(e *encoder) {
	e.entityId(h.ReaderId)
	e.entityId(h.WriterId)
	e.sequenceNumber(h.WriterSN)
	e.u32(uint32(h.LastFragmentNum))
	e.i32(h.Count)
}

func decodeHeartbeatFrag(flags byte, d *decoder) (*HeartbeatFrag, error) {
	op := "heartbeat_frag.decode"
	readerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".reader_id", err)
	}
	writerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".writer_id", err)
	}
	sn, err := d.sequenceNumber()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".writer_sn", err)
	}
	lastFrag, err := d.u32()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".last_fragment_num", err)
	}
	count, err := d.i32()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".count", err)
	}
	return &HeartbeatFrag{
		ReaderId: readerId, WriterId: writerId, WriterSN: sn,
		LastFragmentNum: types.FragmentNumber(lastFrag), Count: count,
	}, nil
}
