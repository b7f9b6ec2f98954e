package wire

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

const (
	flagHeartbeatFinal      byte = 0x02 // F
	flagHeartbeatLiveliness byte = 0x04 // L
	flagHeartbeatGroupInfo  byte = 0x08 // G (this implementation's extension bit for optional group info)
)

// Heartbeat is the HEARTBEAT submessage (kind 0x07): reader_id, writer_id,
// first_sn, last_sn, count, optional group info.
type Heartbeat struct {
	ReaderId   types.EntityId
	WriterId   types.EntityId
	FirstSN    types.SequenceNumber
	LastSN     types.SequenceNumber
	Count      int32
	Final      bool
	Liveliness bool
	GroupInfo  *uint32
}

func (h *Heartbeat) Kind() SubmessageKind { return KindHeartbeat }

func (h *Heartbeat) flags() byte {
	var f byte
	if h.Final {
		f |= flagHeartbeatFinal
	}
	if h.Liveliness {
		f |= flagHeartbeatLiveliness
	}
	if h.GroupInfo != nil {
		f |= flagHeartbeatGroupInfo
	}
	return f
}

func (h *Heartbeat) encodeBody(e *encoder) {
	e.entityId(h.ReaderId)
	e.entityId(h.WriterId)
	e.sequenceNumber(h.FirstSN)
	e.sequenceNumber(h.LastSN)
	e.i32(h.Count)
	if h.GroupInfo != nil {
		e.u32(*h.GroupInfo)
	}
}

func decodeHeartbeat(flags byte, d *decoder) (*Heartbeat, error) {
	op := "heartbeat.decode"
	readerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".reader_id", err)
	}
	writerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".writer_id", err)
	}
	first, err := d.sequenceNumber()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".first_sn", err)
	}
	last, err := d.sequenceNumber()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".last_sn", err)
	}
	count, err := d.i32()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".count", err)
	}
	out := &Heartbeat{
		ReaderId: readerId, WriterId: writerId, FirstSN: first, LastSN: last, Count: count,
		Final: flags&flagHeartbeatFinal != 0, Liveliness: flags&flagHeartbeatLiveliness != 0,
	}
	if flags&flagHeartbeatGroupInfo != 0 {
		gi, err := d.u32()
		if err != nil {
			return nil, rtpserrors.NewMalformedWire(op+".group_info", err)
		}
		out.GroupInfo = &gi
	}
	return out, nil
}
