package wire

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

const flagAckNackFinal byte = 0x02 // F

// AckNack is the ACKNACK submessage (kind 0x06): reader_id, writer_id,
// SequenceNumberSet writer_sn_state, count.
type AckNack struct {
	ReaderId      types.EntityId
	WriterId      types.EntityId
	WriterSNState types.SequenceNumberSet
	Count         int32
	Final         bool
}

func (a *AckNack) Kind() SubmessageKind { return KindAckNack }
func (a *AckNack) flags() byte {
	if a.Final {
		return flagAckNackFinal
	}
	return 0
}

func (a *AckNack) encodeBody(e *encoder) {
	e.entityId(a.ReaderId)
	e.entityId(a.WriterId)
	encodeSequenceNumberSet(e, a.WriterSNState)
	e.i32(a.Count)
}

func decodeAckNack(flags byte, d *decoder) (*AckNack, error) {
	op := "acknack.decode"
	readerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".reader_id", err)
	}
	writerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".writer_id", err)
	}
	set, err := decodeSequenceNumberSet(d)
	if err != nil {
		return nil, err
	}
	count, err := d.i32()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".count", err)
	}
	return &AckNack{
		ReaderId: readerId, WriterId: writerId, WriterSNState: set, Count: count,
		Final: flags&flagAckNackFinal != 0,
	}, nil
}
