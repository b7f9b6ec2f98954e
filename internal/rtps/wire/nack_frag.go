package wire

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// NackFrag is the NACK_FRAG submessage (kind 0x12): reader_id, writer_id,
// writer_sn, FragmentNumberSet, count.
type NackFrag struct {
	ReaderId        types.EntityId
	WriterId        types.EntityId
	WriterSN        types.SequenceNumber
	FragmentNumbers types.FragmentNumberSet
	Count           int32
}

func (n *NackFrag) Kind() SubmessageKind { return KindNackFrag }
func (n *NackFrag) flags() byte          { return 0 }

func (n *NackFrag) encodeBody(e *encoder) {
	e.entityId(n.ReaderId)
	e.entityId(n.WriterId)
	e.sequenceNumber(n.WriterSN)
	encodeFragmentNumberSet(e, n.FragmentNumbers)
	e.i32(n.Count)
}

func decodeNackFrag(flags byte, d *decoder) (*NackFrag, error) {
	op := "nack_frag.decode"
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
	set, err := decodeFragmentNumberSet(d)
	if err != nil {
		return nil, err
	}
	count, err := d.i32()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".count", err)
	}
	return &NackFrag{ReaderId: readerId, WriterId: writerId, WriterSN: sn, FragmentNumbers: set, Count: count}, nil
}
