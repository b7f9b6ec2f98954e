package wire

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// DataFrag is the DATA_FRAG submessage (kind 0x16): as Data, plus
// fragment_starting_num, fragments_in_submessage, fragment_size, sample_size.
type DataFrag struct {
	ReaderId              types.EntityId
	WriterId              types.EntityId
	WriterSN              types.SequenceNumber
	FragmentStartingNum   types.FragmentNumber
	FragmentsInSubmessage uint16
	FragmentSize          uint16
	SampleSize            uint32
	InlineQoS             *ParameterList
	Payload               []byte // raw fragment bytes, no SerializedPayload header repeated per fragment
}

func (d *DataFrag) Kind() SubmessageKind { return KindDataFrag }

func (d *DataFrag) flags() byte {
	var f byte
	if d.InlineQoS != nil {
		f |= flagDataInlineQoS
	}
	return f
}

func (d *DataFrag) encodeBody(e *encoder) {
	e.u16(0)  // extra_flags
	e.u16(28) // octets_to_inline_qos: reader_id+writer_id+writer_sn+frag fields = 16+4+2+2+4
	e.entityId(d.ReaderId)
	e.entityId(d.WriterId)
	e.sequenceNumber(d.WriterSN)
	e.u32(uint32(d.FragmentStartingNum))
	e.u16(d.FragmentsInSubmessage)
	e.u16(d.FragmentSize)
	e.u32(d.SampleSize)
	if d.InlineQoS != nil {
		e.raw(d.InlineQoS.Encode(e.order))
	}
	e.raw(d.Payload)
}

func decodeDataFrag(flags byte, d *decoder) (*DataFrag, error) {
	op := "data_frag.decode"
	if _, err := d.u16(); err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".extra_flags", err)
	}
	if _, err := d.u16(); err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".octets_to_inline_qos", err)
	}
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
	startNum, err := d.u32()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".fragment_starting_num", err)
	}
	fragsIn, err := d.u16()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".fragments_in_submessage", err)
	}
	fragSize, err := d.u16()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".fragment_size", err)
	}
	sampleSize, err := d.u32()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".sample_size", err)
	}
	out := &DataFrag{
		ReaderId: readerId, WriterId: writerId, WriterSN: sn,
		FragmentStartingNum: types.FragmentNumber(startNum), FragmentsInSubmessage: fragsIn,
		FragmentSize: fragSize, SampleSize: sampleSize,
	}
	if flags&flagDataInlineQoS != 0 {
		pl, err := decodeParameterList(d)
		if err != nil {
			return nil, err
		}
		out.InlineQoS = &pl
	}
	out.Payload = append([]byte(nil), d.buf[d.off:]...)
	d.off = len(d.buf)
	return out, nil
}
