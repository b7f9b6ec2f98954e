package wire

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// DATA submessage flags (beyond the common E bit), spec §4.1.
const (
	flagDataInlineQoS byte = 0x02 // Q
	flagDataPresent   byte = 0x04 // D
	flagDataKey       byte = 0x08 // K
)

// Data is the DATA submessage (kind 0x15): extra_flags, octets_to_inline_qos,
// reader_id, writer_id, writer_sn, optional inline_qos ParameterList,
// optional serialized_payload.
type Data struct {
	ReaderId  types.EntityId
	WriterId  types.EntityId
	WriterSN  types.SequenceNumber
	InlineQoS *ParameterList
	Payload   *SerializedPayload
	// KeyPresent, when Payload != nil, distinguishes the K flag (payload
	// represents the instance's key, e.g. a dispose) from D (payload is the
	// full sample data).
	KeyPresent bool
}

func (d *Data) Kind() SubmessageKind { return KindData }

func (d *Data) flags() byte {
	var f byte
	if d.InlineQoS != nil {
		f |= flagDataInlineQoS
	}
	if d.Payload != nil {
		if d.KeyPresent {
			f |= flagDataKey
		} else {
			f |= flagDataPresent
		}
	}
	return f
}

func (d *Data) encodeBody(e *encoder) {
	e.u16(0) // extra_flags, reserved
	// octets_to_inline_qos: bytes between this field and the start of
	// inline_qos/payload, i.e. the fixed reader_id+writer_id+writer_sn = 16.
	e.u16(16)
	e.entityId(d.ReaderId)
	e.entityId(d.WriterId)
	e.sequenceNumber(d.WriterSN)
	if d.InlineQoS != nil {
		e.raw(d.InlineQoS.Encode(e.order))
	}
	if d.Payload != nil {
		d.Payload.encode(e)
	}
}

func decodeData(flags byte, d *decoder) (*Data, error) {
	if _, err := d.u16(); err != nil { // extra_flags
		return nil, rtpserrors.NewMalformedWire("data.decode.extra_flags", err)
	}
	if _, err := d.u16(); err != nil { // octets_to_inline_qos
		return nil, rtpserrors.NewMalformedWire("data.decode.octets_to_inline_qos", err)
	}
	readerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire("data.decode.reader_id", err)
	}
	writerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire("data.decode.writer_id", err)
	}
	sn, err := d.sequenceNumber()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire("data.decode.writer_sn", err)
	}
	out := &Data{ReaderId: readerId, WriterId: writerId, WriterSN: sn}

	if flags&flagDataInlineQoS != 0 {
		pl, err := decodeParameterList(d)
		if err != nil {
			return nil, err
		}
		out.InlineQoS = &pl
	}
	if flags&(flagDataPresent|flagDataKey) != 0 {
		p, err := decodeSerializedPayload(d)
		if err != nil {
			return nil, rtpserrors.NewMalformedWire("data.decode.payload", err)
		}
		out.Payload = &p
		out.KeyPresent = flags&flagDataKey != 0
	}
	return out, nil
}
