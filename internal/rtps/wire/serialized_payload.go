package wire

import "encoding/binary"

// Encapsulation identifiers for the 4-byte SerializedPayload header
// (representation_identifier + representation_options). Typed CDR
// (de)serialization of the payload body is an explicit non-goal (spec §1);
// this codec treats the payload as an opaque byte string and only needs the
// header to round-trip bit-exactly.
const (
	EncapsulationCDRBE uint16 = 0x0000
	EncapsulationCDRLE uint16 = 0x0001
)

// SerializedPayload is the DATA/DATA_FRAG payload: a 4-byte encapsulation
// header followed by opaque sample bytes.
type SerializedPayload struct {
	Encapsulation uint16
	Options       uint16
	Data          []byte
}

func (p SerializedPayload) encode(e *encoder) {
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], p.Encapsulation)
	e.raw(hdr[:])
	binary.BigEndian.PutUint16(hdr[:], p.Options)
	e.raw(hdr[:])
	e.raw(p.Data)
}

func decodeSerializedPayload(d *decoder) (SerializedPayload, error) {
	var p SerializedPayload
	enc, err := d.bytes(2)
	if err != nil {
		return p, err
	}
	p.Encapsulation = binary.BigEndian.Uint16(enc)
	opt, err := d.bytes(2)
	if err != nil {
		return p, err
	}
	p.Options = binary.BigEndian.Uint16(opt)
	p.Data = append([]byte(nil), d.buf[d.off:]...)
	d.off = len(d.buf)
	return p, nil
}

// WireLen returns the encoded size of p.
func (p SerializedPayload) WireLen() int { return 4 + len(p.Data) }
