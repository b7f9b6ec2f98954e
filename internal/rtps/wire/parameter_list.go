package wire

import (
	"encoding/binary"

	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// Parameter is one (parameter_id, value) entry of a ParameterList. Length
// and 4-byte padding are wire concerns the codec handles: Encode pads Value
// itself, so a Value passed to Add needs no pad bytes. On decode, Value
// holds every byte the length field covers, including any pad bytes.
type Parameter struct {
	Id    ParameterId
	Value []byte
}

// ParameterList is a stream of Parameters terminated by PID_SENTINEL (spec
// §4.1). PID_PAD entries are dropped on decode, matching "PID_PAD entries
// are skipped on read".
type ParameterList struct {
	Params []Parameter
}

// Get returns the first parameter with the given id, if any.
func (pl ParameterList) Get(id ParameterId) (Parameter, bool) {
	for _, p := range pl.Params {
		if p.Id == id {
			return p, true
		}
	}
	return Parameter{}, false
}

// Add appends a parameter.
func (pl *ParameterList) Add(id ParameterId, value []byte) {
	pl.Params = append(pl.Params, Parameter{Id: id, Value: value})
}

// Encode serializes pl under the given byte order, including the
// terminating PID_SENTINEL with zero length, each value padded to a 4-byte
// boundary (spec §4.1).
func (pl ParameterList) Encode(order binary.ByteOrder) []byte {
	e := newEncoder(order)
	for _, p := range pl.Params {
		padded := paddedLen(len(p.Value))
		e.u16(uint16(p.Id))
		e.u16(uint16(padded))
		e.raw(p.Value)
		for i := 0; i < padded-len(p.Value); i++ {
			e.u8(0)
		}
	}
	e.u16(uint16(PidSentinel))
	e.u16(0)
	return e.buf
}

// paddedLen rounds n up to the next multiple of 4, matching the wire rule
// "each value padded to 4-byte boundary".
func paddedLen(n int) int { return (n + 3) &^ 3 }

// DecodeParameterList parses a standalone ParameterList from buf, e.g. a
// discovery CacheChange payload that is nothing but a ParameterList rather
// than a DATA submessage's inline_qos or serialized payload. Trailing bytes
// after PID_SENTINEL are ignored.
func DecodeParameterList(buf []byte, order binary.ByteOrder) (ParameterList, error) {
	d := newDecoder(buf, order, "parameter_list.decode")
	return decodeParameterList(d)
}

// decodeParameterList parses a ParameterList from buf starting at the
// current decoder offset, consuming through (and including) the
// PID_SENTINEL. Returns MalformedWireError if the sentinel is never found.
func decodeParameterList(d *decoder) (ParameterList, error) {
	var pl ParameterList
	for {
		if d.remaining() < 4 {
			return pl, rtpserrors.NewMalformedWire("parameter_list.decode", errShortRead(4, d.remaining()))
		}
		idRaw, err := d.u16()
		if err != nil {
			return pl, rtpserrors.NewMalformedWire("parameter_list.decode.id", err)
		}
		id := ParameterId(idRaw)
		length, err := d.u16()
		if err != nil {
			return pl, rtpserrors.NewMalformedWire("parameter_list.decode.length", err)
		}
		if id == PidSentinel {
			break
		}
		val, err := d.bytes(int(length))
		if err != nil {
			return pl, rtpserrors.NewMalformedWire("parameter_list.decode.value", err)
		}
		if id == PidPad {
			continue
		}
		cp := append([]byte(nil), val...)
		pl.Params = append(pl.Params, Parameter{Id: id, Value: cp})
	}
	return pl, nil
}
