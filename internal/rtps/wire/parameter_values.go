package wire

import (
	"encoding/binary"

	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// Typed accessors for ParameterList values (spec §4.1: "Typed accessors
// decode values under a given endian"). Each Encode* builds an
// already-4-byte-aligned value suitable for Parameter.Value; each Decode*
// parses that shape back out.

// EncodeStringParam builds the RTPS "string" value shape: a 4-byte length
// (including the trailing NUL) followed by the UTF-8 bytes and a NUL
// terminator, padded to a 4-byte boundary.
func EncodeStringParam(order binary.ByteOrder, s string) []byte {
	e := newEncoder(order)
	e.u32(uint32(len(s) + 1))
	e.raw([]byte(s))
	e.u8(0)
	e.align4()
	return e.buf
}

func DecodeStringParam(order binary.ByteOrder, b []byte) (string, error) {
	d := newDecoder(b, order, "parameter.string.decode")
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	raw, err := d.bytes(int(n))
	if err != nil {
		return "", err
	}
	if len(raw) == 0 || raw[len(raw)-1] != 0 {
		return "", rtpserrors.NewMalformedWire("parameter.string.decode", errShortRead(1, 0))
	}
	return string(raw[:len(raw)-1]), nil
}

func EncodeGUIDParam(g types.GUID) []byte {
	b := g.Bytes()
	return b[:]
}

func DecodeGUIDParam(b []byte) (types.GUID, error) {
	if len(b) != types.GuidLen {
		return types.GUID{}, rtpserrors.NewMalformedWire("parameter.guid.decode", errShortRead(types.GuidLen, len(b)))
	}
	var raw [types.GuidLen]byte
	copy(raw[:], b)
	return types.GUIDFromBytes(raw), nil
}

func EncodeLocatorParam(order binary.ByteOrder, l types.Locator) []byte {
	e := newEncoder(order)
	e.locator(l)
	return e.buf
}

func DecodeLocatorParam(order binary.ByteOrder, b []byte) (types.Locator, error) {
	d := newDecoder(b, order, "parameter.locator.decode")
	return d.locator()
}

func EncodeU32Param(order binary.ByteOrder, v uint32) []byte {
	e := newEncoder(order)
	e.u32(v)
	return e.buf
}

func DecodeU32Param(order binary.ByteOrder, b []byte) (uint32, error) {
	d := newDecoder(b, order, "parameter.u32.decode")
	return d.u32()
}

func EncodeDurationParam(order binary.ByteOrder, d types.Duration) []byte {
	e := newEncoder(order)
	e.i32(d.Seconds)
	e.u32(d.Fraction)
	return e.buf
}

func DecodeDurationParam(order binary.ByteOrder, b []byte) (types.Duration, error) {
	d := newDecoder(b, order, "parameter.duration.decode")
	sec, err := d.i32()
	if err != nil {
		return types.Duration{}, err
	}
	frac, err := d.u32()
	if err != nil {
		return types.Duration{}, err
	}
	return types.Duration{Seconds: sec, Fraction: frac}, nil
}

func EncodeKeyHashParam(h types.InstanceHandle) []byte {
	b := make([]byte, types.InstanceHandleLen)
	copy(b, h[:])
	return b
}

func DecodeKeyHashParam(b []byte) (types.InstanceHandle, error) {
	if len(b) != types.InstanceHandleLen {
		return types.InstanceHandle{}, rtpserrors.NewMalformedWire("parameter.keyhash.decode", errShortRead(types.InstanceHandleLen, len(b)))
	}
	var h types.InstanceHandle
	copy(h[:], b)
	return h, nil
}
