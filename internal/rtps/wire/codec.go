package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// endianOf returns the byte order a submessage's flags select: bit0 (E) set
// means little-endian, clear means big-endian (spec §4.1). Message headers
// are always big-endian regardless.
func endianOf(flags byte) binary.ByteOrder {
	if flags&FlagEndian != 0 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func flagsFor(order binary.ByteOrder) byte {
	if order == binary.LittleEndian {
		return FlagEndian
	}
	return 0
}

// decoder walks a byte slice with bounds checking, returning a
// *rtpserrors.MalformedWireError (spec §7) on any short read instead of
// panicking.
type decoder struct {
	buf   []byte
	off   int
	order binary.ByteOrder
	op    string
}

func newDecoder(buf []byte, order binary.ByteOrder, op string) *decoder {
	return &decoder{buf: buf, order: order, op: op}
}

func (d *decoder) remaining() int { return len(d.buf) - d.off }

func (d *decoder) need(n int) error {
	if d.remaining() < n {
		return rtpserrors.NewMalformedWire(d.op, errShortRead(n, d.remaining()))
	}
	return nil
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) u8() (uint8, error) {
	b, err := d.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u16() (uint16, error) {
	b, err := d.bytes(2)
	if err != nil {
		return 0, err
	}
	return d.order.Uint16(b), nil
}

func (d *decoder) i16() (int16, error) {
	v, err := d.u16()
	return int16(v), err
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.bytes(4)
	if err != nil {
		return 0, err
	}
	return d.order.Uint32(b), nil
}

func (d *decoder) i32() (int32, error) {
	v, err := d.u32()
	return int32(v), err
}

func (d *decoder) entityId() (types.EntityId, error) {
	b, err := d.bytes(4)
	if err != nil {
		return types.EntityId{}, err
	}
	var raw [4]byte
	copy(raw[:], b)
	return types.EntityIdFromBytes(raw), nil
}

func (d *decoder) sequenceNumber() (types.SequenceNumber, error) {
	hi, err := d.i32()
	if err != nil {
		return 0, err
	}
	lo, err := d.u32()
	if err != nil {
		return 0, err
	}
	return types.SequenceNumberFromParts(hi, lo), nil
}

func (d *decoder) guidPrefix() (types.GuidPrefix, error) {
	b, err := d.bytes(types.GuidPrefixLen)
	if err != nil {
		return types.GuidPrefix{}, err
	}
	var p types.GuidPrefix
	copy(p[:], b)
	return p, nil
}

func (d *decoder) locator() (types.Locator, error) {
	b, err := d.bytes(types.LocatorWireLen)
	if err != nil {
		return types.Locator{}, err
	}
	return types.DecodeLocator(b, d.order), nil
}

func (d *decoder) timestamp() (types.Timestamp, error) {
	sec, err := d.i32()
	if err != nil {
		return types.Timestamp{}, err
	}
	frac, err := d.u32()
	if err != nil {
		return types.Timestamp{}, err
	}
	return types.Timestamp{Seconds: sec, Fraction: frac}, nil
}

// align4 advances past padding bytes so the next read starts 4-byte aligned
// relative to the start of this decoder's buffer.
func (d *decoder) align4() {
	if rem := d.off % 4; rem != 0 {
		d.off += 4 - rem
	}
}

// encoder accumulates wire bytes; all write methods (u8, u16, u32, ...) are infallible since the
// backing slice grows as needed (mirrors the teacher's preference for
// fixed-size scratch buffers, scaled up to a growable one since submessage
// bodies here are variable length).
type encoder struct {
	buf   []byte
	order binary.ByteOrder
}

func newEncoder(order binary.ByteOrder) *encoder { return &encoder{order: order} }

func (e *encoder) u8(v uint8) { e.buf = append(e.buf, v) }
func (e *encoder) u16(v uint16) {
	var b [2]byte
	e.order.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}
func (e *encoder) i16(v int16) { e.u16(uint16(v)) }
func (e *encoder) u32(v uint32) {
	var b [4]byte
	e.order.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}
func (e *encoder) i32(v int32)  { e.u32(uint32(v)) }
func (e *encoder) raw(b []byte) { e.buf = append(e.buf, b...) }

func (e *encoder) entityId(id types.EntityId) {
	b := id.Bytes()
	e.raw(b[:])
}

func (e *encoder) sequenceNumber(s types.SequenceNumber) {
	e.i32(s.High())
	e.u32(s.Low())
}

func (e *encoder) guidPrefix(p types.GuidPrefix) { e.raw(p[:]) }

func (e *encoder) locator(l types.Locator) {
	var b [types.LocatorWireLen]byte
	l.EncodeTo(b[:], e.order)
	e.raw(b[:])
}

func (e *encoder) timestamp(t types.Timestamp) {
	e.i32(t.Seconds)
	e.u32(t.Fraction)
}

func (e *encoder) align4() {
	for e.len()%4 != 0 {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) len() int { return len(e.buf) }

func errShortRead(want, have int) error {
	return fmt.Errorf("short read: need %d bytes, have %d", want, have)
}
