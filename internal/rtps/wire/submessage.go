package wire

import (
	"encoding/binary"

	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// SubmessageHeaderLen is the fixed 4-byte width of every submessage header
// (spec §4.1): 1-byte kind, 1-byte flags, 2-byte length in the
// submessage's own endianness.
const SubmessageHeaderLen = 4

// Submessage is the tagged union every decoded submessage implements
// (design note §9: "Submessage is a tagged union over the fixed set in
// §4.1. Avoid open inheritance hierarchies.").
type Submessage interface {
	Kind() SubmessageKind
	// flags returns this submessage's kind-specific flag bits (the E bit is
	// managed by the codec, not by individual submessages).
	flags() byte
	// encodeBody appends the wire body (excluding the 4-byte submessage
	// header) to e, which is already set to this submessage's chosen byte
	// order.
	encodeBody(e *encoder)
}

// decodeSubmessageBody dispatches on kind to parse a submessage body out of
// d, which has already consumed the 4-byte submessage header and is
// positioned at the start of the body with exactly bodyLen bytes
// remaining before the next submessage (the caller truncates d.buf to
// that window).
func decodeSubmessageBody(kind SubmessageKind, flags byte, d *decoder) (Submessage, error) {
	switch kind {
	case KindData:
		return decodeData(flags, d)
	case KindDataFrag:
		return decodeDataFrag(flags, d)
	case KindHeartbeat:
		return decodeHeartbeat(flags, d)
	case KindHeartbeatFrag:
		return decodeHeartbeatFrag(flags, d)
	case KindAckNack:
		return decodeAckNack(flags, d)
	case KindNackFrag:
		return decodeNackFrag(flags, d)
	case KindGap:
		return decodeGap(flags, d)
	case KindInfoTS:
		return decodeInfoTS(flags, d)
	case KindInfoSrc:
		return decodeInfoSrc(flags, d)
	case KindInfoDst:
		return decodeInfoDst(flags, d)
	case KindInfoReply:
		return decodeInfoReply(flags, d)
	case KindPad:
		return decodePad(flags, d)
	case KindRTPSHeaderExt:
		return decodeRTPSHeaderExt(flags, d)
	default:
		return nil, rtpserrors.NewMalformedWire("submessage.decode", errUnknownKind(kind))
	}
}

type unknownKindError struct{ kind SubmessageKind }

func errUnknownKind(k SubmessageKind) error { return &unknownKindError{kind: k} }
func (e *unknownKindError) Error() string {
	return "unknown submessage kind 0x" + hexByte(byte(e.kind))
}

func hexByte(b byte) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0xf]})
}

// encodeSubmessage returns one submessage's header and body encoded using
// order for this submessage's own endianness (independent from other
// submessages in the same Message, spec §4.1).
func encodeSubmessage(order binary.ByteOrder, sm Submessage) []byte {
	body := newEncoder(order)
	sm.encodeBody(body)

	header := newEncoder(binary.BigEndian) // header byte order is irrelevant beyond kind/flags; length below uses `order`
	header.u8(byte(sm.Kind()))
	header.u8(sm.flags() | flagsFor(order))
	var lenBuf [2]byte
	order.PutUint16(lenBuf[:], uint16(len(body.buf)))
	header.raw(lenBuf[:])

	out := make([]byte, 0, len(header.buf)+len(body.buf))
	out = append(out, header.buf...)
	out = append(out, body.buf...)
	return out
}
