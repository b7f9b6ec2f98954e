package wire

import (
	"encoding/binary"

	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// MessageHeaderLen is the fixed 20-byte width of the RTPS Message Header
// (spec §4.1): magic "RTPS", protocol version, vendor id, 12-byte
// GuidPrefix.
const MessageHeaderLen = 20

var magic = [4]byte{'R', 'T', 'P', 'S'}

// MessageHeader is the fixed prefix of every RTPS Message.
type MessageHeader struct {
	Version    types.ProtocolVersion
	VendorId   types.VendorId
	GuidPrefix types.GuidPrefix
}

// Message is a full RTPS Message: a Header followed by a sequence of
// Submessages (spec §4.1). The header is always big-endian; each
// submessage selects its own endianness independently via its flags.
type Message struct {
	Header      MessageHeader
	Submessages []Submessage
}

// Encode serializes m to its wire form.
func (m Message) Encode(order binary.ByteOrder) []byte {
	out := make([]byte, 0, MessageHeaderLen)
	out = append(out, magic[:]...)
	out = append(out, m.Header.Version.Major, m.Header.Version.Minor)
	out = append(out, m.Header.VendorId[:]...)
	out = append(out, m.Header.GuidPrefix[:]...)
	for _, sm := range m.Submessages {
		out = append(out, encodeSubmessage(order, sm)...)
	}
	return out
}

// DecodeMessage parses a framed wire buffer into a Message. Per submessage
// errors terminate only that submessage (spec §7: "remaining submessages
// in the datagram are still processed"): a submessage whose body fails to
// decode is omitted and its error is not returned. A bad header, a
// truncated submessage header, or a submessage_length overrunning the
// buffer stops decoding; that error is returned alongside the submessages
// decoded before it, so callers can choose to keep partial results.
func DecodeMessage(buf []byte) (Message, error) {
	if len(buf) < MessageHeaderLen {
		return Message{}, rtpserrors.NewMalformedWire("message.decode.header", errShortRead(MessageHeaderLen, len(buf)))
	}
	if buf[0] != magic[0] || buf[1] != magic[1] || buf[2] != magic[2] || buf[3] != magic[3] {
		return Message{}, rtpserrors.NewMalformedWire("message.decode.magic", errBadMagic(buf[:4]))
	}
	hdr := MessageHeader{
		Version:  types.ProtocolVersion{Major: buf[4], Minor: buf[5]},
		VendorId: types.VendorId{buf[6], buf[7]},
	}
	copy(hdr.GuidPrefix[:], buf[8:20])

	msg := Message{Header: hdr}
	off := MessageHeaderLen
	for off < len(buf) {
		if len(buf)-off < SubmessageHeaderLen {
			return msg, rtpserrors.NewMalformedWire("message.decode.submessage_header", errShortRead(SubmessageHeaderLen, len(buf)-off))
		}
		kind := SubmessageKind(buf[off])
		flags := buf[off+1]
		order := endianOf(flags)
		length := order.Uint16(buf[off+2 : off+4])
		bodyStart := off + SubmessageHeaderLen
		bodyEnd := bodyStart + int(length)
		if bodyEnd > len(buf) {
			return msg, rtpserrors.NewMalformedWire("message.decode.submessage_length", errShortRead(int(length), len(buf)-bodyStart))
		}
		body := buf[bodyStart:bodyEnd]
		d := newDecoder(body, order, "submessage.decode."+kind.String())
		sm, err := decodeSubmessageBody(kind, flags, d)
		if err != nil {
			// Per-submessage failure: skip this submessage only, keep
			// decoding the rest of the datagram (spec §7).
			off = bodyEnd
			continue
		}
		msg.Submessages = append(msg.Submessages, sm)
		off = bodyEnd
	}
	return msg, nil
}

type badMagicError struct{ got [4]byte }

func errBadMagic(b []byte) error {
	var g [4]byte
	copy(g[:], b)
	return &badMagicError{got: g}
}
func (e *badMagicError) Error() string {
	return "bad message magic: got " + string(e.got[:])
}
