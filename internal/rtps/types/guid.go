package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// GuidPrefixLen and EntityIdLen are the fixed wire widths of a GUID's two
// halves (spec §3: GUID = GuidPrefix(12 bytes) ⊕ EntityId(3-byte key + 1-byte kind)).
const (
	GuidPrefixLen = 12
	EntityIdLen   = 4
	GuidLen       = GuidPrefixLen + EntityIdLen
)

// GuidPrefix identifies a participant; it is the random/configured part of
// every GUID a participant's entities share.
type GuidPrefix [GuidPrefixLen]byte

func (p GuidPrefix) String() string { return hex.EncodeToString(p[:]) }

// IsUnknown reports whether p is the all-zero GuidPrefix.
func (p GuidPrefix) IsUnknown() bool { return p == GuidPrefix{} }

// EntityKind is the fourth byte of an EntityId; it tags the entity's role
// (user-defined writer/reader, builtin participant, builtin SEDP/SPDP
// endpoint, ...). Builtin kinds are the reserved values in spec §6.
type EntityKind byte

const (
	EntityKindUnknown              EntityKind = 0x00
	EntityKindBuiltinParticipant   EntityKind = 0xC1
	EntityKindBuiltinWriterWithKey EntityKind = 0xC2
	EntityKindBuiltinReaderWithKey EntityKind = 0xC7
	EntityKindUserWriterWithKey    EntityKind = 0x02
	EntityKindUserReaderWithKey    EntityKind = 0x07
	EntityKindUserWriterNoKey      EntityKind = 0x03
	EntityKindUserReaderNoKey      EntityKind = 0x04
)

// EntityId is the 4-byte suffix of a GUID: a 3-byte key plus a 1-byte kind.
type EntityId struct {
	Key  [3]byte
	Kind EntityKind
}

func (e EntityId) String() string {
	return fmt.Sprintf("%02x%02x%02x.%02x", e.Key[0], e.Key[1], e.Key[2], byte(e.Kind))
}

// Bytes serializes the EntityId in its on-wire order: key then kind.
func (e EntityId) Bytes() [4]byte {
	return [4]byte{e.Key[0], e.Key[1], e.Key[2], byte(e.Kind)}
}

// EntityIdFromBytes parses a 4-byte wire EntityId.
func EntityIdFromBytes(b [4]byte) EntityId {
	return EntityId{Key: [3]byte{b[0], b[1], b[2]}, Kind: EntityKind(b[3])}
}

// IsUnknown reports whether e is ENTITYID_UNKNOWN (all zero), the wildcard
// accepted by Writer/Reader ingest per spec §4.6/§4.7.
func (e EntityId) IsUnknown() bool {
	return e.Key == [3]byte{} && e.Kind == EntityKindUnknown
}

// Reserved EntityIds (spec §6). Every implementation must agree on these
// exact byte values for discovery to interoperate.
var (
	EntityIdUnknown = EntityId{}

	EntityIdParticipant = EntityId{Key: [3]byte{0x00, 0x00, 0x01}, Kind: EntityKindBuiltinParticipant}

	EntityIdSPDPAnnouncer = EntityId{Key: [3]byte{0x00, 0x01, 0x00}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdSPDPDetector  = EntityId{Key: [3]byte{0x00, 0x01, 0x00}, Kind: EntityKindBuiltinReaderWithKey}

	EntityIdSEDPPubAnnouncer = EntityId{Key: [3]byte{0x00, 0x00, 0x03}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdSEDPPubDetector  = EntityId{Key: [3]byte{0x00, 0x00, 0x03}, Kind: EntityKindBuiltinReaderWithKey}

	EntityIdSEDPSubAnnouncer = EntityId{Key: [3]byte{0x00, 0x00, 0x04}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdSEDPSubDetector  = EntityId{Key: [3]byte{0x00, 0x00, 0x04}, Kind: EntityKindBuiltinReaderWithKey}

	EntityIdParticipantMessageWriter = EntityId{Key: [3]byte{0x00, 0x02, 0x00}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdParticipantMessageReader = EntityId{Key: [3]byte{0x00, 0x02, 0x00}, Kind: EntityKindBuiltinReaderWithKey}

	EntityIdSEDPTopicsAnnouncer = EntityId{Key: [3]byte{0x00, 0x00, 0x02}, Kind: EntityKindBuiltinWriterWithKey}
	EntityIdSEDPTopicsDetector  = EntityId{Key: [3]byte{0x00, 0x00, 0x02}, Kind: EntityKindBuiltinReaderWithKey}
)

// GUID is the 16-byte global identifier of an RTPS entity.
type GUID struct {
	Prefix GuidPrefix
	Entity EntityId
}

func NewGUID(prefix GuidPrefix, entity EntityId) GUID { return GUID{Prefix: prefix, Entity: entity} }

func (g GUID) String() string { return g.Prefix.String() + ":" + g.Entity.String() }

// Bytes serializes the full 16-byte GUID: prefix then entity.
func (g GUID) Bytes() [GuidLen]byte {
	var out [GuidLen]byte
	copy(out[:GuidPrefixLen], g.Prefix[:])
	eb := g.Entity.Bytes()
	copy(out[GuidPrefixLen:], eb[:])
	return out
}

// GUIDFromBytes parses a 16-byte wire GUID.
func GUIDFromBytes(b [GuidLen]byte) GUID {
	var prefix GuidPrefix
	copy(prefix[:], b[:GuidPrefixLen])
	var eb [4]byte
	copy(eb[:], b[GuidPrefixLen:])
	return GUID{Prefix: prefix, Entity: EntityIdFromBytes(eb)}
}

// VendorId identifies the RTPS implementation that produced a message
// (header field, spec §4.1).
type VendorId [2]byte

// ProtocolVersion is the RTPS wire protocol version in a Message Header.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// ProtocolVersion24 is the version this codec targets (spec §6: "wire
// interoperable with OMG DDS-RTPS 2.4").
var ProtocolVersion24 = ProtocolVersion{Major: 2, Minor: 4}

// VendorIdThis identifies this implementation on the wire. The OMG vendor
// registry reserves 0x00,0x00 for "unknown"; real implementations register
// a pair. This module uses an unregistered-but-distinct placeholder.
var VendorIdThis = VendorId{0x01, 0x0f}

// BigEndianPutUint32 / LittleEndianPutUint32 write v into b in a fixed byte
// order. The wire codec does not call them; it writes through its encoder,
// whose byte order is chosen per submessage.
func BigEndianPutUint32(b []byte, v uint32)    { binary.BigEndian.PutUint32(b, v) }
func LittleEndianPutUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
