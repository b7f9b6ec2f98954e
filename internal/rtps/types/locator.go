package types

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Locator kinds (spec §6).
const (
	LocatorKindInvalid uint32 = 0
	LocatorKindUDPv4   uint32 = 1
	LocatorKindUDPv6   uint32 = 2
)

// Locator is a transport address: kind (4 bytes), port (4 bytes), address
// (16 bytes; IPv4 occupies the last 4 bytes of the address field).
type Locator struct {
	Kind    uint32
	Port    uint32
	Address [16]byte
}

// NewUDPv4Locator builds a Locator from an IPv4 address and port.
func NewUDPv4Locator(ip net.IP, port uint32) Locator {
	var addr [16]byte
	v4 := ip.To4()
	copy(addr[12:], v4)
	return Locator{Kind: LocatorKindUDPv4, Port: port, Address: addr}
}

// IP returns the net.IP this locator addresses.
func (l Locator) IP() net.IP {
	if l.Kind == LocatorKindUDPv4 {
		return net.IPv4(l.Address[12], l.Address[13], l.Address[14], l.Address[15])
	}
	return net.IP(l.Address[:])
}

func (l Locator) String() string {
	return fmt.Sprintf("%s:%d", l.IP().String(), l.Port)
}

// Equal reports locator equality by wire value.
func (l Locator) Equal(o Locator) bool {
	return l.Kind == o.Kind && l.Port == o.Port && l.Address == o.Address
}

// EncodeTo writes the 24-byte wire form of l to b (which must have len>=24),
// using the given byte order for kind and port (the rest of the RTPS header
// this locator sits in selects the order; address bytes are always
// transmitted in network order, i.e. big-endian, regardless).
func (l Locator) EncodeTo(b []byte, order binary.ByteOrder) {
	order.PutUint32(b[0:4], l.Kind)
	order.PutUint32(b[4:8], l.Port)
	copy(b[8:24], l.Address[:])
}

// DecodeLocator parses a 24-byte wire Locator.
func DecodeLocator(b []byte, order binary.ByteOrder) Locator {
	var l Locator
	l.Kind = order.Uint32(b[0:4])
	l.Port = order.Uint32(b[4:8])
	copy(l.Address[:], b[8:24])
	return l
}

// LocatorWireLen is the fixed encoded size of a Locator.
const LocatorWireLen = 24

// DedupeLocators returns locs with duplicates removed, preserving first-seen
// order (used by the Writer engine to union matched readers' locators,
// spec §4.6).
func DedupeLocators(locs []Locator) []Locator {
	out := make([]Locator, 0, len(locs))
	for _, l := range locs {
		dup := false
		for _, o := range out {
			if l.Equal(o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, l)
		}
	}
	return out
}
