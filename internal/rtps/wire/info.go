package wire

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

const flagInfoTSInvalidate byte = 0x02 // I

// InfoTS is the INFO_TS submessage (kind 0x09). When Invalidate is set, no
// Timestamp field follows on the wire (spec §8: "with and without
// timestamp").
type InfoTS struct {
	Invalidate bool
	Timestamp  types.Timestamp
}

func (i *InfoTS) Kind() SubmessageKind { return KindInfoTS }
func (i *InfoTS) flags() byte {
	if i.Invalidate {
		return flagInfoTSInvalidate
	}
	return 0
}
func (i *InfoTS) encodeBody(e *encoder) {
	if !i.Invalidate {
		e.timestamp(i.Timestamp)
	}
}

func decodeInfoTS(flags byte, d *decoder) (*InfoTS, error) {
	out := &InfoTS{Invalidate: flags&flagInfoTSInvalidate != 0}
	if !out.Invalidate {
		ts, err := d.timestamp()
		if err != nil {
			return nil, rtpserrors.NewMalformedWire("info_ts.decode.timestamp", err)
		}
		out.Timestamp = ts
	}
	return out, nil
}

// InfoSrc is the INFO_SRC submessage (kind 0x0c): protocol_version,
// vendor_id, guid_prefix of the original message source (used when
// relaying/bridging).
type InfoSrc struct {
	ProtocolVersion types.ProtocolVersion
	VendorId        types.VendorId
	GuidPrefix      types.GuidPrefix
}

func (i *InfoSrc) Kind() SubmessageKind { return KindInfoSrc }
func (i *InfoSrc) flags() byte          { return 0 }
func (i *InfoSrc) encodeBody(e *encoder) {
	e.u32(0) // reserved, unused vendor-specific word
	e.u8(i.ProtocolVersion.Major)
	e.u8(i.ProtocolVersion.Minor)
	e.raw(i.VendorId[:])
	e.guidPrefix(i.GuidPrefix)
}

func decodeInfoSrc(flags byte, d *decoder) (*InfoSrc, error) {
	op := "info_src.decode"
	if _, err := d.u32(); err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".reserved", err)
	}
	major, err := d.u8()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".version", err)
	}
	minor, err := d.u8()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".version", err)
	}
	vb, err := d.bytes(2)
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".vendor_id", err)
	}
	var vendor types.VendorId
	copy(vendor[:], vb)
	prefix, err := d.guidPrefix()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".guid_prefix", err)
	}
	return &InfoSrc{ProtocolVersion: types.ProtocolVersion{Major: major, Minor: minor}, VendorId: vendor, GuidPrefix: prefix}, nil
}

// InfoDst is the INFO_DST submessage (kind 0x0e): guid_prefix of the
// intended destination participant.
type InfoDst struct {
	GuidPrefix types.GuidPrefix
}

func (i *InfoDst) Kind() SubmessageKind  { return KindInfoDst }
func (i *InfoDst) flags() byte           { return 0 }
func (i *InfoDst) encodeBody(e *encoder) { e.guidPrefix(i.GuidPrefix) }

func decodeInfoDst(flags byte, d *decoder) (*InfoDst, error) {
	prefix, err := d.guidPrefix()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire("info_dst.decode.guid_prefix", err)
	}
	return &InfoDst{GuidPrefix: prefix}, nil
}

const flagInfoReplyMulticast byte = 0x02 // M

// InfoReply is the INFO_REPLY submessage (kind 0x0d): a unicast locator
// list and an optional multicast locator list.
type InfoReply struct {
	UnicastLocators   []types.Locator
	MulticastLocators []types.Locator // nil when the M flag is clear
}

func (i *InfoReply) Kind() SubmessageKind { return KindInfoReply }
func (i *InfoReply) flags() byte {
	if i.MulticastLocators != nil {
		return flagInfoReplyMulticast
	}
	return 0
}
func (i *InfoReply) encodeBody(e *encoder) {
	e.u32(uint32(len(i.UnicastLocators)))
	for _, l := range i.UnicastLocators {
		e.locator(l)
	}
	if i.MulticastLocators != nil {
		e.u32(uint32(len(i.MulticastLocators)))
		for _, l := range i.MulticastLocators {
			e.locator(l)
		}
	}
}

func decodeInfoReply(flags byte, d *decoder) (*InfoReply, error) {
	op := "info_reply.decode"
	n, err := d.u32()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".unicast_count", err)
	}
	out := &InfoReply{}
	for i := uint32(0); i < n; i++ {
		l, err := d.locator()
		if err != nil {
			return nil, rtpserrors.NewMalformedWire(op+".unicast_locator", err)
		}
		out.UnicastLocators = append(out.UnicastLocators, l)
	}
	if flags&flagInfoReplyMulticast != 0 {
		m, err := d.u32()
		if err != nil {
			return nil, rtpserrors.NewMalformedWire(op+".multicast_count", err)
		}
		out.MulticastLocators = make([]types.Locator, 0, m)
		for i := uint32(0); i < m; i++ {
			l, err := d.locator()
			if err != nil {
				return nil, rtpserrors.NewMalformedWire(op+".multicast_locator", err)
			}
			out.MulticastLocators = append(out.MulticastLocators, l)
		}
	}
	return out, nil
}
