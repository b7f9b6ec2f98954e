package wire

// Pad is the PAD submessage (kind 0x01): a run of filler bytes used to
// align the next submessage. The filler content is not meaningful; only
// its length matters for round-tripping.
type Pad struct {
	Length int
}

func (p *Pad) Kind() SubmessageKind { return KindPad }
func (p *Pad) flags() byte          { return 0 }
func (p *Pad) encodeBody(e *encoder) {
	for i := 0; i < p.Length; i++ {
		e.u8(0)
	}
}

func decodePad(flags byte, d *decoder) (*Pad, error) {
	n := d.remaining()
	d.off = len(d.buf)
	return &Pad{Length: n}, nil
}

// RTPSHeaderExt is the RTPS_HE submessage (kind 0x1d): a header extension
// mechanism introduced by later RTPS revisions. This engine neither
// produces nor interprets extension content; the body is preserved
// opaquely so a message carrying one still round-trips bit-exactly.
type RTPSHeaderExt struct {
	Raw []byte
}

func (r *RTPSHeaderExt) Kind() SubmessageKind  { return KindRTPSHeaderExt }
func (r *RTPSHeaderExt) flags() byte           { return 0 }
func (r *RTPSHeaderExt) encodeBody(e *encoder) { e.raw(r.Raw) }

func decodeRTPSHeaderExt(flags byte, d *decoder) (*RTPSHeaderExt, error) {
	raw := append([]byte(nil), d.buf[d.off:]...)
	d.off = len(d.buf)
	return &RTPSHeaderExt{Raw: raw}, nil
}
