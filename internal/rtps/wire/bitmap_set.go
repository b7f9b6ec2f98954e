package wire

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// encodeSequenceNumberSet writes the wire shape of spec §4.1: base
// (SequenceNumber), num_bits (u32), then ceil(num_bits/32) big-endian u32
// bitmap words, bit i (MSB-first within each word) meaning base+i is
// present. The set is always big-endian on the wire regardless of the
// enclosing submessage's chosen order.
func encodeSequenceNumberSet(e *encoder, s types.SequenceNumberSet) {
	e.sequenceNumber(s.Base)
	numBits := s.NumBits()
	e.u32(numBits)
	words := bitmapWords(numBits)
	bitmap := make([]uint32, words)
	for seq := range s.Set {
		off := uint32(seq - s.Base)
		bitmap[off/32] |= 1 << (31 - (off % 32))
	}
	for _, w := range bitmap {
		e.u32(w)
	}
}

func bitmapWords(numBits uint32) int {
	if numBits == 0 {
		return 0
	}
	return int((numBits + 31) / 32)
}

// decodeSequenceNumberSet parses the wire shape back into the sparse
// in-memory form.
func decodeSequenceNumberSet(d *decoder) (types.SequenceNumberSet, error) {
	op := "sequence_number_set.decode"
	base, err := d.sequenceNumber()
	if err != nil {
		return types.SequenceNumberSet{}, rtpserrors.NewMalformedWire(op+".base", err)
	}
	numBits, err := d.u32()
	if err != nil {
		return types.SequenceNumberSet{}, rtpserrors.NewMalformedWire(op+".num_bits", err)
	}
	out := types.NewSequenceNumberSet(base)
	words := bitmapWords(numBits)
	for w := 0; w < words; w++ {
		word, err := d.u32()
		if err != nil {
			return out, rtpserrors.NewMalformedWire(op+".bitmap", err)
		}
		for bit := 0; bit < 32; bit++ {
			idx := uint32(w*32 + bit)
			if idx >= numBits {
				break
			}
			if word&(1<<(31-bit)) != 0 {
				out.Add(base + types.SequenceNumber(idx))
			}
		}
	}
	return out, nil
}

// SequenceNumberSetWireLen returns the encoded byte length of s: 12 bytes
// (base+num_bits) plus 4 bytes per bitmap word, or just 12 when empty
// (spec §8: "Size in bytes equals 12 + 4·⌈num_bits/32⌉ when num_bits > 0,
// else 12").
func SequenceNumberSetWireLen(s types.SequenceNumberSet) int {
	return 12 + 4*bitmapWords(s.NumBits())
}

// encodeFragmentNumberSet / decodeFragmentNumberSet mirror the sequence
// number set shape keyed by 32-bit FragmentNumber (spec §4.1).
func encodeFragmentNumberSet(e *encoder, s types.FragmentNumberSet) {
	e.u32(uint32(s.Base))
	numBits := s.NumBits()
	e.u32(numBits)
	words := bitmapWords(numBits)
	bitmap := make([]uint32, words)
	for f := range s.Set {
		off := uint32(f - s.Base)
		bitmap[off/32] |= 1 << (31 - (off % 32))
	}
	for _, w := range bitmap {
		e.u32(w)
	}
}

func decodeFragmentNumberSet(d *decoder) (types.FragmentNumberSet, error) {
	op := "fragment_number_set.decode"
	baseRaw, err := d.u32()
	if err != nil {
		return types.FragmentNumberSet{}, rtpserrors.NewMalformedWire(op+".base", err)
	}
	base := types.FragmentNumber(baseRaw)
	numBits, err := d.u32()
	if err != nil {
		return types.FragmentNumberSet{}, rtpserrors.NewMalformedWire(op+".num_bits", err)
	}
	out := types.NewFragmentNumberSet(base)
	words := bitmapWords(numBits)
	for w := 0; w < words; w++ {
		word, err := d.u32()
		if err != nil {
			return out, rtpserrors.NewMalformedWire(op+".bitmap", err)
		}
		for bit := 0; bit < 32; bit++ {
			idx := uint32(w*32 + bit)
			if idx >= numBits {
				break
			}
			if word&(1<<(31-bit)) != 0 {
				out.Add(base + types.FragmentNumber(idx))
			}
		}
	}
	return out, nil
}
