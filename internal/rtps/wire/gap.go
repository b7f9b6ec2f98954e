package wire

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

const flagGapFilteredCount byte = 0x02 // this implementation's extension bit for optional filtered count

// Gap is the GAP submessage (kind 0x08): reader_id, writer_id, gap_start,
// SequenceNumberSet gap_list, optional group info, optional filtered
// count. Group info is not produced by this engine (spec §4.6/§4.7 never
// populate it); FilteredCount is carried by the codec only: the Writer
// never sets it and the Reader does not read it.
type Gap struct {
	ReaderId      types.EntityId
	WriterId      types.EntityId
	GapStart      types.SequenceNumber
	GapList       types.SequenceNumberSet
	FilteredCount *uint32
}

func (g *Gap) Kind() SubmessageKind { return KindGap }
func (g *Gap) flags() byte {
	if g.FilteredCount != nil {
		return flagGapFilteredCount
	}
	return 0
}

func (g *Gap) encodeBody(e *encoder) {
	e.entityId(g.ReaderId)
	e.entityId(g.WriterId)
	e.sequenceNumber(g.GapStart)
	encodeSequenceNumberSet(e, g.GapList)
	if g.FilteredCount != nil {
		e.u32(*g.FilteredCount)
	}
}

func decodeGap(flags byte, d *decoder) (*Gap, error) {
	op := "gap.decode"
	readerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".reader_id", err)
	}
	writerId, err := d.entityId()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".writer_id", err)
	}
	gapStart, err := d.sequenceNumber()
	if err != nil {
		return nil, rtpserrors.NewMalformedWire(op+".gap_start", err)
	}
	gapList, err := decodeSequenceNumberSet(d)
	if err != nil {
		return nil, err
	}
	out := &Gap{ReaderId: readerId, WriterId: writerId, GapStart: gapStart, GapList: gapList}
	if flags&flagGapFilteredCount != 0 {
		fc, err := d.u32()
		if err != nil {
			return nil, rtpserrors.NewMalformedWire(op+".filtered_count", err)
		}
		out.FilteredCount = &fc
	}
	return out, nil
}
