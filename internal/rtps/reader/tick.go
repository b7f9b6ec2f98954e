package reader

import (
	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
)

// Tick runs the periodic (id=Reader) behavior for every matched
// WriterProxy: an ACKNACK with base = available_changes_max + 1 and set =
// missing_changes, plus a NACK_FRAG for every sequence with an in-progress
// reassembly still missing fragments (spec §4.7).
func (r *Reader) Tick(nowMillis int64) {
	for remote, wp := range r.proxies {
		var subs []wire.Submessage

		r.acknackCounter++
		base := wp.AvailableChangesMax() + 1
		set := types.NewSequenceNumberSet(base)
		for _, seq := range wp.MissingChanges() {
			set.Add(seq)
		}
		subs = append(subs, &wire.AckNack{
			ReaderId: r.guid.Entity, WriterId: remote.Entity,
			WriterSNState: set, Count: r.acknackCounter,
		})
		r.metrics.IncAckNack()

		for _, seq := range r.cache.InProgressSequences(remote) {
			f, ok := r.cache.GetFragmentedChange(remote, seq)
			if !ok {
				continue
			}
			missing := f.MissingFragments()
			if len(missing) == 0 {
				continue
			}
			r.nackFragCounter++
			fragSet := types.NewFragmentNumberSet(missing[0])
			for _, frag := range missing {
				fragSet.Add(frag)
			}
			subs = append(subs, &wire.NackFrag{
				ReaderId: r.guid.Entity, WriterId: remote.Entity,
				WriterSN: seq, FragmentNumbers: fragSet, Count: r.nackFragCounter,
			})
			r.metrics.IncNackFrag()
		}

		r.emit(subs, wp.Locators, nowMillis)
	}
}

func (r *Reader) emit(subs []wire.Submessage, locators []types.Locator, nowMillis int64) {
	if len(subs) == 0 {
		return
	}
	msg := wire.Message{
		Header: wire.MessageHeader{
			Version: types.ProtocolVersion24, VendorId: types.VendorIdThis, GuidPrefix: r.guid.Prefix,
		},
		Submessages: subs,
	}
	r.effects.Append(effect.MessageEffect(effect.MessagePayload{
		TimestampMillis: nowMillis, Message: msg.Encode(wireOrder), Locators: locators,
	}))
}
