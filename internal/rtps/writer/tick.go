package writer

import (
	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
)

// Tick runs the periodic (id=Writer) behavior for every matched
// ReaderProxy: emitting a HEARTBEAT (plus HEARTBEAT_FRAG for fragmented
// in-cache entries) when the cache has grown past the reader's
// acknowledged high-water mark, and servicing any pending NACKed changes
// with retransmitted DATA or synthesized GAP (spec §4.6).
func (w *Writer) Tick(nowMillis int64) {
	if w.reliability == types.ReliabilityBestEffort {
		return
	}

	minSeq := w.cache.GetMinSequence()
	maxSeq := w.cache.GetMaxSequence()

	for _, rp := range w.proxies {
		var subs []wire.Submessage

		if maxSeq.IsUnknown() == false && maxSeq > rp.AcknowledgedChanges {
			w.heartbeatCounter++
			subs = append(subs, &wire.Heartbeat{
				ReaderId: rp.RemoteReaderGUID.Entity, WriterId: w.guid.Entity,
				FirstSN: minSeq, LastSN: maxSeq, Count: w.heartbeatCounter,
			})
			w.metrics.IncHeartbeat()
			for _, seq := range w.cache.AllSequences() {
				if lastFrag, ok := w.cache.LastFragmentOf(seq); ok {
					subs = append(subs, &wire.HeartbeatFrag{
						ReaderId: rp.RemoteReaderGUID.Entity, WriterId: w.guid.Entity,
						WriterSN: seq, LastFragmentNum: lastFrag, Count: w.heartbeatCounter,
					})
				}
			}
		}

		subs = append(subs, w.serviceRequestedChanges(rp)...)

		w.emit(subs, rp.Locators, nowMillis)
	}

	if w.heartbeatPeriodMillis > 0 {
		w.effects.Append(effect.ScheduleTickE(effect.TimerWriter, w.heartbeatPeriodMillis))
	}
}

// serviceRequestedChanges pops every pending NACKed sequence from rp and
// emits either a retransmitted DATA (if still in cache) or a GAP covering
// a run of consecutive no-longer-available sequences (spec §4.6 tick).
func (w *Writer) serviceRequestedChanges(rp interface {
	PopRequestedChange() (types.SequenceNumber, bool)
}) []wire.Submessage {
	var subs []wire.Submessage
	var missingRun []types.SequenceNumber

	flushGap := func() {
		if len(missingRun) == 0 {
			return
		}
		first := missingRun[0]
		// The contiguous prefix is covered implicitly by [gapStart, base);
		// anything after the first break in consecutiveness is a
		// non-consecutive remainder, added explicitly to the bitmap
		// (spec §4.6: "GAP(first, SequenceNumberSet(last, [non-consecutive
		// remainder]))").
		prefixEnd := 0
		for prefixEnd+1 < len(missingRun) && missingRun[prefixEnd+1] == missingRun[prefixEnd]+1 {
			prefixEnd++
		}
		base := missingRun[prefixEnd] + 1
		set := types.NewSequenceNumberSet(base)
		for _, seq := range missingRun[prefixEnd+1:] {
			set.Add(seq)
		}
		subs = append(subs, &wire.Gap{
			ReaderId: types.EntityIdUnknown, WriterId: w.guid.Entity,
			GapStart: first, GapList: set,
		})
		w.metrics.IncGap()
		missingRun = nil
	}

	for {
		seq, ok := rp.PopRequestedChange()
		if !ok {
			break
		}
		c, present := w.cache.GetChange(seq)
		if present {
			flushGap()
			subs = append(subs, &wire.Data{
				ReaderId: types.EntityIdUnknown, WriterId: w.guid.Entity, WriterSN: c.SequenceNumber,
				InlineQoS:  optionalParameterList(c.InlineQoS),
				Payload:    &wire.SerializedPayload{Encapsulation: wire.EncapsulationCDRLE, Data: c.Payload},
				KeyPresent: c.Kind != types.ChangeKindAlive,
			})
			w.metrics.IncRetransmit()
			continue
		}
		missingRun = append(missingRun, seq)
	}
	flushGap()
	return subs
}
