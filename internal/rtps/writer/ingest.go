package writer

import (
	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// Ingest processes one submessage addressed to this writer. Only ACKNACK
// and NACK_FRAG are meaningful; anything else is dropped with a trace
// (spec §4.6: "Ingest handles ACKNACK and NACK_FRAG only; any other
// submessage addressed to the writer is ignored with a trace"). Both are
// reliability-only: a BestEffort writer has no reader proxy bookkeeping to
// reconcile against and drops them outright.
func (w *Writer) Ingest(sourcePrefix types.GuidPrefix, sm wire.Submessage, nowMillis int64) {
	if w.reliability == types.ReliabilityBestEffort {
		w.log.Debugw("dropping reliability-only submessage on best-effort writer",
			"error", rtpserrors.NewIsBestEffort("writer.ingest"), "kind", sm.Kind().String())
		return
	}

	switch m := sm.(type) {
	case *wire.AckNack:
		w.ingestAckNack(sourcePrefix, m, nowMillis)
	case *wire.NackFrag:
		w.ingestNackFrag(sourcePrefix, m, nowMillis)
	default:
		w.log.Debugw("ignoring submessage not handled by writer ingest", "kind", sm.Kind().String())
	}
}

func (w *Writer) ingestAckNack(sourcePrefix types.GuidPrefix, m *wire.AckNack, nowMillis int64) {
	if sourcePrefix == w.guid.Prefix {
		w.log.Debugw("dropping acknack", "error", rtpserrors.NewFilteredOut("writer.ingest_acknack", "loopback"))
		return
	}
	if !m.WriterId.IsUnknown() && m.WriterId != w.guid.Entity {
		w.log.Debugw("dropping acknack", "error", rtpserrors.NewFilteredOut("writer.ingest_acknack", "not addressed to this writer"))
		return
	}
	remote := types.NewGUID(sourcePrefix, m.ReaderId)
	rp, ok := w.proxies[remote]
	if !ok {
		w.log.Debugw("dropping acknack", "error", rtpserrors.NewRemoteEndpointNotFound("writer.ingest_acknack", remote.String()))
		return
	}
	if !rp.AcceptAckNack(m.Count, m.WriterSNState.Base, m.WriterSNState.Sorted()) {
		w.log.Debugw("dropping stale acknack", "count", m.Count)
		return
	}
	w.metrics.IncAckNack()
	w.effects.Append(effect.ScheduleTickE(effect.TimerWriter, w.nextNackResponseDelayMillis()))
}

func (w *Writer) ingestNackFrag(sourcePrefix types.GuidPrefix, m *wire.NackFrag, nowMillis int64) {
	if sourcePrefix == w.guid.Prefix {
		w.log.Debugw("dropping nack_frag", "error", rtpserrors.NewFilteredOut("writer.ingest_nack_frag", "loopback"))
		return
	}
	if !m.WriterId.IsUnknown() && m.WriterId != w.guid.Entity {
		w.log.Debugw("dropping nack_frag", "error", rtpserrors.NewFilteredOut("writer.ingest_nack_frag", "not addressed to this writer"))
		return
	}
	remote := types.NewGUID(sourcePrefix, m.ReaderId)
	rp, ok := w.proxies[remote]
	if !ok {
		w.log.Debugw("dropping nack_frag", "error", rtpserrors.NewRemoteEndpointNotFound("writer.ingest_nack_frag", remote.String()))
		return
	}
	if !rp.AcceptNackFrag(m.Count, m.WriterSN, m.FragmentNumbers.Sorted()) {
		w.log.Debugw("dropping stale nack_frag", "count", m.Count)
		return
	}
	w.metrics.IncNackFrag()
	w.effects.Append(effect.ScheduleTickE(effect.TimerWriter, w.nextNackResponseDelayMillis()))
}
