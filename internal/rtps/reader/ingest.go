package reader

import (
	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/history"
	"github.com/rtps-go/rtps/internal/rtps/proxy"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// Ingest processes one submessage addressed to this reader, from a
// message whose header carries sourcePrefix (spec §4.7).
func (r *Reader) Ingest(sourcePrefix types.GuidPrefix, sm wire.Submessage, nowMillis int64) {
	switch m := sm.(type) {
	case *wire.Data:
		r.ingestData(sourcePrefix, m, nowMillis)
	case *wire.DataFrag:
		r.ingestDataFrag(sourcePrefix, m, nowMillis)
	case *wire.Heartbeat:
		r.ingestHeartbeat(sourcePrefix, m, nowMillis)
	case *wire.HeartbeatFrag:
		r.ingestHeartbeatFrag(sourcePrefix, m, nowMillis)
	case *wire.Gap:
		r.ingestGap(sourcePrefix, m)
	default:
		r.log.Debugw("ignoring submessage not handled by reader ingest", "kind", sm.Kind().String())
	}
}

func (r *Reader) addressedToUs(readerId types.EntityId) bool {
	return readerId == r.guid.Entity || readerId.IsUnknown()
}

func (r *Reader) ingestData(sourcePrefix types.GuidPrefix, m *wire.Data, nowMillis int64) {
	if !r.addressedToUs(m.ReaderId) {
		r.log.Debugw("dropping data not addressed to this reader")
		return
	}
	writer := types.NewGUID(sourcePrefix, m.WriterId)

	var wp *proxy.WriterProxy
	if !r.stateless {
		var ok bool
		wp, ok = r.proxies[writer]
		if !ok {
			r.log.Debugw("dropping data", "error", rtpserrors.NewRemoteEndpointNotFound("reader.ingest_data", writer.String()))
			return
		}
	}

	if m.Payload == nil {
		r.log.Debugw("ignoring data submessage with no payload (not Data|Key)")
		return
	}

	instance := instanceHandleFromInlineQoS(m.InlineQoS)
	c := history.CacheChange{
		Kind: types.ChangeKindAlive, WriterGUID: writer, InstanceHandle: instance,
		SequenceNumber: m.WriterSN, SampleSize: uint32(len(m.Payload.Data)), FragmentSize: r.fragmentSize,
		ReceptionTimestamp: types.TimestampFromMillis(nowMillis), Payload: m.Payload.Data,
	}
	if r.cache.HasChange(writer, m.WriterSN) {
		return // idempotent: duplicate delivery yields no second DataAvailable
	}
	r.cache.Transfer(c)

	// Stateless readers replace all proxy-keyed bookkeeping with a
	// wildcard accept: no per-writer counters, no ACKNACK production
	// (spec §4.8 "Stateless readers"). A late arrival below the window
	// (m.WriterSN < expected) is a stale duplicate the HasChange check
	// above already let through at the cache level; skip it here too.
	if wp != nil {
		expected := wp.AvailableChangesMax() + 1
		if m.WriterSN >= expected {
			if r.reliability == types.ReliabilityBestEffort && m.WriterSN > expected {
				wp.LostChangesUpdate(m.WriterSN, false)
			}
			wp.ReceivedChangeSet(m.WriterSN)
		}
	}

	r.effects.Append(effect.DataAvailable())
}

func (r *Reader) ingestDataFrag(sourcePrefix types.GuidPrefix, m *wire.DataFrag, nowMillis int64) {
	if !r.addressedToUs(m.ReaderId) {
		r.log.Debugw("dropping data_frag not addressed to this reader")
		return
	}
	writer := types.NewGUID(sourcePrefix, m.WriterId)

	var wp *proxy.WriterProxy
	if !r.stateless {
		var ok bool
		wp, ok = r.proxies[writer]
		if !ok {
			r.log.Debugw("dropping data_frag", "error", rtpserrors.NewRemoteEndpointNotFound("reader.ingest_data_frag", writer.String()))
			return
		}
	}

	instance := instanceHandleFromInlineQoS(m.InlineQoS)
	if existing, ok := r.cache.GetFragmentedChange(writer, m.WriterSN); ok {
		if existing.SampleSize != m.SampleSize || existing.FragmentSize != uint32(m.FragmentSize) {
			r.log.Debugw("dropping data_frag", "error", rtpserrors.NewInvalidFrag("reader.ingest_data_frag", nil), "writer", writer.String())
			return
		}
	}

	startIdx := uint32(m.FragmentStartingNum) - 1
	reception := types.TimestampFromMillis(nowMillis)
	var changed bool
	for i := uint32(0); i < uint32(m.FragmentsInSubmessage); i++ {
		fragIdx := startIdx + i
		fragStart := i * uint32(m.FragmentSize)
		fragEnd := fragStart + uint32(m.FragmentSize)
		if fragEnd > uint32(len(m.Payload)) {
			fragEnd = uint32(len(m.Payload))
		}
		_, done := r.cache.PushFragment(writer, m.WriterSN, types.ChangeKindAlive, instance, m.SampleSize, uint32(m.FragmentSize), types.Timestamp{}, fragIdx, m.Payload[fragStart:fragEnd], reception)
		if done {
			changed = true
		}
	}
	if changed {
		if wp != nil {
			wp.ReceivedChangeSet(m.WriterSN)
		}
		r.effects.Append(effect.DataAvailable())
	}
}

func (r *Reader) ingestHeartbeat(sourcePrefix types.GuidPrefix, m *wire.Heartbeat, nowMillis int64) {
	if r.stateless {
		r.log.Debugw("ignoring heartbeat: stateless reader keeps no per-writer counters")
		return
	}
	if !r.addressedToUs(m.ReaderId) {
		r.log.Debugw("dropping heartbeat not addressed to this reader")
		return
	}
	writer := types.NewGUID(sourcePrefix, m.WriterId)
	if m.Count <= r.lastHeartbeatCount[writer] {
		r.log.Debugw("dropping stale heartbeat", "count", m.Count)
		return
	}
	wp, ok := r.proxies[writer]
	if !ok {
		r.log.Debugw("dropping heartbeat", "error", rtpserrors.NewRemoteEndpointNotFound("reader.ingest_heartbeat", writer.String()))
		return
	}
	if nowMillis-wp.LastHeartbeatTimestamp.Millis() < r.heartbeatSuppressionDelayMillis {
		r.log.Debugw("dropping heartbeat within suppression window")
		return
	}
	r.lastHeartbeatCount[writer] = m.Count
	wp.LastHeartbeatTimestamp = types.TimestampFromMillis(nowMillis)
	wp.LastHeartbeatCount = m.Count

	wp.MissingChangesUpdate(m.LastSN)
	wp.LostChangesUpdate(m.FirstSN, true)
	for seq := range wp.LastAnnouncedFragment {
		if seq < m.FirstSN {
			delete(wp.LastAnnouncedFragment, seq)
		}
	}

	if !m.Final && len(wp.MissingChanges()) > 0 {
		r.effects.Append(effect.ScheduleTickE(effect.TimerReader, r.heartbeatResponseDelayMillis))
	}
}

func (r *Reader) ingestHeartbeatFrag(sourcePrefix types.GuidPrefix, m *wire.HeartbeatFrag, nowMillis int64) {
	if r.stateless {
		r.log.Debugw("ignoring heartbeat_frag: stateless reader keeps no per-writer counters")
		return
	}
	writer := types.NewGUID(sourcePrefix, m.WriterId)
	if m.Count <= r.lastHeartbeatFragCount[writer] {
		r.log.Debugw("dropping stale heartbeat_frag", "count", m.Count)
		return
	}
	wp, ok := r.proxies[writer]
	if !ok {
		r.log.Debugw("dropping heartbeat_frag", "error", rtpserrors.NewRemoteEndpointNotFound("reader.ingest_heartbeat_frag", writer.String()))
		return
	}
	r.lastHeartbeatFragCount[writer] = m.Count
	wp.LastAnnouncedFragment[m.WriterSN] = m.LastFragmentNum

	if f, ok := r.cache.GetFragmentedChange(writer, m.WriterSN); ok && len(f.MissingFragments()) > 0 {
		r.effects.Append(effect.ScheduleTickE(effect.TimerReader, r.heartbeatResponseDelayMillis))
	}
}

func (r *Reader) ingestGap(sourcePrefix types.GuidPrefix, m *wire.Gap) {
	if r.stateless {
		r.log.Debugw("ignoring gap: stateless reader keeps no per-writer counters")
		return
	}
	if m.GapStart > m.GapList.Base || m.GapStart <= 0 {
		r.log.Debugw("dropping malformed gap", "gap_start", m.GapStart)
		return
	}
	writer := types.NewGUID(sourcePrefix, m.WriterId)
	wp, ok := r.proxies[writer]
	if !ok {
		r.log.Debugw("dropping gap", "error", rtpserrors.NewRemoteEndpointNotFound("reader.ingest_gap", writer.String()))
		return
	}
	union := make([]types.SequenceNumber, 0)
	for seq := m.GapStart; seq < m.GapList.Base; seq++ {
		union = append(union, seq)
	}
	union = append(union, m.GapList.Sorted()...)
	wp.NotAvailableChangeSet(union, 0)
}

func instanceHandleFromInlineQoS(pl *wire.ParameterList) types.InstanceHandle {
	var h types.InstanceHandle
	if pl == nil {
		return h
	}
	if p, ok := pl.Get(wire.PidKeyHash); ok {
		copy(h[:], p.Value)
	}
	return h
}
