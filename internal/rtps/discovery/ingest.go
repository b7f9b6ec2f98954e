package discovery

import (
	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/history"
	"github.com/rtps-go/rtps/internal/rtps/proxy"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
)

// Ingest routes one submessage, from a message whose header carries
// sourcePrefix, to whichever of the six wrapped Writer/Reader engines owns
// its destination EntityId (spec §4.8: Discovery is "ordinary Writer/Reader
// pairs over reserved EntityIds"). Unmatched-destination submessages
// self-filter inside the wrapped engine, same pattern internal/rtps/writer
// and internal/rtps/reader already use for ACKNACK/NACK_FRAG dispatch.
func (d *Engine) Ingest(sourcePrefix types.GuidPrefix, sm wire.Submessage, nowMillis int64) {
	switch m := sm.(type) {
	case *wire.Data:
		d.spdpDetector.Ingest(sourcePrefix, m, nowMillis)
		d.sedpPubDetector.Ingest(sourcePrefix, m, nowMillis)
		d.sedpSubDetector.Ingest(sourcePrefix, m, nowMillis)
		d.drainDetectors(nowMillis)
	case *wire.Heartbeat, *wire.HeartbeatFrag, *wire.Gap:
		d.sedpPubDetector.Ingest(sourcePrefix, m, nowMillis)
		d.sedpSubDetector.Ingest(sourcePrefix, m, nowMillis)
	case *wire.AckNack, *wire.NackFrag:
		d.sedpPubAnnouncer.Ingest(sourcePrefix, m, nowMillis)
		d.sedpSubAnnouncer.Ingest(sourcePrefix, m, nowMillis)
	default:
		d.log.Debugw("ignoring submessage not handled by discovery ingest", "kind", sm.Kind().String())
	}
}

// drainDetectors pulls every change the three detector Readers accepted
// this round and dispatches it to the SPDP or SEDP handler; a single
// incoming Message can carry several DATA submessages addressed to
// different detectors, so this drains all three rather than just the one
// that most recently ingested a DATA.
func (d *Engine) drainDetectors(nowMillis int64) {
	for _, c := range d.spdpDetector.TakeNotReadChanges() {
		d.handleSpdpData(c, nowMillis)
	}
	for _, c := range d.sedpPubDetector.TakeNotReadChanges() {
		d.handleSedpData(c, true, nowMillis)
	}
	for _, c := range d.sedpSubDetector.TakeNotReadChanges() {
		d.handleSedpData(c, false, nowMillis)
	}
}

// handleSpdpData processes one detected PdpDiscoveredParticipantData
// change: reject-self, register/refresh the remote ParticipantProxy, wire
// the SEDP proxies its builtin_endpoint_set advertises, and force an
// immediate re-announce back so a newly discovered peer does not have to
// wait out a full announcement_period to see us (spec §4.8).
func (d *Engine) handleSpdpData(c history.CacheChange, nowMillis int64) {
	data, err := DecodeParticipantData(c.Payload)
	if err != nil {
		d.log.Debugw("dropping malformed SPDP participant data", "error", err.Error())
		return
	}
	if data.GuidPrefix == d.localGuidPrefix {
		return // reject-self: never discover our own announcements
	}

	_, known := d.remoteParticipants[data.GuidPrefix]
	p := &proxy.ParticipantProxy{
		GuidPrefix:                   data.GuidPrefix,
		DomainId:                     data.DomainId,
		DomainTag:                    data.DomainTag,
		ProtocolVersion:              data.ProtocolVersion,
		VendorId:                     data.VendorId,
		AvailableBuiltinEndpoints:    data.AvailableBuiltinEndpoints,
		MetatrafficUnicastLocators:   data.MetatrafficUnicastLocators,
		MetatrafficMulticastLocators: data.MetatrafficMulticastLocators,
		DefaultUnicastLocators:       data.DefaultUnicastLocators,
		DefaultMulticastLocators:     data.DefaultMulticastLocators,
		ManualLivelinessCount:        data.ManualLivelinessCount,
		LeaseEnd:                     types.TimestampFromMillis(nowMillis).Add(data.LeaseDuration),
	}
	d.remoteParticipants[data.GuidPrefix] = p

	if !known {
		d.metrics.IncParticipantMatched()
		d.effects.Append(effect.ParticipantMatchE(effect.ParticipantMatchPayload{GuidPrefix: data.GuidPrefix}))
		d.updateSedpProxiesFor(p)
		d.announceNow(nowMillis)
	}
}

// handleSedpData processes one detected DiscoveredWriterData (isWriter)
// or DiscoveredReaderData change: cache the remote endpoint's info and
// retry matching against every not-yet-matched local endpoint of the
// opposite role.
func (d *Engine) handleSedpData(c history.CacheChange, isWriter bool, nowMillis int64) {
	info, err := DecodeEndpointInfo(c.Payload)
	if err != nil {
		d.log.Debugw("dropping malformed SEDP endpoint data", "error", err.Error())
		return
	}
	if info.GUID.Prefix == d.localGuidPrefix {
		return
	}

	if isWriter {
		d.remoteWriterData[info.GUID] = info
		for _, local := range d.localSubscriptions {
			d.attemptMatch(local, info, false)
		}
	} else {
		d.remoteReaderData[info.GUID] = info
		for _, local := range d.localPublications {
			d.attemptMatch(local, info, true)
		}
	}
}

// attemptMatch runs the QoS consistency check between a local endpoint
// and a remote one and, on success, records the match and emits the
// corresponding effect for the host to wire the actual application-level
// Writer/Reader proxy with. localIsWriter tells which side of
// QosPolicyConsistencyChecker's (offered, requested) pair the local
// endpoint occupies.
func (d *Engine) attemptMatch(local *localEndpoint, remote EndpointInfo, localIsWriter bool) {
	if _, already := local.Matched[remote.GUID]; already {
		return
	}

	var err error
	if localIsWriter {
		err = QosPolicyConsistencyChecker(local.Info, remote)
	} else {
		err = QosPolicyConsistencyChecker(remote, local.Info)
	}
	if err != nil {
		d.metrics.IncMatchFailure()
		d.log.Debugw("endpoints incompatible", "local", local.Info.GUID.String(), "remote", remote.GUID.String(), "reason", err.Error())
		return
	}

	local.Matched[remote.GUID] = struct{}{}
	d.metrics.IncEndpointMatched()
	if localIsWriter {
		d.effects.Append(effect.WriterMatchE(effect.WriterMatchPayload{
			Success: true, LocalWriterGUID: local.Info.GUID, RemoteReaderGUID: remote.GUID,
		}))
	} else {
		d.effects.Append(effect.ReaderMatchE(effect.ReaderMatchPayload{
			Success: true, LocalReaderGUID: local.Info.GUID, RemoteWriterGUID: remote.GUID,
		}))
	}
}

// updateSedpProxiesFor wires remote's metatraffic locators into whichever
// of the four SEDP Writer/Reader engines its AvailableBuiltinEndpoints
// bitmask advertises (spec §4.8: "only wire the SEDP channels the peer
// actually announces").
func (d *Engine) updateSedpProxiesFor(remote *proxy.ParticipantProxy) {
	locators := remote.MetatrafficUnicastLocators
	if len(locators) == 0 {
		locators = remote.MetatrafficMulticastLocators
	}
	set := remote.AvailableBuiltinEndpoints
	if set.Has(types.BuiltinPublicationsAnnouncer) {
		d.sedpPubDetector.AddProxy(types.NewGUID(remote.GuidPrefix, types.EntityIdSEDPPubAnnouncer), locators, 0)
	}
	if set.Has(types.BuiltinPublicationsDetector) {
		d.sedpPubAnnouncer.AddProxy(types.NewGUID(remote.GuidPrefix, types.EntityIdSEDPPubDetector), locators, false)
	}
	if set.Has(types.BuiltinSubscriptionsAnnouncer) {
		d.sedpSubDetector.AddProxy(types.NewGUID(remote.GuidPrefix, types.EntityIdSEDPSubAnnouncer), locators, 0)
	}
	if set.Has(types.BuiltinSubscriptionsDetector) {
		d.sedpSubAnnouncer.AddProxy(types.NewGUID(remote.GuidPrefix, types.EntityIdSEDPSubDetector), locators, false)
	}
}

// removeSedpProxiesFor drops every SEDP proxy keyed by prefix and forgets
// its cached endpoint data, used when a participant's lease expires
// (spec §4.8 ParticipantRemoval tick).
func (d *Engine) removeSedpProxiesFor(prefix types.GuidPrefix) {
	d.sedpPubDetector.RemoveProxy(types.NewGUID(prefix, types.EntityIdSEDPPubAnnouncer))
	d.sedpPubAnnouncer.RemoveProxy(types.NewGUID(prefix, types.EntityIdSEDPPubDetector))
	d.sedpSubDetector.RemoveProxy(types.NewGUID(prefix, types.EntityIdSEDPSubAnnouncer))
	d.sedpSubAnnouncer.RemoveProxy(types.NewGUID(prefix, types.EntityIdSEDPSubDetector))

	for guid := range d.remoteWriterData {
		if guid.Prefix == prefix {
			delete(d.remoteWriterData, guid)
		}
	}
	for guid := range d.remoteReaderData {
		if guid.Prefix == prefix {
			delete(d.remoteReaderData, guid)
		}
	}
	for _, local := range d.localPublications {
		for remote := range local.Matched {
			if remote.Prefix == prefix {
				delete(local.Matched, remote)
			}
		}
	}
	for _, local := range d.localSubscriptions {
		for remote := range local.Matched {
			if remote.Prefix == prefix {
				delete(local.Matched, remote)
			}
		}
	}
}
