package discovery

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
)

// AddPublicationsInfos registers a local DataWriter for SEDP announcement
// (spec §4.8 engine boundary: "add_publications_infos"): it queues a
// DiscoveredWriterData change on the publications announcer and retries
// matching against every DiscoveredReaderData already seen, since a
// remote subscription can arrive before the local publication that would
// match it registers.
func (d *Engine) AddPublicationsInfos(info EndpointInfo, nowMillis int64) {
	local := &localEndpoint{Info: info, Matched: make(map[types.GUID]struct{})}
	d.localPublications[info.GUID.Entity] = local

	c := d.sedpPubAnnouncer.NewChange(types.ChangeKindAlive, guidInstanceHandle(info.GUID), info.Encode(), nil, nowMillis)
	d.sedpPubAnnouncer.AddChange(c, false, nowMillis)

	for _, remote := range d.remoteReaderData {
		d.attemptMatch(local, remote, true)
	}
}

// AddSubscriptionsInfos registers a local DataReader for SEDP
// announcement (spec §4.8 engine boundary: "add_subscriptions_infos"),
// symmetric to AddPublicationsInfos.
func (d *Engine) AddSubscriptionsInfos(info EndpointInfo, nowMillis int64) {
	local := &localEndpoint{Info: info, Matched: make(map[types.GUID]struct{})}
	d.localSubscriptions[info.GUID.Entity] = local

	c := d.sedpSubAnnouncer.NewChange(types.ChangeKindAlive, guidInstanceHandle(info.GUID), info.Encode(), nil, nowMillis)
	d.sedpSubAnnouncer.AddChange(c, false, nowMillis)

	for _, remote := range d.remoteWriterData {
		d.attemptMatch(local, remote, false)
	}
}

// RemovePublication withdraws a local DataWriter from SEDP announcement
// (spec §4.8 engine boundary: "remove_publication"). It forgets the local
// bookkeeping; the detector side already owns a DISPOSE/UNREGISTER
// convention via CacheChange.Kind, which the host applies by calling
// NewChange with a non-Alive kind before this if it wants remote peers
// notified.
func (d *Engine) RemovePublication(id types.EntityId) {
	delete(d.localPublications, id)
}

// RemoveSubscription withdraws a local DataReader from SEDP announcement
// (spec §4.8 engine boundary: "remove_subscription"), symmetric to
// RemovePublication.
func (d *Engine) RemoveSubscription(id types.EntityId) {
	delete(d.localSubscriptions, id)
}
