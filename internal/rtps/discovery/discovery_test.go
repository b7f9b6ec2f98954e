package discovery

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
)

func testPrefix(b byte) types.GuidPrefix {
	var p types.GuidPrefix
	p[0] = b
	return p
}

func testConfig(prefix types.GuidPrefix) Config {
	return Config{
		GuidPrefix:                     prefix,
		DomainId:                       0,
		AnnouncementPeriodMillis:       1000,
		ParticipantRemovalPeriodMillis: 5000,
		LeaseDuration:                  types.DurationFromMillis(3000),
		MetatrafficMulticastLocators:   []types.Locator{types.NewUDPv4Locator(net.IPv4(239, 255, 0, 1), 7400)},
	}
}

func newTestEngine(prefix types.GuidPrefix) *Engine {
	return New(testConfig(prefix))
}

func deliverParticipantData(t *testing.T, d *Engine, remote ParticipantData, nowMillis int64) {
	t.Helper()
	payload := remote.Encode()
	data := &wire.Data{
		ReaderId: types.EntityIdSPDPDetector, WriterId: types.EntityIdSPDPAnnouncer,
		Payload: &wire.SerializedPayload{Encapsulation: wire.EncapsulationCDRLE, Data: payload},
	}
	d.Ingest(remote.GuidPrefix, data, nowMillis)
}

func TestEngineInitSchedulesCoreTicks(t *testing.T) {
	d := newTestEngine(testPrefix(0xAA))
	d.Init()

	effects := d.Effects()
	var ids []effect.TimerId
	for _, e := range effects {
		require.Equal(t, effect.KindScheduleTick, e.Kind)
		ids = append(ids, e.ScheduleTick.Id)
	}
	require.ElementsMatch(t, []effect.TimerId{
		effect.TimerParticipantAnnounce, effect.TimerPublicationAnnouncer,
		effect.TimerSubscriptionAnnouncer, effect.TimerParticipantRemoval,
	}, ids)
}

func TestEngineRejectsSelfAnnouncement(t *testing.T) {
	d := newTestEngine(testPrefix(0xAA))
	deliverParticipantData(t, d, d.localParticipantData(), 1000)

	require.Empty(t, d.remoteParticipants)
	for _, e := range d.Effects() {
		require.NotEqual(t, effect.KindParticipantMatch, e.Kind)
	}
}

func TestEngineDiscoversRemoteParticipantAndReannounces(t *testing.T) {
	d := newTestEngine(testPrefix(0xAA))
	remote := testConfig(testPrefix(0xBB))
	remoteData := ParticipantData{
		GuidPrefix: remote.GuidPrefix, DomainId: 0, ProtocolVersion: types.ProtocolVersion24,
		VendorId: types.VendorIdThis, AvailableBuiltinEndpoints: types.StandardSet,
		LeaseDuration: types.DurationFromMillis(3000),
	}
	deliverParticipantData(t, d, remoteData, 1000)

	_, ok := d.remoteParticipants[remote.GuidPrefix]
	require.True(t, ok)

	var sawMatch, sawAnnounce bool
	for _, e := range d.Effects() {
		if e.Kind == effect.KindParticipantMatch {
			sawMatch = true
			require.Equal(t, remote.GuidPrefix, e.ParticipantMatch.GuidPrefix)
		}
		if e.Kind == effect.KindMessage {
			sawAnnounce = true
		}
	}
	require.True(t, sawMatch)
	require.True(t, sawAnnounce, "discovering a new peer forces an immediate re-announce")
}

func TestEngineExpiresStaleLease(t *testing.T) {
	d := newTestEngine(testPrefix(0xAA))
	remote := testPrefix(0xBB)
	deliverParticipantData(t, d, ParticipantData{
		GuidPrefix: remote, ProtocolVersion: types.ProtocolVersion24, VendorId: types.VendorIdThis,
		AvailableBuiltinEndpoints: types.StandardSet, LeaseDuration: types.DurationFromMillis(100),
	}, 1000)
	d.Effects() // drain the discovery-triggered effects

	d.Tick(effect.TimerParticipantRemoval, 1050)
	_, stillPresent := d.remoteParticipants[remote]
	require.True(t, stillPresent, "lease has not yet expired")

	d.Tick(effect.TimerParticipantRemoval, 2000)
	_, present := d.remoteParticipants[remote]
	require.False(t, present)

	var sawRemoved bool
	for _, e := range d.Effects() {
		if e.Kind == effect.KindParticipantRemoved {
			sawRemoved = true
			require.Equal(t, remote, e.ParticipantRemoved.GuidPrefix)
		}
	}
	require.True(t, sawRemoved)
}

func TestEngineMatchesCompatibleEndpointsAcrossSedp(t *testing.T) {
	local := newTestEngine(testPrefix(0x01))
	remote := newTestEngine(testPrefix(0x02))

	pubGUID := types.NewGUID(testPrefix(0x01), types.EntityId{Key: [3]byte{0, 0, 1}, Kind: types.EntityKindUserWriterWithKey})
	subGUID := types.NewGUID(testPrefix(0x02), types.EntityId{Key: [3]byte{0, 0, 2}, Kind: types.EntityKindUserReaderWithKey})

	local.AddPublicationsInfos(EndpointInfo{GUID: pubGUID, TopicName: "temp", TypeName: "Sensor", Qos: types.DefaultEndpointQos()}, 1000)
	remote.AddSubscriptionsInfos(EndpointInfo{GUID: subGUID, TopicName: "temp", TypeName: "Sensor", Qos: types.DefaultEndpointQos()}, 1000)

	// Feed remote's subscription announcement into local's SEDP subscriptions detector.
	subInfo := EndpointInfo{GUID: subGUID, TopicName: "temp", TypeName: "Sensor", Qos: types.DefaultEndpointQos()}
	data := &wire.Data{
		ReaderId: types.EntityIdSEDPSubDetector, WriterId: types.EntityIdSEDPSubAnnouncer,
		Payload: &wire.SerializedPayload{Encapsulation: wire.EncapsulationCDRLE, Data: subInfo.Encode()},
	}
	local.sedpSubDetector.AddProxy(types.NewGUID(testPrefix(0x02), types.EntityIdSEDPSubAnnouncer), nil, 0)
	local.Ingest(testPrefix(0x02), data, 1000)

	var matched bool
	for _, e := range local.Effects() {
		if e.Kind == effect.KindWriterMatch && e.WriterMatch.Success {
			matched = true
			require.Equal(t, pubGUID, e.WriterMatch.LocalWriterGUID)
			require.Equal(t, subGUID, e.WriterMatch.RemoteReaderGUID)
		}
	}
	require.True(t, matched)
}

func TestEngineDoesNotRematchSameRemoteTwice(t *testing.T) {
	local := newTestEngine(testPrefix(0x01))
	pubGUID := types.NewGUID(testPrefix(0x01), types.EntityId{Key: [3]byte{0, 0, 1}, Kind: types.EntityKindUserWriterWithKey})
	subGUID := types.NewGUID(testPrefix(0x02), types.EntityId{Key: [3]byte{0, 0, 2}, Kind: types.EntityKindUserReaderWithKey})

	local.AddPublicationsInfos(EndpointInfo{GUID: pubGUID, TopicName: "temp", TypeName: "Sensor", Qos: types.DefaultEndpointQos()}, 1000)
	local.Effects()

	remote := EndpointInfo{GUID: subGUID, TopicName: "temp", TypeName: "Sensor", Qos: types.DefaultEndpointQos()}
	local.remoteReaderData[subGUID] = remote
	le := local.localPublications[pubGUID.Entity]
	local.attemptMatch(le, remote, true)
	local.attemptMatch(le, remote, true)

	var matchCount int
	for _, e := range local.Effects() {
		if e.Kind == effect.KindWriterMatch {
			matchCount++
		}
	}
	require.Equal(t, 1, matchCount)
}
