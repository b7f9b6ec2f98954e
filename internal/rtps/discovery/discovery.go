package discovery

import (
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rtps-go/rtps/internal/logger"
	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/proxy"
	"github.com/rtps-go/rtps/internal/rtps/reader"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/writer"
	"github.com/rtps-go/rtps/internal/rtpsmetrics"
)

// Config bundles the construction-time parameters of an Engine.
type Config struct {
	GuidPrefix types.GuidPrefix
	DomainId   uint32
	DomainTag  string
	UserData   []byte

	LeaseDuration            types.Duration
	AnnouncementPeriodMillis int64

	// ParticipantRemovalPeriodMillis governs how often the
	// ParticipantRemoval tick sweeps for expired leases. Independent of
	// AnnouncementPeriodMillis since a host may want lease sweeps to run
	// less often than announcements (spec §4.8 names both ticks but does
	// not tie their periods together).
	ParticipantRemovalPeriodMillis int64

	MetatrafficUnicastLocators   []types.Locator
	MetatrafficMulticastLocators []types.Locator
	DefaultUnicastLocators       []types.Locator
	DefaultMulticastLocators     []types.Locator

	Logger  *zap.SugaredLogger
	Metrics *rtpsmetrics.Registry
}

// localEndpoint is the bookkeeping kept per locally registered publication
// or subscription (spec §4.8: "Remember local endpoint data keyed by its
// EntityId along with the set of remote peers it is already matched to").
type localEndpoint struct {
	Info    EndpointInfo
	Matched map[types.GUID]struct{}
}

// Engine is the SPDP/SEDP discovery state machine (spec §4.8). Like
// Writer/Reader it wraps, it is a pure (state, input, now_ms) -> (state',
// effects) machine; the three Writer/Reader pairs (six instances) it owns
// are "ordinary" instances over the reserved discovery EntityIds.
type Engine struct {
	localGuidPrefix types.GuidPrefix
	domainId        uint32
	domainTag       string
	userData        []byte

	leaseDuration                  types.Duration
	announcementPeriodMillis       int64
	participantRemovalPeriodMillis int64

	metatrafficUnicastLocators   []types.Locator
	metatrafficMulticastLocators []types.Locator
	defaultUnicastLocators       []types.Locator
	defaultMulticastLocators     []types.Locator

	manualLivelinessCount int32
	lastAnnounceMillis    int64

	// sendFailureBackoff computes the jittered re-announce delay once
	// NotifySendFailure has been called; troc-core's disc.rs always
	// announces on a fixed period with no jitter, which lets synchronized
	// peers' re-announces collide after a shared transient outage.
	sendFailureBackoff  *backoff.ExponentialBackOff
	consecutiveFailures int

	remoteParticipants map[types.GuidPrefix]*proxy.ParticipantProxy

	spdpAnnouncer    *writer.Writer
	spdpDetector     *reader.Reader
	sedpPubAnnouncer *writer.Writer
	sedpPubDetector  *reader.Reader
	sedpSubAnnouncer *writer.Writer
	sedpSubDetector  *reader.Reader

	localPublications  map[types.EntityId]*localEndpoint
	localSubscriptions map[types.EntityId]*localEndpoint

	// remoteWriterData/remoteReaderData remember the last DiscoveredWriter/
	// ReaderData seen for a remote endpoint, so a local endpoint registered
	// *after* the remote was already announced still gets matched against
	// it (spec §4.8 describes the DATA-ingest direction; this is the
	// symmetric direction the text is silent on).
	remoteWriterData map[types.GUID]EndpointInfo
	remoteReaderData map[types.GUID]EndpointInfo

	log     *zap.SugaredLogger
	metrics *rtpsmetrics.Registry
	effects *effect.Queue
}

// New builds a Engine from cfg and installs the local ParticipantProxy (the
// proxy itself is implicit in Engine's own locator/lease fields; there is
// no separate remote-side bookkeeping for the local participant).
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Noop()
	}
	log = logger.WithEntity(log, "discovery", cfg.GuidPrefix.String())

	boff := &backoff.ExponentialBackOff{
		InitialInterval:     time.Duration(cfg.AnnouncementPeriodMillis) * time.Millisecond,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         time.Minute,
	}
	boff.Reset()

	d := &Engine{
		localGuidPrefix:                cfg.GuidPrefix,
		domainId:                       cfg.DomainId,
		domainTag:                      cfg.DomainTag,
		userData:                       cfg.UserData,
		leaseDuration:                  cfg.LeaseDuration,
		announcementPeriodMillis:       cfg.AnnouncementPeriodMillis,
		participantRemovalPeriodMillis: cfg.ParticipantRemovalPeriodMillis,
		metatrafficUnicastLocators:     cfg.MetatrafficUnicastLocators,
		metatrafficMulticastLocators:   cfg.MetatrafficMulticastLocators,
		defaultUnicastLocators:         cfg.DefaultUnicastLocators,
		defaultMulticastLocators:       cfg.DefaultMulticastLocators,
		sendFailureBackoff:             boff,
		remoteParticipants:             make(map[types.GuidPrefix]*proxy.ParticipantProxy),
		localPublications:              make(map[types.EntityId]*localEndpoint),
		localSubscriptions:             make(map[types.EntityId]*localEndpoint),
		remoteWriterData:               make(map[types.GUID]EndpointInfo),
		remoteReaderData:               make(map[types.GUID]EndpointInfo),
		log:                            log,
		metrics:                        cfg.Metrics,
		effects:                        effect.NewQueue(cfg.Metrics),
	}

	d.spdpAnnouncer = writer.New(writer.Config{
		GUID: types.NewGUID(cfg.GuidPrefix, types.EntityIdSPDPAnnouncer), Reliability: types.ReliabilityBestEffort,
		History: types.HistoryQos{Kind: types.HistoryKeepLast, Depth: 1},
		Logger:  log, Metrics: cfg.Metrics,
	})
	// SPDP always targets the fixed metatraffic multicast group rather
	// than a negotiated per-reader proxy (its detector is stateless and
	// never ACKNACKs back), so one pseudo-ReaderProxy keyed by the zero
	// GUID stands in for "everyone listening on the multicast group".
	d.spdpAnnouncer.AddProxy(types.GUID{}, cfg.MetatrafficMulticastLocators, false)

	d.spdpDetector = reader.New(reader.Config{
		GUID: types.NewGUID(cfg.GuidPrefix, types.EntityIdSPDPDetector), Reliability: types.ReliabilityBestEffort,
		History: types.HistoryQos{Kind: types.HistoryKeepLast, Depth: 1}, Stateless: true,
		Logger: log, Metrics: cfg.Metrics,
	})

	d.sedpPubAnnouncer = writer.New(writer.Config{
		GUID: types.NewGUID(cfg.GuidPrefix, types.EntityIdSEDPPubAnnouncer), Reliability: types.ReliabilityReliable,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, HeartbeatPeriodMillis: cfg.AnnouncementPeriodMillis,
		Logger: log, Metrics: cfg.Metrics,
	})
	d.sedpPubDetector = reader.New(reader.Config{
		GUID: types.NewGUID(cfg.GuidPrefix, types.EntityIdSEDPPubDetector), Reliability: types.ReliabilityReliable,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, HeartbeatResponseDelayMillis: cfg.AnnouncementPeriodMillis / 4,
		Logger: log, Metrics: cfg.Metrics,
	})

	d.sedpSubAnnouncer = writer.New(writer.Config{
		GUID: types.NewGUID(cfg.GuidPrefix, types.EntityIdSEDPSubAnnouncer), Reliability: types.ReliabilityReliable,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, HeartbeatPeriodMillis: cfg.AnnouncementPeriodMillis,
		Logger: log, Metrics: cfg.Metrics,
	})
	d.sedpSubDetector = reader.New(reader.Config{
		GUID: types.NewGUID(cfg.GuidPrefix, types.EntityIdSEDPSubDetector), Reliability: types.ReliabilityReliable,
		History: types.HistoryQos{Kind: types.HistoryKeepAll}, HeartbeatResponseDelayMillis: cfg.AnnouncementPeriodMillis / 4,
		Logger: log, Metrics: cfg.Metrics,
	})

	return d
}

// Init installs the local ParticipantProxy (already done by New) and
// schedules the three periodic ticks plus the lease-sweep tick (spec
// §4.8 "On init").
func (d *Engine) Init() {
	d.effects.Append(effect.ScheduleTickE(effect.TimerParticipantAnnounce, d.announcementPeriodMillis))
	d.effects.Append(effect.ScheduleTickE(effect.TimerPublicationAnnouncer, d.announcementPeriodMillis))
	d.effects.Append(effect.ScheduleTickE(effect.TimerSubscriptionAnnouncer, d.announcementPeriodMillis))
	d.effects.Append(effect.ScheduleTickE(effect.TimerParticipantRemoval, d.participantRemovalPeriodMillis))
}

// UpdateParticipantInfos lets the host change the locators/user_data this
// participant announces after construction (spec §6 engine boundary:
// "update_participant_infos"), taking effect on the next announce.
func (d *Engine) UpdateParticipantInfos(userData []byte, defaultUnicast, defaultMulticast []types.Locator) {
	d.userData = userData
	d.defaultUnicastLocators = defaultUnicast
	d.defaultMulticastLocators = defaultMulticast
}

// Effects drains this engine's own queue plus every wrapped Writer/Reader's
// queue, remapping the generic TimerReader/TimerWriter ScheduleTick ids
// each emits into the Discovery-specific ids that disambiguate which of
// the two SEDP channels a future tick(id) call should drive.
func (d *Engine) Effects() []effect.Effect {
	out := d.effects.Drain()
	// spdpAnnouncer is BestEffort with no heartbeat_period configured, so
	// its Tick is never driven and it never emits a ScheduleTick effect;
	// its queue only ever carries Message effects, which need no remap.
	out = append(out, d.spdpAnnouncer.Effects()...)
	out = append(out, d.spdpDetector.Effects()...)
	out = append(out, remapTicks(d.sedpPubAnnouncer.Effects(), effect.TimerWriter, effect.TimerPublicationAnnouncer)...)
	out = append(out, remapTicks(d.sedpPubDetector.Effects(), effect.TimerReader, effect.TimerPublicationDetector)...)
	out = append(out, remapTicks(d.sedpSubAnnouncer.Effects(), effect.TimerWriter, effect.TimerSubscriptionAnnouncer)...)
	out = append(out, remapTicks(d.sedpSubDetector.Effects(), effect.TimerReader, effect.TimerSubscriptionDetector)...)
	return out
}

func remapTicks(effects []effect.Effect, from, to effect.TimerId) []effect.Effect {
	for i := range effects {
		if effects[i].Kind == effect.KindScheduleTick && effects[i].ScheduleTick.Id == from {
			effects[i].ScheduleTick.Id = to
		}
	}
	return effects
}

// NotifySendFailure records an outbound send failure for this
// participant's announce traffic, so the next ParticipantAnnounce tick
// uses a jittered backoff delay instead of the fixed announcement_period.
func (d *Engine) NotifySendFailure() {
	d.consecutiveFailures++
}

func (d *Engine) localParticipantData() ParticipantData {
	return ParticipantData{
		GuidPrefix:                   d.localGuidPrefix,
		DomainId:                     d.domainId,
		DomainTag:                    d.domainTag,
		ProtocolVersion:              types.ProtocolVersion24,
		VendorId:                     types.VendorIdThis,
		AvailableBuiltinEndpoints:    types.StandardSet,
		MetatrafficUnicastLocators:   d.metatrafficUnicastLocators,
		MetatrafficMulticastLocators: d.metatrafficMulticastLocators,
		DefaultUnicastLocators:       d.defaultUnicastLocators,
		DefaultMulticastLocators:     d.defaultMulticastLocators,
		LeaseDuration:                d.leaseDuration,
		ManualLivelinessCount:        d.manualLivelinessCount,
		UserData:                     d.userData,
	}
}

func participantInstanceHandle(prefix types.GuidPrefix) types.InstanceHandle {
	return guidInstanceHandle(types.NewGUID(prefix, types.EntityIdParticipant))
}

// announceNow builds and queues a fresh PDP announce, used by both the
// periodic ParticipantAnnounce tick and the immediate re-announce forced
// by discovering a new remote participant (spec §4.8).
func (d *Engine) announceNow(nowMillis int64) {
	payload := d.localParticipantData().Encode()
	c := d.spdpAnnouncer.NewChange(types.ChangeKindAlive, participantInstanceHandle(d.localGuidPrefix), payload, nil, nowMillis)
	d.spdpAnnouncer.AddChange(c, false, nowMillis)
	d.lastAnnounceMillis = nowMillis
}
