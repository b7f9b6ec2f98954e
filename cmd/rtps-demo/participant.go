package main

import (
	"go.uber.org/zap"

	"github.com/rtps-go/rtps/internal/logger"
	"github.com/rtps-go/rtps/internal/rtps/discovery"
	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/reader"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
	"github.com/rtps-go/rtps/internal/rtps/writer"
	"github.com/rtps-go/rtps/internal/rtpsmetrics"
)

// participant wires one participant's discovery engine together with, at
// most, a single application-level publication or subscription. It is the
// host-owned object spec.md §5 describes: every engine inside it is a pure
// value, and participant itself owns the only I/O this demo performs —
// in-process delivery to its peer instead of real UDP sockets (spec.md's
// explicit Non-goal list excludes "transport sockets" from the core, and
// this demo never opens any).
type participant struct {
	name       string
	guidPrefix types.GuidPrefix

	disc *discovery.Engine

	pubEntity types.EntityId
	pub       *writer.Writer

	subEntity types.EntityId
	sub       *reader.Reader

	topicName string
	typeName  string
	reliable  bool

	log *zap.SugaredLogger

	// peerInbox is the linked participant's inbox, never called into
	// directly: each participant's engines are only ever touched by its own
	// driving goroutine, so handing a peer an encoded Message means posting
	// to a channel it owns, not invoking a method on it across goroutines.
	peerInbox chan<- []byte
	inbox     chan []byte

	// pendingTicks tracks the absolute now_ms each ScheduleTick effect asked
	// to be revisited at; the demo's run loop polls dueTicks each step
	// instead of using real OS timers, since it drives a simulated clock.
	pendingTicks map[effect.TimerId]int64
}

// newPublisher builds a participant that publishes cfg.TopicName.
func newPublisher(name string, prefix types.GuidPrefix, cfg *DomainConfig, metrics *rtpsmetrics.Registry) *participant {
	log := logger.WithEntity(logger.Logger(), "participant", name)
	p := newBareParticipant(name, prefix, cfg, metrics, log)

	p.pubEntity = types.EntityId{Key: [3]byte{0, 0, 1}, Kind: types.EntityKindUserWriterWithKey}
	history := types.HistoryQos{Kind: types.HistoryKeepLast, Depth: cfg.HistoryDepth}
	reliability := types.ReliabilityBestEffort
	if cfg.Reliable {
		reliability = types.ReliabilityReliable
	}
	p.pub = writer.New(writer.Config{
		GUID: types.NewGUID(prefix, p.pubEntity), Reliability: reliability, History: history,
		NackResponseDelayMillis: cfg.AnnouncementPeriodMillis / 4,
		HeartbeatPeriodMillis:   cfg.AnnouncementPeriodMillis,
		Logger:                  log, Metrics: metrics,
	})

	p.disc.AddPublicationsInfos(discovery.EndpointInfo{
		GUID: p.pub.GUID(), TopicName: cfg.TopicName, TypeName: cfg.TypeName,
		Qos: endpointQos(reliability),
	}, types.NowMillis())

	return p
}

// newSubscriber builds a participant that subscribes to cfg.TopicName.
func newSubscriber(name string, prefix types.GuidPrefix, cfg *DomainConfig, metrics *rtpsmetrics.Registry) *participant {
	log := logger.WithEntity(logger.Logger(), "participant", name)
	p := newBareParticipant(name, prefix, cfg, metrics, log)

	p.subEntity = types.EntityId{Key: [3]byte{0, 0, 1}, Kind: types.EntityKindUserReaderWithKey}
	history := types.HistoryQos{Kind: types.HistoryKeepLast, Depth: cfg.HistoryDepth}
	reliability := types.ReliabilityBestEffort
	if cfg.Reliable {
		reliability = types.ReliabilityReliable
	}
	p.sub = reader.New(reader.Config{
		GUID: types.NewGUID(prefix, p.subEntity), Reliability: reliability, History: history,
		HeartbeatResponseDelayMillis: cfg.AnnouncementPeriodMillis / 4,
		Logger:                       log, Metrics: metrics,
	})

	p.disc.AddSubscriptionsInfos(discovery.EndpointInfo{
		GUID: p.sub.GUID(), TopicName: cfg.TopicName, TypeName: cfg.TypeName,
		Qos: endpointQos(reliability),
	}, types.NowMillis())

	return p
}

func newBareParticipant(name string, prefix types.GuidPrefix, cfg *DomainConfig, metrics *rtpsmetrics.Registry, log *zap.SugaredLogger) *participant {
	multicast := []types.Locator{cfg.metatrafficMulticastLocator()}
	disc := discovery.New(discovery.Config{
		GuidPrefix: prefix, DomainId: cfg.DomainId, DomainTag: cfg.DomainTag,
		LeaseDuration:                  types.DurationFromMillis(cfg.LeaseDurationMillis),
		AnnouncementPeriodMillis:       cfg.AnnouncementPeriodMillis,
		ParticipantRemovalPeriodMillis: cfg.ParticipantRemovalPeriodMillis,
		MetatrafficMulticastLocators:   multicast,
		Logger:                         log, Metrics: metrics,
	})
	return &participant{
		name: name, guidPrefix: prefix, disc: disc,
		topicName: cfg.TopicName, typeName: cfg.TypeName, reliable: cfg.Reliable,
		log:          log,
		inbox:        make(chan []byte, 256),
		pendingTicks: make(map[effect.TimerId]int64),
	}
}

func endpointQos(reliability types.ReliabilityKind) types.EndpointQos {
	qos := types.DefaultEndpointQos()
	qos.Reliability.Kind = reliability
	return qos
}

// link makes a and b each other's in-process transport peer: posting to
// peerInbox is the only cross-goroutine interaction the demo performs, so
// each participant's own engines stay touched by exactly one goroutine.
func link(a, b *participant) {
	a.peerInbox = b.inbox
	b.peerInbox = a.inbox
}

// init starts the participant's discovery announce/removal ticks. It does
// not start a publisher's Writer tick; the Writer first schedules that
// itself when it ingests an ACKNACK or NACK_FRAG.
func (p *participant) init(nowMillis int64) {
	p.disc.Init()
	p.drainAndDeliver(nowMillis)
}

// publish drives one outbound sample through the application-level Writer,
// if this participant has one.
func (p *participant) publish(payload []byte, nowMillis int64) {
	if p.pub == nil {
		return
	}
	c := p.pub.NewChange(types.ChangeKindAlive, instanceHandle(p.pub.GUID()), payload, nil, nowMillis)
	p.pub.AddChange(c, true, nowMillis)
	p.drainAndDeliver(nowMillis)
}

// tick drives timer id, routing it to whichever internal engine owns it,
// then delivers whatever effects that produced to the peer.
func (p *participant) tick(id effect.TimerId, nowMillis int64) {
	switch id {
	case effect.TimerWriter:
		if p.pub != nil {
			p.pub.Tick(nowMillis)
		}
	case effect.TimerReader:
		if p.sub != nil {
			p.sub.Tick(nowMillis)
		}
	default:
		p.disc.Tick(id, nowMillis)
	}
	p.drainAndDeliver(nowMillis)
}

// ingest decodes buf as an RTPS Message and routes every submessage to this
// participant's discovery engine and, if present, its application-level
// Writer/Reader; each engine self-filters to submessages addressed to it
// (the same pattern internal/rtps/discovery uses across its six wrapped
// engines).
func (p *participant) ingest(buf []byte, nowMillis int64) {
	msg, err := wire.DecodeMessage(buf)
	if err != nil {
		p.log.Debugw("dropping malformed message", "error", err.Error())
		return
	}
	for _, sm := range msg.Submessages {
		p.disc.Ingest(msg.Header.GuidPrefix, sm, nowMillis)
		if p.pub != nil {
			p.pub.Ingest(msg.Header.GuidPrefix, sm, nowMillis)
		}
		if p.sub != nil {
			p.sub.Ingest(msg.Header.GuidPrefix, sm, nowMillis)
		}
	}
	p.drainAndDeliver(nowMillis)
}

// drainAndDeliver drains every effect this participant's engines produced:
// Message effects are posted to the linked peer's inbox channel (the demo's
// entire "transport"), ScheduleTick effects are recorded as pending timers,
// and match effects wire the application-level proxy the host is
// responsible for once Discovery reports a QoS-compatible pair (spec §4.8:
// discovery only notifies, the host wires the real endpoint).
func (p *participant) drainAndDeliver(nowMillis int64) {
	var pending []effect.Effect
	pending = append(pending, p.disc.Effects()...)
	if p.pub != nil {
		pending = append(pending, p.pub.Effects()...)
	}
	if p.sub != nil {
		pending = append(pending, p.sub.Effects()...)
	}

	for _, e := range pending {
		switch e.Kind {
		case effect.KindMessage:
			if p.peerInbox != nil {
				select {
				case p.peerInbox <- e.Message.Message:
				default:
					p.log.Warnw("peer inbox full, dropping message", "bytes", len(e.Message.Message))
				}
			}
		case effect.KindWriterMatch:
			if e.WriterMatch.Success && p.pub != nil && e.WriterMatch.LocalWriterGUID == p.pub.GUID() {
				p.pub.AddProxy(e.WriterMatch.RemoteReaderGUID, nil, false)
				p.log.Infow("writer matched remote reader", "remote", e.WriterMatch.RemoteReaderGUID.String())
			}
		case effect.KindReaderMatch:
			if e.ReaderMatch.Success && p.sub != nil && e.ReaderMatch.LocalReaderGUID == p.sub.GUID() {
				p.sub.AddProxy(e.ReaderMatch.RemoteWriterGUID, nil, 0)
				p.log.Infow("reader matched remote writer", "remote", e.ReaderMatch.RemoteWriterGUID.String())
			}
		case effect.KindParticipantMatch:
			p.log.Infow("discovered remote participant", "guid_prefix", e.ParticipantMatch.GuidPrefix.String())
		case effect.KindParticipantRemoved:
			p.log.Infow("remote participant lease expired", "guid_prefix", e.ParticipantRemoved.GuidPrefix.String())
		case effect.KindScheduleTick:
			p.pendingTicks[e.ScheduleTick.Id] = nowMillis + e.ScheduleTick.DelayMillis
		}
	}
}

// drainInbox processes every message the peer has posted since the last
// call, on the caller's own goroutine — the only place p.ingest is ever
// invoked from, keeping every engine inside p single-goroutine-owned.
func (p *participant) drainInbox(nowMillis int64) {
	for {
		select {
		case buf := <-p.inbox:
			p.ingest(buf, nowMillis)
		default:
			return
		}
	}
}

// dueTicks returns and clears every pending timer whose due time has
// arrived by nowMillis.
func (p *participant) dueTicks(nowMillis int64) []effect.TimerId {
	var due []effect.TimerId
	for id, at := range p.pendingTicks {
		if at <= nowMillis {
			due = append(due, id)
			delete(p.pendingTicks, id)
		}
	}
	return due
}

// instanceHandle derives a trivial per-GUID instance handle for the demo's
// single-instance topic. Real key-hash derivation from a sample's key
// fields is explicitly out of scope for the core (spec.md Non-goals); the
// demo only ever publishes one keyless instance per topic.
func instanceHandle(guid types.GUID) types.InstanceHandle {
	var h types.InstanceHandle
	copy(h[:12], guid.Prefix[:])
	copy(h[12:], []byte{guid.Entity.Key[0], guid.Entity.Key[1], guid.Entity.Key[2], byte(guid.Entity.Kind)})
	return h
}
