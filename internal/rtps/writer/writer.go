// Package writer implements the Writer engine (spec §4.6): new/add change,
// ACKNACK/NACK_FRAG ingest, and the periodic retransmission/heartbeat tick.
// Like every engine in this module it is a pure (state, input, now_ms) ->
// (state', effects) machine; all I/O is deferred to the host via the
// effect queue.
package writer

import (
	"encoding/binary"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rtps-go/rtps/internal/logger"
	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/history"
	"github.com/rtps-go/rtps/internal/rtps/proxy"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
	"github.com/rtps-go/rtps/internal/rtpsmetrics"
)

// wireOrder is the byte order this engine selects for submessages it
// originates. Receivers determine order independently per submessage from
// its own flags (spec §4.1); this is purely an outbound choice.
var wireOrder = binary.LittleEndian

// Config bundles the construction-time parameters of a Writer.
type Config struct {
	GUID         types.GUID
	Reliability  types.ReliabilityKind
	History      types.HistoryQos
	FragmentSize uint32

	NackResponseDelayMillis int64

	// HeartbeatPeriodMillis, when non-zero, makes Tick reschedule itself
	// unconditionally so idle Reliable writers still emit periodic
	// HEARTBEATs rather than relying solely on the NACK-triggered tick
	// (troc-core's writer.rs distinguishes this from nack_response_delay).
	HeartbeatPeriodMillis int64

	Logger  *zap.SugaredLogger
	Metrics *rtpsmetrics.Registry
}

// Writer is the protocol-engine state for one local DDS DataWriter.
type Writer struct {
	guid         types.GUID
	reliability  types.ReliabilityKind
	fragmentSize uint32

	nackResponseDelayMillis int64
	heartbeatPeriodMillis   int64

	// nackResponseJitter randomizes the delay before answering an ACKNACK
	// or NACK_FRAG around nackResponseDelayMillis (Multiplier 1 keeps the
	// magnitude constant; only RandomizationFactor spreads it). Without
	// this, readers that lost the same DATA tend to ACKNACK in lockstep
	// (e.g. after a shared multicast outage) and the writer would answer
	// every one of them at exactly the same instant.
	nackResponseJitter *backoff.ExponentialBackOff

	cache            *history.WriterHistoryCache
	proxies          map[types.GUID]*proxy.ReaderProxy
	heartbeatCounter int32

	log     *zap.SugaredLogger
	metrics *rtpsmetrics.Registry
	effects *effect.Queue
}

// New builds a Writer from cfg.
func New(cfg Config) *Writer {
	log := cfg.Logger
	if log == nil {
		log = logger.Noop()
	}
	jitter := &backoff.ExponentialBackOff{
		InitialInterval:     time.Duration(cfg.NackResponseDelayMillis) * time.Millisecond,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          1,
		MaxInterval:         time.Duration(cfg.NackResponseDelayMillis) * time.Millisecond,
	}
	jitter.Reset()
	return &Writer{
		guid:                    cfg.GUID,
		reliability:             cfg.Reliability,
		fragmentSize:            cfg.FragmentSize,
		nackResponseDelayMillis: cfg.NackResponseDelayMillis,
		heartbeatPeriodMillis:   cfg.HeartbeatPeriodMillis,
		nackResponseJitter:      jitter,
		cache:                   history.NewWriterHistoryCache(cfg.History),
		proxies:                 make(map[types.GUID]*proxy.ReaderProxy),
		log:                     logger.WithEntity(log, "writer", cfg.GUID.String()),
		metrics:                 cfg.Metrics,
		effects:                 effect.NewQueue(cfg.Metrics),
	}
}

// nextNackResponseDelayMillis returns a jittered delay for the next
// NACK-triggered retransmission, falling back to the flat configured delay
// when none was configured (a zero delay means "respond immediately").
func (w *Writer) nextNackResponseDelayMillis() int64 {
	if w.nackResponseDelayMillis <= 0 {
		return w.nackResponseDelayMillis
	}
	next := w.nackResponseJitter.NextBackOff()
	if next <= 0 {
		return w.nackResponseDelayMillis
	}
	return next.Milliseconds()
}

// Effects drains the outbound effect queue, per the host's consumer-driven
// drain contract (spec §5).
func (w *Writer) Effects() []effect.Effect { return w.effects.Drain() }

// GUID returns this Writer's identity.
func (w *Writer) GUID() types.GUID { return w.guid }

// AddProxy registers a matched remote reader (spec §4.8 cross-wiring: the
// discovery engine calls this once QosPolicyConsistencyChecker passes).
func (w *Writer) AddProxy(remote types.GUID, locators []types.Locator, expectsInlineQoS bool) {
	w.proxies[remote] = proxy.NewReaderProxy(remote, locators, expectsInlineQoS)
}

// RemoveProxy drops a matched reader, e.g. on participant lease expiry.
func (w *Writer) RemoveProxy(remote types.GUID) {
	delete(w.proxies, remote)
}

// NewChange assigns the next SequenceNumber for this Writer and stamps
// emission_timestamp, without yet storing the change (spec §4.6
// new_change).
func (w *Writer) NewChange(kind types.ChangeKind, instance types.InstanceHandle, payload []byte, inlineQoS []byte, nowMillis int64) history.CacheChange {
	seq := w.cache.NewChange()
	return history.CacheChange{
		Kind: kind, WriterGUID: w.guid, InstanceHandle: instance, SequenceNumber: seq,
		SampleSize: uint32(len(payload)), FragmentSize: w.fragmentSize,
		EmissionTimestamp: types.TimestampFromMillis(nowMillis),
		InlineQoS:         inlineQoS, Payload: payload,
	}
}

// AddChange pushes c into the history cache and, for every matched
// ReaderProxy, emits a DATA submessage (split into DATA_FRAGs if
// sample_size > fragment_size). If piggybackHeartbeat is set and this
// Writer is Reliable, a HEARTBEAT is appended to the same outbound
// message. The Effect's locators are the union of all matched readers'
// locators, deduplicated (spec §4.6).
func (w *Writer) AddChange(c history.CacheChange, piggybackHeartbeat bool, nowMillis int64) {
	if err := w.cache.AddChange(c); err != nil {
		w.log.Debugw("dropping add_change", "error", err)
		return
	}

	var subs []wire.Submessage
	if c.FragmentSize > 0 && c.SampleSize > c.FragmentSize {
		subs = append(subs, w.fragmentedDataSubmessages(c)...)
	} else {
		subs = append(subs, &wire.Data{
			ReaderId: types.EntityIdUnknown, WriterId: w.guid.Entity, WriterSN: c.SequenceNumber,
			InlineQoS:  optionalParameterList(c.InlineQoS),
			Payload:    &wire.SerializedPayload{Encapsulation: wire.EncapsulationCDRLE, Data: c.Payload},
			KeyPresent: c.Kind != types.ChangeKindAlive,
		})
	}

	if w.reliability == types.ReliabilityReliable && piggybackHeartbeat {
		w.heartbeatCounter++
		subs = append(subs, &wire.Heartbeat{
			ReaderId: types.EntityIdUnknown, WriterId: w.guid.Entity,
			FirstSN: w.cache.GetMinSequence(), LastSN: w.cache.GetMaxSequence(),
			Count: w.heartbeatCounter,
		})
	}

	locators := w.allProxyLocators()
	w.emit(subs, locators, nowMillis)
}

func (w *Writer) fragmentedDataSubmessages(c history.CacheChange) []wire.Submessage {
	count := c.FragmentsCount()
	out := make([]wire.Submessage, 0, count)
	for i := uint32(0); i < count; i++ {
		start := i * c.FragmentSize
		end := start + c.FragmentSize
		if end > c.SampleSize {
			end = c.SampleSize
		}
		out = append(out, &wire.DataFrag{
			ReaderId: types.EntityIdUnknown, WriterId: w.guid.Entity, WriterSN: c.SequenceNumber,
			FragmentStartingNum:   types.FragmentNumber(i + 1),
			FragmentsInSubmessage: 1,
			FragmentSize:          uint16(c.FragmentSize),
			SampleSize:            c.SampleSize,
			InlineQoS:             optionalParameterList(c.InlineQoS),
			Payload:               c.Payload[start:end],
		})
	}
	return out
}

func optionalParameterList(raw []byte) *wire.ParameterList {
	if len(raw) == 0 {
		return nil
	}
	pl := wire.ParameterList{Params: []wire.Parameter{{Id: wire.PidUserData, Value: raw}}}
	return &pl
}

func (w *Writer) allProxyLocators() []types.Locator {
	var all []types.Locator
	for _, p := range w.proxies {
		all = append(all, p.Locators...)
	}
	return types.DedupeLocators(all)
}

func (w *Writer) emit(subs []wire.Submessage, locators []types.Locator, nowMillis int64) {
	if len(subs) == 0 {
		return
	}
	msg := wire.Message{
		Header: wire.MessageHeader{
			Version: types.ProtocolVersion24, VendorId: types.VendorIdThis, GuidPrefix: w.guid.Prefix,
		},
		Submessages: subs,
	}
	w.effects.Append(effect.MessageEffect(effect.MessagePayload{
		TimestampMillis: nowMillis, Message: msg.Encode(wireOrder), Locators: locators,
	}))
}
