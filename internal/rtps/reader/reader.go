// Package reader implements the Reader engine (spec §4.7): DATA/DATA_FRAG/
// HEARTBEAT/HEARTBEAT_FRAG/GAP ingest, ACKNACK/NACK_FRAG generation, and
// fragment reassembly delegated to internal/rtps/history. Like the Writer
// engine, it is a pure (state, input, now_ms) -> (state', effects) machine.
package reader

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/rtps-go/rtps/internal/logger"
	"github.com/rtps-go/rtps/internal/rtps/effect"
	"github.com/rtps-go/rtps/internal/rtps/history"
	"github.com/rtps-go/rtps/internal/rtps/proxy"
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
	"github.com/rtps-go/rtps/internal/rtpsmetrics"
)

var wireOrder = binary.LittleEndian

// Config bundles the construction-time parameters of a Reader.
type Config struct {
	GUID         types.GUID
	Reliability  types.ReliabilityKind
	History      types.HistoryQos
	FragmentSize uint32

	// Stateless readers skip proxy lookup and accept any source matching
	// the destination entity id (spec §4.7 "watch-all mode").
	Stateless bool

	HeartbeatResponseDelayMillis    int64
	HeartbeatSuppressionDelayMillis int64

	Logger  *zap.SugaredLogger
	Metrics *rtpsmetrics.Registry
}

// Reader is the protocol-engine state for one local DDS DataReader.
type Reader struct {
	guid         types.GUID
	reliability  types.ReliabilityKind
	fragmentSize uint32
	stateless    bool

	heartbeatResponseDelayMillis    int64
	heartbeatSuppressionDelayMillis int64

	cache   *history.ReaderHistoryCache
	proxies map[types.GUID]*proxy.WriterProxy

	// lastHeartbeatCount/lastHeartbeatFragCount gate replays per matched
	// writer proxy (spec §4.7: "Counter state gates HEARTBEAT and
	// HEARTBEAT_FRAG replays").
	lastHeartbeatCount     map[types.GUID]int32
	lastHeartbeatFragCount map[types.GUID]int32

	acknackCounter  int32
	nackFragCounter int32

	log     *zap.SugaredLogger
	metrics *rtpsmetrics.Registry
	effects *effect.Queue
}

// New builds a Reader from cfg.
func New(cfg Config) *Reader {
	log := cfg.Logger
	if log == nil {
		log = logger.Noop()
	}
	return &Reader{
		guid:                            cfg.GUID,
		reliability:                     cfg.Reliability,
		fragmentSize:                    cfg.FragmentSize,
		stateless:                       cfg.Stateless,
		heartbeatResponseDelayMillis:    cfg.HeartbeatResponseDelayMillis,
		heartbeatSuppressionDelayMillis: cfg.HeartbeatSuppressionDelayMillis,
		cache:                           history.NewReaderHistoryCache(cfg.History),
		proxies:                         make(map[types.GUID]*proxy.WriterProxy),
		lastHeartbeatCount:              make(map[types.GUID]int32),
		lastHeartbeatFragCount:          make(map[types.GUID]int32),
		log:                             logger.WithEntity(log, "reader", cfg.GUID.String()),
		metrics:                         cfg.Metrics,
		effects:                         effect.NewQueue(cfg.Metrics),
	}
}

// Effects drains the outbound effect queue.
func (r *Reader) Effects() []effect.Effect { return r.effects.Drain() }

// GUID returns this Reader's identity.
func (r *Reader) GUID() types.GUID { return r.guid }

// AddProxy registers a matched remote writer.
func (r *Reader) AddProxy(remote types.GUID, locators []types.Locator, dataMaxSize uint32) {
	r.proxies[remote] = proxy.NewWriterProxy(remote, locators, dataMaxSize)
}

// RemoveProxy drops a matched writer.
func (r *Reader) RemoveProxy(remote types.GUID) {
	delete(r.proxies, remote)
	delete(r.lastHeartbeatCount, remote)
	delete(r.lastHeartbeatFragCount, remote)
}

// TakeNextChange returns and marks Read the oldest pending change across
// all matched writers.
func (r *Reader) TakeNextChange() (history.CacheChange, bool) { return r.cache.TakeNextChange() }

// TakeNotReadChanges returns and marks Read every currently pending change.
func (r *Reader) TakeNotReadChanges() []history.CacheChange { return r.cache.TakeNotReadChanges() }

// GetFirstAvailableChange peeks the oldest pending change without
// consuming it.
func (r *Reader) GetFirstAvailableChange() (history.CacheChange, bool) {
	return r.cache.GetFirstAvailableChange()
}
