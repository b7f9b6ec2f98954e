// Package rtpsmetrics exposes passive, in-process counters and gauges the
// engines update synchronously as they process ingests and ticks. Updating
// an atomic counter is not I/O and does not violate the engine's I/O-free
// contract (spec §1); scraping these over HTTP is the host's concern, same
// split as transport sockets.
package rtpsmetrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the counters/gauges a Writer, Reader, or Discovery
// engine updates. The zero value is unusable; use NewRegistry. A nil
// *Registry receiver on every method is a safe no-op, so engines can be
// constructed without metrics wired in at all.
type Registry struct {
	HeartbeatsSent      prometheus.Counter
	GapsSent            prometheus.Counter
	DataRetransmitted   prometheus.Counter
	AckNacksProcessed   prometheus.Counter
	NackFragsProcessed  prometheus.Counter
	ReassembliesOpen    prometheus.Gauge
	ReassembliesDropped prometheus.Counter
	EffectQueueDepth    prometheus.Gauge
	ParticipantsMatched prometheus.Counter
	ParticipantsExpired prometheus.Counter
	EndpointsMatched    prometheus.Counter
	MatchFailures       prometheus.Counter
}

// NewRegistry builds a Registry and registers every metric with reg. Labels
// identify the owning entity (e.g. a stringified GUID) so multiple engines
// in one process can share a *prometheus.Registry without collisions.
func NewRegistry(reg prometheus.Registerer, entity string) *Registry {
	labels := prometheus.Labels{"entity": entity}
	r := &Registry{
		HeartbeatsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "heartbeats_sent_total", ConstLabels: labels,
		}),
		GapsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "gaps_sent_total", ConstLabels: labels,
		}),
		DataRetransmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "data_retransmitted_total", ConstLabels: labels,
		}),
		AckNacksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "acknacks_processed_total", ConstLabels: labels,
		}),
		NackFragsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "nackfrags_processed_total", ConstLabels: labels,
		}),
		ReassembliesOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtps", Name: "reassemblies_open", ConstLabels: labels,
		}),
		ReassembliesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "reassemblies_dropped_total", ConstLabels: labels,
		}),
		EffectQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtps", Name: "effect_queue_depth", ConstLabels: labels,
		}),
		ParticipantsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "participants_matched_total", ConstLabels: labels,
		}),
		ParticipantsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "participants_expired_total", ConstLabels: labels,
		}),
		EndpointsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "endpoints_matched_total", ConstLabels: labels,
		}),
		MatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtps", Name: "match_failures_total", ConstLabels: labels,
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{
			r.HeartbeatsSent, r.GapsSent, r.DataRetransmitted, r.AckNacksProcessed,
			r.NackFragsProcessed, r.ReassembliesOpen, r.ReassembliesDropped,
			r.EffectQueueDepth, r.ParticipantsMatched, r.ParticipantsExpired,
			r.EndpointsMatched, r.MatchFailures,
		} {
			reg.MustRegister(c)
		}
	}
	return r
}

func (r *Registry) incHeartbeat() {
	if r != nil {
		r.HeartbeatsSent.Inc()
	}
}
func (r *Registry) incGap() {
	if r != nil {
		r.GapsSent.Inc()
	}
}
func (r *Registry) incRetransmit() {
	if r != nil {
		r.DataRetransmitted.Inc()
	}
}
func (r *Registry) incAckNack() {
	if r != nil {
		r.AckNacksProcessed.Inc()
	}
}
func (r *Registry) incNackFrag() {
	if r != nil {
		r.NackFragsProcessed.Inc()
	}
}
func (r *Registry) setReassembliesOpen(n int) {
	if r != nil {
		r.ReassembliesOpen.Set(float64(n))
	}
}
func (r *Registry) incReassemblyDropped() {
	if r != nil {
		r.ReassembliesDropped.Inc()
	}
}
func (r *Registry) setQueueDepth(n int) {
	if r != nil {
		r.EffectQueueDepth.Set(float64(n))
	}
}
func (r *Registry) incParticipantMatched() {
	if r != nil {
		r.ParticipantsMatched.Inc()
	}
}
func (r *Registry) incParticipantExpired() {
	if r != nil {
		r.ParticipantsExpired.Inc()
	}
}
func (r *Registry) incEndpointMatched() {
	if r != nil {
		r.EndpointsMatched.Inc()
	}
}
func (r *Registry) incMatchFailure() {
	if r != nil {
		r.MatchFailures.Inc()
	}
}

// IncHeartbeat, IncGap, ... are exported wrappers so engines in other
// packages can call through a possibly-nil *Registry without a nil check
// at every call site.
func (r *Registry) IncHeartbeat()             { r.incHeartbeat() }
func (r *Registry) IncGap()                   { r.incGap() }
func (r *Registry) IncRetransmit()            { r.incRetransmit() }
func (r *Registry) IncAckNack()               { r.incAckNack() }
func (r *Registry) IncNackFrag()              { r.incNackFrag() }
func (r *Registry) SetReassembliesOpen(n int) { r.setReassembliesOpen(n) }
func (r *Registry) IncReassemblyDropped()     { r.incReassemblyDropped() }
func (r *Registry) SetQueueDepth(n int)       { r.setQueueDepth(n) }
func (r *Registry) IncParticipantMatched()    { r.incParticipantMatched() }
func (r *Registry) IncParticipantExpired()    { r.incParticipantExpired() }
func (r *Registry) IncEndpointMatched()       { r.incEndpointMatched() }
func (r *Registry) IncMatchFailure()          { r.incMatchFailure() }
