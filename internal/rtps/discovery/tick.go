package discovery

import (
	"github.com/rtps-go/rtps/internal/rtps/effect"
)

// Tick drives the timer named by id (spec §4.8: ParticipantAnnounce and
// ParticipantRemoval are Discovery's own ticks; the other four route to
// whichever internal Writer/Reader the Effects remap traced them back to).
func (d *Engine) Tick(id effect.TimerId, nowMillis int64) {
	switch id {
	case effect.TimerParticipantAnnounce:
		d.tickParticipantAnnounce(nowMillis)
	case effect.TimerParticipantRemoval:
		d.tickParticipantRemoval(nowMillis)
	case effect.TimerPublicationAnnouncer:
		d.sedpPubAnnouncer.Tick(nowMillis)
	case effect.TimerPublicationDetector:
		d.sedpPubDetector.Tick(nowMillis)
	case effect.TimerSubscriptionAnnouncer:
		d.sedpSubAnnouncer.Tick(nowMillis)
	case effect.TimerSubscriptionDetector:
		d.sedpSubDetector.Tick(nowMillis)
	default:
		d.log.Debugw("ignoring tick for unrelated timer", "timer", id.String())
	}
}

// tickParticipantAnnounce re-announces this participant on every call and
// then reschedules itself. It does not check how long ago the last
// announce was, so an announce forced by a newly discovered peer is
// followed by another one at the next tick regardless of the time between
// them. After a send failure reported through NotifySendFailure it
// instead reschedules with a jittered exponential backoff, so a
// transient outage does not leave every peer re-announcing in lockstep
// once it clears (troc-core's disc.rs reschedules on a fixed period with
// no such jitter).
func (d *Engine) tickParticipantAnnounce(nowMillis int64) {
	d.announceNow(nowMillis)

	delayMillis := d.announcementPeriodMillis
	if d.consecutiveFailures > 0 {
		if next := d.sendFailureBackoff.NextBackOff(); next > 0 {
			delayMillis = next.Milliseconds()
		}
	} else {
		d.sendFailureBackoff.Reset()
	}
	d.consecutiveFailures = 0

	d.effects.Append(effect.ScheduleTickE(effect.TimerParticipantAnnounce, delayMillis))
}

// tickParticipantRemoval sweeps remote participants for lease expiry,
// tearing down their SEDP proxies and notifying the host (spec §4.8).
func (d *Engine) tickParticipantRemoval(nowMillis int64) {
	for prefix, p := range d.remoteParticipants {
		if p.HasExpired(nowMillis) {
			delete(d.remoteParticipants, prefix)
			d.removeSedpProxiesFor(prefix)
			d.metrics.IncParticipantExpired()
			d.effects.Append(effect.ParticipantRemovedE(effect.ParticipantRemovedPayload{GuidPrefix: prefix}))
		}
	}
	d.effects.Append(effect.ScheduleTickE(effect.TimerParticipantRemoval, d.participantRemovalPeriodMillis))
}
