package types

// BuiltinEndpointSet is the bitmask a ParticipantProxy advertises naming
// which SPDP/SEDP builtin endpoints it has instantiated (spec §3
// ParticipantProxy, §4.8 discovery cross-wiring).
type BuiltinEndpointSet uint32

const (
	BuiltinParticipantAnnouncer BuiltinEndpointSet = 1 << iota
	BuiltinParticipantDetector
	BuiltinPublicationsAnnouncer
	BuiltinPublicationsDetector
	BuiltinSubscriptionsAnnouncer
	BuiltinSubscriptionsDetector
	BuiltinParticipantMessageWriter
	BuiltinParticipantMessageReader
	BuiltinTopicsAnnouncer
	BuiltinTopicsDetector
)

// Has reports whether flag is set in s.
func (s BuiltinEndpointSet) Has(flag BuiltinEndpointSet) bool { return s&flag != 0 }

// StandardSet is the mask this implementation always advertises: the SPDP
// channel, both SEDP channels, and the participant message channel. The
// discovery engine's New builds the SPDP and SEDP writers/readers; it
// builds no participant message writer or reader, although the mask sets
// their bits.
var StandardSet = BuiltinParticipantAnnouncer | BuiltinParticipantDetector |
	BuiltinPublicationsAnnouncer | BuiltinPublicationsDetector |
	BuiltinSubscriptionsAnnouncer | BuiltinSubscriptionsDetector |
	BuiltinParticipantMessageWriter | BuiltinParticipantMessageReader
