package discovery

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtpserrors"
)

// QosPolicyConsistencyChecker compares an offered (writer) EndpointInfo
// against a requested (reader) one, in the exact order spec §4.8 lists.
// Returns nil when the pair is compatible, else an InconsistentPolicyError
// naming the first failing point.
func QosPolicyConsistencyChecker(offered, requested EndpointInfo) error {
	const op = "discovery.qos_matcher"

	if offered.TopicName != requested.TopicName {
		return rtpserrors.NewInconsistentPolicy(op, "topic_name mismatch")
	}
	if offered.TypeName != requested.TypeName {
		return rtpserrors.NewInconsistentPolicy(op, "type_name mismatch")
	}
	if !durabilityCompatible(offered.Qos.Durability.Kind, requested.Qos.Durability.Kind) {
		return rtpserrors.NewInconsistentPolicy(op, "durability incompatible")
	}
	if offered.Qos.Deadline.Period.Millis() > requested.Qos.Deadline.Period.Millis() {
		return rtpserrors.NewInconsistentPolicy(op, "deadline incompatible")
	}
	if offered.Qos.Reliability.Kind == types.ReliabilityBestEffort && requested.Qos.Reliability.Kind == types.ReliabilityReliable {
		return rtpserrors.NewInconsistentPolicy(op, "reliability incompatible")
	}
	if offered.Qos.Liveliness.LeaseDuration.Millis() > requested.Qos.Liveliness.LeaseDuration.Millis() {
		return rtpserrors.NewInconsistentPolicy(op, "liveliness lease_duration incompatible")
	}
	if !livelinessKindCompatible(offered.Qos.Liveliness.Kind, requested.Qos.Liveliness.Kind) {
		return rtpserrors.NewInconsistentPolicy(op, "liveliness kind incompatible")
	}
	return nil
}

// durabilityRank orders DurabilityKind so compatibility is "offered >=
// requested" (spec point 3: Volatile requires Volatile; TransientLocal
// offered accepts Volatile requested).
func durabilityRank(k types.DurabilityKind) int {
	if k == types.DurabilityTransientLocal {
		return 1
	}
	return 0
}

func durabilityCompatible(offered, requested types.DurabilityKind) bool {
	return durabilityRank(offered) >= durabilityRank(requested)
}

// livelinessKindCompatible implements the matrix spec §4.8 point 6 names:
// Automatic/Automatic, */ManualByParticipant, ManualByTopic/ManualByTopic.
func livelinessKindCompatible(offered, requested types.LivelinessKind) bool {
	if requested == types.LivelinessManualByParticipant {
		return true
	}
	if offered == types.LivelinessAutomatic && requested == types.LivelinessAutomatic {
		return true
	}
	if offered == types.LivelinessManualByTopic && requested == types.LivelinessManualByTopic {
		return true
	}
	return false
}
