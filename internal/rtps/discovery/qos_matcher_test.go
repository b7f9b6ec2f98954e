package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtps-go/rtps/internal/rtps/types"
)

func baseInfo() EndpointInfo {
	return EndpointInfo{TopicName: "temperature", TypeName: "Sensor", Qos: types.DefaultEndpointQos()}
}

func TestQosPolicyConsistencyCheckerCompatibleDefaults(t *testing.T) {
	offered, requested := baseInfo(), baseInfo()
	require.NoError(t, QosPolicyConsistencyChecker(offered, requested))
}

func TestQosPolicyConsistencyCheckerTopicMismatch(t *testing.T) {
	offered, requested := baseInfo(), baseInfo()
	requested.TopicName = "pressure"
	require.Error(t, QosPolicyConsistencyChecker(offered, requested))
}

func TestQosPolicyConsistencyCheckerTypeMismatch(t *testing.T) {
	offered, requested := baseInfo(), baseInfo()
	requested.TypeName = "Other"
	require.Error(t, QosPolicyConsistencyChecker(offered, requested))
}

func TestQosPolicyConsistencyCheckerDurability(t *testing.T) {
	offered, requested := baseInfo(), baseInfo()
	requested.Qos.Durability.Kind = types.DurabilityTransientLocal
	require.Error(t, QosPolicyConsistencyChecker(offered, requested), "Volatile offered cannot satisfy TransientLocal requested")

	offered.Qos.Durability.Kind = types.DurabilityTransientLocal
	require.NoError(t, QosPolicyConsistencyChecker(offered, requested))

	requested.Qos.Durability.Kind = types.DurabilityVolatile
	require.NoError(t, QosPolicyConsistencyChecker(offered, requested), "TransientLocal offered satisfies Volatile requested")
}

func TestQosPolicyConsistencyCheckerDeadline(t *testing.T) {
	offered, requested := baseInfo(), baseInfo()
	offered.Qos.Deadline.Period = types.DurationFromMillis(500)
	requested.Qos.Deadline.Period = types.DurationFromMillis(100)
	require.Error(t, QosPolicyConsistencyChecker(offered, requested), "offered period looser than requested is incompatible")

	offered.Qos.Deadline.Period = types.DurationFromMillis(50)
	require.NoError(t, QosPolicyConsistencyChecker(offered, requested))
}

func TestQosPolicyConsistencyCheckerReliability(t *testing.T) {
	offered, requested := baseInfo(), baseInfo()
	offered.Qos.Reliability.Kind = types.ReliabilityBestEffort
	requested.Qos.Reliability.Kind = types.ReliabilityReliable
	require.Error(t, QosPolicyConsistencyChecker(offered, requested))

	offered.Qos.Reliability.Kind = types.ReliabilityReliable
	require.NoError(t, QosPolicyConsistencyChecker(offered, requested))
}

func TestQosPolicyConsistencyCheckerLivelinessLeaseDuration(t *testing.T) {
	offered, requested := baseInfo(), baseInfo()
	offered.Qos.Liveliness.LeaseDuration = types.DurationFromMillis(500)
	requested.Qos.Liveliness.LeaseDuration = types.DurationFromMillis(100)
	require.Error(t, QosPolicyConsistencyChecker(offered, requested))

	offered.Qos.Liveliness.LeaseDuration = types.DurationFromMillis(50)
	require.NoError(t, QosPolicyConsistencyChecker(offered, requested))
}

func TestQosPolicyConsistencyCheckerLivelinessKind(t *testing.T) {
	offered, requested := baseInfo(), baseInfo()
	offered.Qos.Liveliness.Kind = types.LivelinessManualByTopic
	requested.Qos.Liveliness.Kind = types.LivelinessAutomatic
	require.Error(t, QosPolicyConsistencyChecker(offered, requested))

	requested.Qos.Liveliness.Kind = types.LivelinessManualByParticipant
	require.NoError(t, QosPolicyConsistencyChecker(offered, requested), "ManualByParticipant requested accepts any offered kind")

	requested.Qos.Liveliness.Kind = types.LivelinessManualByTopic
	require.NoError(t, QosPolicyConsistencyChecker(offered, requested))
}
