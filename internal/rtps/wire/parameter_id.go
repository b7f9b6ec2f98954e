package wire

// ParameterId identifies a ParameterList entry's meaning (spec §4.1).
// Only the subset this engine actually reads/writes is listed; an unknown
// id is preserved as raw bytes by Parameter.
type ParameterId uint16

const (
	PidPad                         ParameterId = 0x0000
	PidSentinel                    ParameterId = 0x0001
	PidKeyHash                     ParameterId = 0x0070
	PidStatusInfo                  ParameterId = 0x0071
	PidTopicName                   ParameterId = 0x0005
	PidTypeName                    ParameterId = 0x0007
	PidDurability                  ParameterId = 0x001d
	PidDeadline                    ParameterId = 0x0023
	PidLiveliness                  ParameterId = 0x001b
	PidReliability                 ParameterId = 0x001a
	PidUserData                    ParameterId = 0x002c
	PidUnicastLocator              ParameterId = 0x002f
	PidMulticastLocator            ParameterId = 0x0030
	PidDefaultUnicastLocator       ParameterId = 0x0031
	PidDefaultMulticastLocator     ParameterId = 0x0048
	PidMetatrafficUnicastLocator   ParameterId = 0x0032
	PidMetatrafficMulticastLocator ParameterId = 0x0033
	PidParticipantGUID             ParameterId = 0x0050
	PidEndpointGUID                ParameterId = 0x005a
	PidGroupGUID                   ParameterId = 0x0051
	PidBuiltinEndpointSet          ParameterId = 0x0058
	PidParticipantLeaseDuration    ParameterId = 0x0002
	PidProtocolVersion             ParameterId = 0x0015
	PidVendorId                    ParameterId = 0x0016
	PidDomainId                    ParameterId = 0x000f
	PidDomainTag                   ParameterId = 0x4014
	PidManualLivelinessCount       ParameterId = 0x0034
	PidLivelinessLeaseDuration     ParameterId = 0x0029
)
