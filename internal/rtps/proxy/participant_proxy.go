package proxy

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
)

// ParticipantProxy is discovery's record of a remote participant (spec §3
// type table / §4.8). The discovery engine keeps no ParticipantProxy for
// the local participant; its own fields play that role.
type ParticipantProxy struct {
	GuidPrefix                   types.GuidPrefix
	DomainId                     uint32
	DomainTag                    string
	ProtocolVersion              types.ProtocolVersion
	VendorId                     types.VendorId
	AvailableBuiltinEndpoints    types.BuiltinEndpointSet
	MetatrafficUnicastLocators   []types.Locator
	MetatrafficMulticastLocators []types.Locator
	DefaultUnicastLocators       []types.Locator
	DefaultMulticastLocators     []types.Locator
	ManualLivelinessCount        int32

	// LeaseEnd is the time.Millis at which this participant is considered
	// gone (spec §4.8 "lease_end = now + lease_duration").
	LeaseEnd types.Timestamp

	// LastAnnounceMillis is not set or read by the discovery engine, which
	// tracks the time of its own last PDP announce separately and whose
	// ParticipantAnnounce tick announces without an elapsed-time check.
	LastAnnounceMillis int64
}

// HasExpired reports whether nowMillis is at or past LeaseEnd.
func (p *ParticipantProxy) HasExpired(nowMillis int64) bool {
	return nowMillis >= p.LeaseEnd.Millis()
}
