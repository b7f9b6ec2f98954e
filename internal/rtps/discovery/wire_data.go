// Package discovery implements the SPDP/SEDP discovery engine (spec §4.8):
// participant announce/detect, endpoint announce/detect, lease tracking,
// and QoS-based matching. Like the Writer and Reader engines it wraps, it
// is a pure (state, input, now_ms) -> (state', effects) machine.
package discovery

import (
	"encoding/binary"

	"github.com/rtps-go/rtps/internal/rtps/types"
	"github.com/rtps-go/rtps/internal/rtps/wire"
)

// wireOrder is the byte order this engine selects for the ParameterLists it
// originates (SPDP/SEDP CacheChange payloads); a receiver determines order
// independently from whatever its own reader was configured with, same
// split as internal/rtps/writer and internal/rtps/reader.
var wireOrder = binary.LittleEndian

// ParticipantData is the wire shape of PdpDiscoveredParticipantData (spec
// §4.8, supplemented with the optional user_data and manual_liveliness_count
// fields troc-core's spdp_discovered_participant_data.rs carries).
type ParticipantData struct {
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
	LeaseDuration                types.Duration
	ManualLivelinessCount        int32
	UserData                     []byte
}

// Encode serializes d as a ParameterList.
func (d ParticipantData) Encode() []byte {
	var pl wire.ParameterList
	pl.Add(wire.PidParticipantGUID, wire.EncodeGUIDParam(types.NewGUID(d.GuidPrefix, types.EntityIdParticipant)))
	pl.Add(wire.PidDomainId, wire.EncodeU32Param(wireOrder, d.DomainId))
	if d.DomainTag != "" {
		pl.Add(wire.PidDomainTag, wire.EncodeStringParam(wireOrder, d.DomainTag))
	}
	pl.Add(wire.PidProtocolVersion, []byte{d.ProtocolVersion.Major, d.ProtocolVersion.Minor})
	pl.Add(wire.PidVendorId, []byte{d.VendorId[0], d.VendorId[1]})
	pl.Add(wire.PidBuiltinEndpointSet, wire.EncodeU32Param(wireOrder, uint32(d.AvailableBuiltinEndpoints)))
	for _, l := range d.MetatrafficUnicastLocators {
		pl.Add(wire.PidMetatrafficUnicastLocator, wire.EncodeLocatorParam(wireOrder, l))
	}
	for _, l := range d.MetatrafficMulticastLocators {
		pl.Add(wire.PidMetatrafficMulticastLocator, wire.EncodeLocatorParam(wireOrder, l))
	}
	for _, l := range d.DefaultUnicastLocators {
		pl.Add(wire.PidDefaultUnicastLocator, wire.EncodeLocatorParam(wireOrder, l))
	}
	for _, l := range d.DefaultMulticastLocators {
		pl.Add(wire.PidDefaultMulticastLocator, wire.EncodeLocatorParam(wireOrder, l))
	}
	pl.Add(wire.PidParticipantLeaseDuration, wire.EncodeDurationParam(wireOrder, d.LeaseDuration))
	pl.Add(wire.PidManualLivelinessCount, wire.EncodeU32Param(wireOrder, uint32(d.ManualLivelinessCount)))
	if len(d.UserData) > 0 {
		pl.Add(wire.PidUserData, append([]byte(nil), d.UserData...))
	}
	return pl.Encode(wireOrder)
}

// DecodeParticipantData parses a PdpDiscoveredParticipantData payload.
func DecodeParticipantData(buf []byte) (ParticipantData, error) {
	pl, err := wire.DecodeParameterList(buf, wireOrder)
	if err != nil {
		return ParticipantData{}, err
	}
	var d ParticipantData
	if p, ok := pl.Get(wire.PidParticipantGUID); ok {
		g, err := wire.DecodeGUIDParam(p.Value)
		if err != nil {
			return ParticipantData{}, err
		}
		d.GuidPrefix = g.Prefix
	}
	if p, ok := pl.Get(wire.PidDomainId); ok {
		d.DomainId, err = wire.DecodeU32Param(wireOrder, p.Value)
		if err != nil {
			return ParticipantData{}, err
		}
	}
	if p, ok := pl.Get(wire.PidDomainTag); ok {
		d.DomainTag, err = wire.DecodeStringParam(wireOrder, p.Value)
		if err != nil {
			return ParticipantData{}, err
		}
	}
	if p, ok := pl.Get(wire.PidProtocolVersion); ok && len(p.Value) >= 2 {
		d.ProtocolVersion = types.ProtocolVersion{Major: p.Value[0], Minor: p.Value[1]}
	}
	if p, ok := pl.Get(wire.PidVendorId); ok && len(p.Value) >= 2 {
		d.VendorId = types.VendorId{p.Value[0], p.Value[1]}
	}
	if p, ok := pl.Get(wire.PidBuiltinEndpointSet); ok {
		v, err := wire.DecodeU32Param(wireOrder, p.Value)
		if err != nil {
			return ParticipantData{}, err
		}
		d.AvailableBuiltinEndpoints = types.BuiltinEndpointSet(v)
	}
	for _, p := range pl.Params {
		switch p.Id {
		case wire.PidMetatrafficUnicastLocator:
			l, err := wire.DecodeLocatorParam(wireOrder, p.Value)
			if err != nil {
				return ParticipantData{}, err
			}
			d.MetatrafficUnicastLocators = append(d.MetatrafficUnicastLocators, l)
		case wire.PidMetatrafficMulticastLocator:
			l, err := wire.DecodeLocatorParam(wireOrder, p.Value)
			if err != nil {
				return ParticipantData{}, err
			}
			d.MetatrafficMulticastLocators = append(d.MetatrafficMulticastLocators, l)
		case wire.PidDefaultUnicastLocator:
			l, err := wire.DecodeLocatorParam(wireOrder, p.Value)
			if err != nil {
				return ParticipantData{}, err
			}
			d.DefaultUnicastLocators = append(d.DefaultUnicastLocators, l)
		case wire.PidDefaultMulticastLocator:
			l, err := wire.DecodeLocatorParam(wireOrder, p.Value)
			if err != nil {
				return ParticipantData{}, err
			}
			d.DefaultMulticastLocators = append(d.DefaultMulticastLocators, l)
		}
	}
	if p, ok := pl.Get(wire.PidParticipantLeaseDuration); ok {
		d.LeaseDuration, err = wire.DecodeDurationParam(wireOrder, p.Value)
		if err != nil {
			return ParticipantData{}, err
		}
	}
	if p, ok := pl.Get(wire.PidManualLivelinessCount); ok {
		v, err := wire.DecodeU32Param(wireOrder, p.Value)
		if err != nil {
			return ParticipantData{}, err
		}
		d.ManualLivelinessCount = int32(v)
	}
	if p, ok := pl.Get(wire.PidUserData); ok {
		d.UserData = append([]byte(nil), p.Value...)
	}
	return d, nil
}

// EndpointInfo is the data a DiscoveredWriterData/DiscoveredReaderData
// carries and the QoS matcher compares (spec §4.8).
type EndpointInfo struct {
	GUID      types.GUID
	TopicName string
	TypeName  string
	Qos       types.EndpointQos
	Locators  []types.Locator
}

// Encode serializes info as a ParameterList (a DiscoveredWriterData or
// DiscoveredReaderData, the two are identical on the wire; the submessage
// that carries it, not the payload shape, distinguishes publications from
// subscriptions).
func (info EndpointInfo) Encode() []byte {
	var pl wire.ParameterList
	pl.Add(wire.PidEndpointGUID, wire.EncodeGUIDParam(info.GUID))
	pl.Add(wire.PidKeyHash, wire.EncodeKeyHashParam(guidInstanceHandle(info.GUID)))
	pl.Add(wire.PidTopicName, wire.EncodeStringParam(wireOrder, info.TopicName))
	pl.Add(wire.PidTypeName, wire.EncodeStringParam(wireOrder, info.TypeName))
	pl.Add(wire.PidReliability, wire.EncodeU32Param(wireOrder, uint32(info.Qos.Reliability.Kind)))
	pl.Add(wire.PidDurability, wire.EncodeU32Param(wireOrder, uint32(info.Qos.Durability.Kind)))
	pl.Add(wire.PidDeadline, wire.EncodeDurationParam(wireOrder, info.Qos.Deadline.Period))
	pl.Add(wire.PidLiveliness, wire.EncodeU32Param(wireOrder, uint32(info.Qos.Liveliness.Kind)))
	pl.Add(wire.PidLivelinessLeaseDuration, wire.EncodeDurationParam(wireOrder, info.Qos.Liveliness.LeaseDuration))
	for _, l := range info.Locators {
		pl.Add(wire.PidUnicastLocator, wire.EncodeLocatorParam(wireOrder, l))
	}
	return pl.Encode(wireOrder)
}

// DecodeEndpointInfo parses a DiscoveredWriterData/DiscoveredReaderData
// payload into an EndpointInfo.
func DecodeEndpointInfo(buf []byte) (EndpointInfo, error) {
	pl, err := wire.DecodeParameterList(buf, wireOrder)
	if err != nil {
		return EndpointInfo{}, err
	}
	info := EndpointInfo{Qos: types.DefaultEndpointQos()}
	if p, ok := pl.Get(wire.PidEndpointGUID); ok {
		info.GUID, err = wire.DecodeGUIDParam(p.Value)
		if err != nil {
			return EndpointInfo{}, err
		}
	}
	if p, ok := pl.Get(wire.PidTopicName); ok {
		info.TopicName, err = wire.DecodeStringParam(wireOrder, p.Value)
		if err != nil {
			return EndpointInfo{}, err
		}
	}
	if p, ok := pl.Get(wire.PidTypeName); ok {
		info.TypeName, err = wire.DecodeStringParam(wireOrder, p.Value)
		if err != nil {
			return EndpointInfo{}, err
		}
	}
	if p, ok := pl.Get(wire.PidReliability); ok {
		v, err := wire.DecodeU32Param(wireOrder, p.Value)
		if err != nil {
			return EndpointInfo{}, err
		}
		info.Qos.Reliability.Kind = types.ReliabilityKind(v)
	}
	if p, ok := pl.Get(wire.PidDurability); ok {
		v, err := wire.DecodeU32Param(wireOrder, p.Value)
		if err != nil {
			return EndpointInfo{}, err
		}
		info.Qos.Durability.Kind = types.DurabilityKind(v)
	}
	if p, ok := pl.Get(wire.PidDeadline); ok {
		info.Qos.Deadline.Period, err = wire.DecodeDurationParam(wireOrder, p.Value)
		if err != nil {
			return EndpointInfo{}, err
		}
	}
	if p, ok := pl.Get(wire.PidLiveliness); ok {
		v, err := wire.DecodeU32Param(wireOrder, p.Value)
		if err != nil {
			return EndpointInfo{}, err
		}
		info.Qos.Liveliness.Kind = types.LivelinessKind(v)
	}
	if p, ok := pl.Get(wire.PidLivelinessLeaseDuration); ok {
		info.Qos.Liveliness.LeaseDuration, err = wire.DecodeDurationParam(wireOrder, p.Value)
		if err != nil {
			return EndpointInfo{}, err
		}
	}
	for _, p := range pl.Params {
		if p.Id == wire.PidUnicastLocator {
			l, err := wire.DecodeLocatorParam(wireOrder, p.Value)
			if err != nil {
				return EndpointInfo{}, err
			}
			info.Locators = append(info.Locators, l)
		}
	}
	return info, nil
}

// guidInstanceHandle derives the CacheChange instance_handle for an
// endpoint's own DiscoveredWriterData/DiscoveredReaderData change: the
// endpoint GUID's 16 bytes, which fill the 16-byte handle exactly (spec §4.8
// "instance_handle = writer/reader GUID bytes").
func guidInstanceHandle(g types.GUID) types.InstanceHandle {
	var h types.InstanceHandle
	b := g.Bytes()
	copy(h[:], b[:])
	return h
}
