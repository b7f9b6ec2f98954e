package main

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"

	"github.com/rs/xid"
	"gopkg.in/yaml.v3"

	"github.com/rtps-go/rtps/internal/rtps/types"
)

// DomainConfig is the demo host's YAML configuration: enough to stand up
// two in-process participants exchanging samples on one topic. The core
// engines themselves take no configuration (spec.md §6 names this a
// host-only concern); this type exists purely for cmd/rtps-demo.
type DomainConfig struct {
	DomainId  uint32 `yaml:"domain_id"`
	DomainTag string `yaml:"domain_tag"`

	// GuidPrefixHex, left empty (or not valid hex), makes the demo fill the
	// first 11 bytes of each participant's GuidPrefix from a freshly minted
	// xid so repeated runs don't collide on a fixed value; the last byte is
	// always a per-participant tag.
	GuidPrefixHex string `yaml:"guid_prefix"`

	TopicName string `yaml:"topic_name"`
	TypeName  string `yaml:"type_name"`

	MetatrafficMulticastAddr string `yaml:"metatraffic_multicast_addr"`
	MetatrafficMulticastPort uint32 `yaml:"metatraffic_multicast_port"`

	AnnouncementPeriodMillis       int64 `yaml:"announcement_period_millis"`
	ParticipantRemovalPeriodMillis int64 `yaml:"participant_removal_period_millis"`
	LeaseDurationMillis            int64 `yaml:"lease_duration_millis"`

	Reliable           bool  `yaml:"reliable"`
	HistoryDepth       int   `yaml:"history_depth"`
	SampleCount        int   `yaml:"sample_count"`
	SamplePeriodMillis int64 `yaml:"sample_period_millis"`
}

// DefaultDomainConfig returns the baseline the demo runs with when no
// -config flag is given.
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		DomainId:                       0,
		DomainTag:                      "rtps-demo",
		TopicName:                      "sensor/temperature",
		TypeName:                       "Temperature",
		MetatrafficMulticastAddr:       "239.255.0.1",
		MetatrafficMulticastPort:       7400,
		AnnouncementPeriodMillis:       1000,
		ParticipantRemovalPeriodMillis: 2000,
		LeaseDurationMillis:            5000,
		Reliable:                       true,
		HistoryDepth:                   16,
		SampleCount:                    5,
		SamplePeriodMillis:             200,
	}
}

// LoadDomainConfig reads and parses path, falling back to
// DefaultDomainConfig's values for anything the file does not set.
func LoadDomainConfig(path string) (*DomainConfig, error) {
	cfg := DefaultDomainConfig()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// metatrafficMulticastLocator builds the single fixed multicast Locator
// every participant in the domain announces to and listens on (spec §4.8:
// SPDP is stateless BestEffort over a shared multicast group).
func (c *DomainConfig) metatrafficMulticastLocator() types.Locator {
	ip := net.ParseIP(c.MetatrafficMulticastAddr)
	if ip == nil {
		ip = net.IPv4(239, 255, 0, 1)
	}
	return types.NewUDPv4Locator(ip, c.MetatrafficMulticastPort)
}

// newGuidPrefix derives a GuidPrefix for one participant: the configured
// hex prefix shared by the whole domain when it decodes as hex, or a fresh
// xid otherwise, with tag in the last byte
// distinguishing multiple in-process participants built from the same
// config (otherwise both would collide on an identical prefix).
func (c *DomainConfig) newGuidPrefix(tag byte) types.GuidPrefix {
	var prefix types.GuidPrefix
	if c.GuidPrefixHex != "" {
		if raw, err := hex.DecodeString(c.GuidPrefixHex); err == nil {
			copy(prefix[:], raw)
			prefix[len(prefix)-1] = tag
			return prefix
		}
	}
	// xid.New().String() is a 20-char, k-sortable base32 identifier; its
	// raw bytes are unique enough to fill the leading bytes of a GuidPrefix
	// without needing a full UUID (troc's domain/participant.rs leaves
	// this to a random UUID, see SPEC_FULL.md's domain-stack note).
	id := []byte(xid.New().String())
	copy(prefix[:], id)
	prefix[len(prefix)-1] = tag
	return prefix
}
