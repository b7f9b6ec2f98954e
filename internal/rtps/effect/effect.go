// Package effect defines the closed set of outbound actions an engine can
// ask its host to perform (spec §6) and the ordered queue engines append
// them to. Nothing here performs I/O; Effects are a hand-off value the
// host drains after a call returns (spec §5).
package effect

import (
	"github.com/rtps-go/rtps/internal/rtps/types"
)

// Kind tags which variant an Effect holds (design note §9: "Effect is a
// tagged union over the set in §6").
type Kind int

const (
	KindDataAvailable Kind = iota
	KindMessage
	KindParticipantMatch
	KindParticipantRemoved
	KindReaderMatch
	KindWriterMatch
	KindScheduleTick
	KindQos
)

func (k Kind) String() string {
	switch k {
	case KindDataAvailable:
		return "DataAvailable"
	case KindMessage:
		return "Message"
	case KindParticipantMatch:
		return "ParticipantMatch"
	case KindParticipantRemoved:
		return "ParticipantRemoved"
	case KindReaderMatch:
		return "ReaderMatch"
	case KindWriterMatch:
		return "WriterMatch"
	case KindScheduleTick:
		return "ScheduleTick"
	case KindQos:
		return "Qos"
	default:
		return "Unknown"
	}
}

// TimerId names one of the closed set of timers a host may be asked to
// schedule (spec §5).
type TimerId int

const (
	TimerParticipantAnnounce TimerId = iota
	TimerParticipantRemoval
	TimerPublicationAnnouncer
	TimerPublicationDetector
	TimerSubscriptionAnnouncer
	TimerSubscriptionDetector
	TimerReader
	TimerWriter
)

func (t TimerId) String() string {
	switch t {
	case TimerParticipantAnnounce:
		return "ParticipantAnnounce"
	case TimerParticipantRemoval:
		return "ParticipantRemoval"
	case TimerPublicationAnnouncer:
		return "PublicationAnnouncer"
	case TimerPublicationDetector:
		return "PublicationDetector"
	case TimerSubscriptionAnnouncer:
		return "SubscriptionAnnouncer"
	case TimerSubscriptionDetector:
		return "SubscriptionDetector"
	case TimerReader:
		return "Reader"
	case TimerWriter:
		return "Writer"
	default:
		return "Unknown"
	}
}

// MessagePayload carries an encoded RTPS Message and the locators it
// should be sent to.
type MessagePayload struct {
	TimestampMillis int64
	Message         []byte
	Locators        []types.Locator
}

// MatchInfo pairs a local and a remote GUID. The match-notification
// payloads below do not embed it; each declares its own GUID fields.
type MatchInfo struct {
	LocalGUID  types.GUID
	RemoteGUID types.GUID
}

// ScheduleTickPayload asks the host to call back with tick(id, now_ms)
// after DelayMillis.
type ScheduleTickPayload struct {
	Id          TimerId
	DelayMillis int64
}

// ReaderMatchPayload reports the outcome of evaluating a remote writer
// against a local reader (spec §4.8).
type ReaderMatchPayload struct {
	Success          bool
	Reason           string
	LocalReaderGUID  types.GUID
	RemoteWriterGUID types.GUID
}

// WriterMatchPayload reports the outcome of evaluating a remote reader
// against a local writer (spec §4.8).
type WriterMatchPayload struct {
	Success          bool
	Reason           string
	LocalWriterGUID  types.GUID
	RemoteReaderGUID types.GUID
}

// ParticipantMatchPayload reports a newly discovered remote participant.
type ParticipantMatchPayload struct {
	GuidPrefix types.GuidPrefix
}

// ParticipantRemovedPayload reports a lease expiry.
type ParticipantRemovedPayload struct {
	GuidPrefix types.GuidPrefix
}

// Effect is one outbound action. Exactly one of the payload fields is
// meaningful, selected by Kind; this mirrors a tagged union without an
// open interface hierarchy (design note §9).
type Effect struct {
	Kind Kind

	Message            MessagePayload
	ParticipantMatch   ParticipantMatchPayload
	ParticipantRemoved ParticipantRemovedPayload
	ReaderMatch        ReaderMatchPayload
	WriterMatch        WriterMatchPayload
	ScheduleTick       ScheduleTickPayload
}

func DataAvailable() Effect { return Effect{Kind: KindDataAvailable} }

func MessageEffect(p MessagePayload) Effect { return Effect{Kind: KindMessage, Message: p} }

func ParticipantMatchE(p ParticipantMatchPayload) Effect {
	return Effect{Kind: KindParticipantMatch, ParticipantMatch: p}
}

func ParticipantRemovedE(p ParticipantRemovedPayload) Effect {
	return Effect{Kind: KindParticipantRemoved, ParticipantRemoved: p}
}

func ReaderMatchE(p ReaderMatchPayload) Effect { return Effect{Kind: KindReaderMatch, ReaderMatch: p} }

func WriterMatchE(p WriterMatchPayload) Effect { return Effect{Kind: KindWriterMatch, WriterMatch: p} }

func ScheduleTickE(id TimerId, delayMillis int64) Effect {
	return Effect{Kind: KindScheduleTick, ScheduleTick: ScheduleTickPayload{Id: id, DelayMillis: delayMillis}}
}

// Qos is a reserved effect kind (spec §6: "Qos (reserved)"); no engine in
// this core emits it yet.
func Qos() Effect { return Effect{Kind: KindQos} }
