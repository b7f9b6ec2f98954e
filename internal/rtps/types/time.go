package types

import "time"

// Duration is the RTPS wire Duration type: seconds (int32) plus fraction
// (uint32, units of 2^-32 seconds), matching Timestamp's layout.
type Duration struct {
	Seconds  int32
	Fraction uint32
}

// DurationFromMillis builds a Duration from a millisecond count, the unit
// every tick/delay in this engine is expressed in (spec §5: "every
// time-based behavior ... now_ms").
func DurationFromMillis(ms int64) Duration {
	secs := ms / 1000
	rem := ms % 1000
	frac := uint32((rem * (1 << 32)) / 1000)
	return Duration{Seconds: int32(secs), Fraction: frac}
}

// Millis converts back to a millisecond count (rounded down).
func (d Duration) Millis() int64 {
	return int64(d.Seconds)*1000 + int64(d.Fraction)*1000/(1<<32)
}

// Timestamp is the RTPS wire Timestamp type used by INFO_TS and
// reception/emission timestamps: seconds since epoch (int32) plus fraction
// (uint32, units of 2^-32 seconds).
type Timestamp struct {
	Seconds  int32
	Fraction uint32
}

// TimestampFromMillis builds a Timestamp from a now_ms value (an epoch
// millisecond count, the engine's sole notion of "now", spec §5).
func TimestampFromMillis(ms int64) Timestamp {
	secs := ms / 1000
	rem := ms % 1000
	frac := uint32((rem * (1 << 32)) / 1000)
	return Timestamp{Seconds: int32(secs), Fraction: frac}
}

// Millis converts back to an epoch millisecond count.
func (t Timestamp) Millis() int64 {
	return int64(t.Seconds)*1000 + int64(t.Fraction)*1000/(1<<32)
}

// Before reports whether t is strictly earlier than o.
func (t Timestamp) Before(o Timestamp) bool { return t.Millis() < o.Millis() }

// Add returns t shifted forward by d.
func (t Timestamp) Add(d Duration) Timestamp {
	return TimestampFromMillis(t.Millis() + d.Millis())
}

// NowMillis is a convenience for hosts that want an epoch millisecond
// now_ms value; the engine itself never calls this — now_ms is always a
// caller-supplied parameter (spec §9: "every time source is a parameter").
func NowMillis() int64 { return time.Now().UnixMilli() }
