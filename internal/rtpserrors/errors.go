// Package rtpserrors defines the RTPS protocol-engine error taxonomy.
//
// Every error here is non-panicking by construction: engines return these
// values instead of raising, per spec §7. Each type wraps an optional cause
// and carries an Op string naming the call site that rejected the input, so
// callers can log context without the engine itself doing any logging.
package rtpserrors

import (
	"errors"
	"fmt"
)

// engineMarker is implemented by every error type in this package so
// IsEngineError can classify an arbitrary error chain.
type engineMarker interface {
	error
	isEngineError()
}

// MalformedWireError indicates the wire codec rejected a message: a short
// read, a submessage_length overrunning the buffer, an unterminated
// ParameterList, or a submessage kind whose body doesn't match its header.
// wire.DecodeMessage skips a submessage whose body fails to decode and keeps
// decoding the rest of the datagram; framing errors stop it.
type MalformedWireError struct {
	Op  string
	Err error
}

func (e *MalformedWireError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed wire: %s", e.Op)
	}
	return fmt.Sprintf("malformed wire: %s: %v", e.Op, e.Err)
}
func (e *MalformedWireError) Unwrap() error  { return e.Err }
func (e *MalformedWireError) isEngineError() {}

// InconsistentPolicyError is the matcher's negative result. It is normally
// carried inside a ReaderMatch/WriterMatch effect with Success=false rather
// than returned, but is also exposed as a value for callers that want to
// inspect why a candidate pair failed to match.
type InconsistentPolicyError struct {
	Op     string
	Reason string
}

func (e *InconsistentPolicyError) Error() string {
	return fmt.Sprintf("inconsistent policy: %s: %s", e.Op, e.Reason)
}
func (e *InconsistentPolicyError) isEngineError() {}

// IsBestEffortError indicates a reliability-only operation (ACKNACK
// processing, heartbeat-driven retransmission) was invoked on an endpoint
// configured BestEffort.
type IsBestEffortError struct {
	Op string
}

func (e *IsBestEffortError) Error() string {
	return fmt.Sprintf("reliability operation on best-effort endpoint: %s", e.Op)
}
func (e *IsBestEffortError) isEngineError() {}

// FilteredOutError indicates a submessage was dropped because it was a
// loopback (self) message or addressed to a different entity. Per spec §7
// this is surfaced at TRACE only — the engine never returns it as a hard
// failure, but it is available so a host's logging layer can explain a drop.
type FilteredOutError struct {
	Op     string
	Reason string
}

func (e *FilteredOutError) Error() string {
	return fmt.Sprintf("filtered out: %s: %s", e.Op, e.Reason)
}
func (e *FilteredOutError) isEngineError() {}

// RemoteEndpointNotFoundError indicates a submessage addressed a proxy the
// engine has no record of; the submessage is dropped.
type RemoteEndpointNotFoundError struct {
	Op   string
	GUID string
}

func (e *RemoteEndpointNotFoundError) Error() string {
	return fmt.Sprintf("remote endpoint not found: %s: %s", e.Op, e.GUID)
}
func (e *RemoteEndpointNotFoundError) isEngineError() {}

// InvalidFragError indicates a DATA_FRAG's fragment_size or sample_size
// disagreed with the first fragment seen for that (writer, sequence). The
// in-progress reassembly is discarded.
type InvalidFragError struct {
	Op  string
	Err error
}

func (e *InvalidFragError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid fragment: %s", e.Op)
	}
	return fmt.Sprintf("invalid fragment: %s: %v", e.Op, e.Err)
}
func (e *InvalidFragError) Unwrap() error  { return e.Err }
func (e *InvalidFragError) isEngineError() {}

// SequenceAlreadyPresentError is WriterHistoryCache's rejection of a
// duplicate push_change.
type SequenceAlreadyPresentError struct {
	Op  string
	Seq int64
}

func (e *SequenceAlreadyPresentError) Error() string {
	return fmt.Sprintf("sequence already present: %s: seq=%d", e.Op, e.Seq)
}
func (e *SequenceAlreadyPresentError) isEngineError() {}

// Constructors. Prefer these over struct literals so call sites read like
// the teacher's NewProtocolError/NewChunkError family.
func NewMalformedWire(op string, cause error) error {
	return &MalformedWireError{Op: op, Err: cause}
}
func NewInconsistentPolicy(op, reason string) error {
	return &InconsistentPolicyError{Op: op, Reason: reason}
}
func NewIsBestEffort(op string) error { return &IsBestEffortError{Op: op} }
func NewFilteredOut(op, reason string) error {
	return &FilteredOutError{Op: op, Reason: reason}
}
func NewRemoteEndpointNotFound(op, guid string) error {
	return &RemoteEndpointNotFoundError{Op: op, GUID: guid}
}
func NewInvalidFrag(op string, cause error) error {
	return &InvalidFragError{Op: op, Err: cause}
}
func NewSequenceAlreadyPresent(op string, seq int64) error {
	return &SequenceAlreadyPresentError{Op: op, Seq: seq}
}

// IsEngineError reports whether err is (or wraps) one of this package's
// error types.
func IsEngineError(err error) bool {
	if err == nil {
		return false
	}
	var em engineMarker
	return errors.As(err, &em)
}

// IsFilteredOut reports whether err is a FilteredOutError.
func IsFilteredOut(err error) bool {
	var fe *FilteredOutError
	return errors.As(err, &fe)
}

// IsRemoteEndpointNotFound reports whether err is a RemoteEndpointNotFoundError.
func IsRemoteEndpointNotFound(err error) bool {
	var re *RemoteEndpointNotFoundError
	return errors.As(err, &re)
}
