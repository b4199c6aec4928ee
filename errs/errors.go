// Package errs defines the sentinel errors shared by all sumpdec packages.
//
// Errors are grouped by how a caller is expected to react:
//
//   - Structural errors (ErrMalformedStream and everything wrapping it) abort
//     a decode; the produced data must not be used.
//   - Configuration errors are returned before any sample is scanned.
//   - Not-found reasons (ErrNoIdleState, ErrNoStartCondition, ErrNoClockEdge)
//     are never returned as errors by decoders. They are reported through
//     decoder.Result.Reason to explain an empty result.
//
// All errors are meant to be matched with errors.Is, since most call sites
// wrap them with positional context.
package errs

import (
	"errors"
	"fmt"
)

// Structural errors raised by the RLE codec.
var (
	// ErrMalformedStream is the root of every RLE stream decoding failure.
	ErrMalformedStream = errors.New("malformed RLE stream")

	// ErrCountWithoutSample is returned when a count word is not preceded by a sample word.
	ErrCountWithoutSample = fmt.Errorf("%w: count word without preceding sample word", ErrMalformedStream)

	// ErrMissingCount is returned when a sample word directly follows another sample word.
	ErrMissingCount = fmt.Errorf("%w: sample word not followed by a count word", ErrMalformedStream)

	// ErrTruncatedStream is returned when the stream ends mid-word or mid-pair.
	ErrTruncatedStream = fmt.Errorf("%w: stream truncated", ErrMalformedStream)

	// ErrUnsupportedDDRGroups is returned when channel groups 2 or 3 are enabled in
	// double data rate mode, where the hardware only samples groups 0 and 1.
	ErrUnsupportedDDRGroups = fmt.Errorf("%w: channel groups 2-3 are unavailable in DDR mode", ErrMalformedStream)
)

// Configuration errors.
var (
	ErrInvalidChannelMask = errors.New("invalid channel mask")
	ErrReservedChannel    = errors.New("sample value uses the channel reserved for the RLE flag")
	ErrInvalidRunLength   = errors.New("run length must be positive")
	ErrInvalidPattern     = errors.New("invalid pattern")
	ErrInvalidLine        = errors.New("line index out of range")
	ErrOverlappingLines   = errors.New("line assignments overlap")
	ErrChannelNotEnabled  = errors.New("line is not an enabled channel of the capture")
	ErrInvalidEdge        = errors.New("invalid clock edge")
)

// Sample buffer construction errors.
var (
	ErrLengthMismatch = errors.New("values and timestamps differ in length")
	ErrTimestampOrder = errors.New("timestamps must be non-decreasing")
)

// Not-found reasons. Decoders report these through their result, not as errors.
var (
	ErrNoIdleState      = errors.New("no idle state found")
	ErrNoStartCondition = errors.New("no start condition found")
	ErrNoClockEdge      = errors.New("no clock edge found")
)

// Decoder engine errors.
var (
	ErrAnnotationBounds  = errors.New("annotation indices outside the sample buffer")
	ErrUnknownProtocol   = errors.New("unknown protocol")
	ErrDuplicateProtocol = errors.New("protocol already registered")
)

// Stream and script errors.
var (
	ErrInvalidCompression = errors.New("invalid compression type")
	ErrPayloadSize        = errors.New("decompressed payload size mismatch")
	ErrStreamHeader       = errors.New("annotation stream header missing or invalid")
	ErrInvalidScript      = errors.New("invalid simulation script")
)
