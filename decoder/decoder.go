// Package decoder is the protocol decoder engine.
//
// A Decoder walks an immutable capture.Buffer once, sample by sample, and
// collects typed annotations into an annotation.Set. The engine supplies the
// pieces every protocol shares:
//
//   - Run: cooperative cancellation and per-phase progress reporting
//   - Emitter: bounds-checked emission into the result set and an optional sink
//   - Registry: protocol identifier to constructor mapping
//   - Job and DecodeAll: running decoders on their own goroutines
//
// # Outcomes
//
// A run ends in one of three states, reported through Result.Status:
//
//   - StatusCompleted: the buffer was scanned to the end
//   - StatusNotFound: there was nothing to decode; Result.Reason says why
//   - StatusCancelled: the context was cancelled; no annotations are returned
//
// The error return of Decode is reserved for configuration problems that
// prevent a run from starting. Protocol violations inside the capture are
// annotations, not errors.
package decoder

import (
	"context"

	"github.com/arloliu/sumpdec/annotation"
	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/format"
)

// Decoder decodes one protocol.
//
// Implementations hold only immutable configuration, so one Decoder may run
// over several buffers at once.
type Decoder interface {
	// Protocol returns the protocol identifier.
	Protocol() format.Protocol

	// Decode scans buf and returns the run outcome.
	Decode(ctx context.Context, buf *capture.Buffer, opts ...RunOption) (Result, error)
}

// Status is the outcome of a decode run.
type Status int

const (
	StatusCompleted Status = iota // StatusCompleted means the whole buffer was scanned.
	StatusNotFound                // StatusNotFound means the buffer holds nothing to decode.
	StatusCancelled               // StatusCancelled means the run stopped on request.
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusNotFound:
		return "not found"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the outcome of one decode run.
type Result struct {
	Protocol format.Protocol
	Status   Status
	// Reason explains StatusNotFound (errs.ErrNoIdleState, errs.ErrNoStartCondition
	// or errs.ErrNoClockEdge). It is nil otherwise.
	Reason error
	// Annotations is the run's set. It is empty for StatusNotFound and nil
	// for StatusCancelled.
	Annotations *annotation.Set
	// Roles maps logical line names to the channel indices the run used.
	Roles map[string]int
	// Scanned is the number of samples examined.
	Scanned int
}

// Completed reports whether the run scanned the whole buffer.
func (r Result) Completed() bool {
	return r.Status == StatusCompleted
}

// NotFound builds the result of a run that found nothing to decode.
func NotFound(protocol format.Protocol, reason error, scanned int) Result {
	return Result{
		Protocol:    protocol,
		Status:      StatusNotFound,
		Reason:      reason,
		Annotations: annotation.NewSet(),
		Scanned:     scanned,
	}
}

// Cancelled builds the result of a cancelled run.
func Cancelled(protocol format.Protocol, scanned int) Result {
	return Result{
		Protocol: protocol,
		Status:   StatusCancelled,
		Scanned:  scanned,
	}
}
