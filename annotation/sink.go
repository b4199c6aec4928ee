package annotation

import (
	"slices"
	"sync"

	"github.com/arloliu/sumpdec/format"
)

// Sink receives annotations while a run emits them.
//
// Decoders only call AddAnnotation with 0 <= startIndex <= endIndex < buffer
// length, and only for annotations SupportsAnnotation accepted. Before the
// first annotation of a run, RemoveAnnotation is called once per channel the
// run annotates, covering the whole buffer, so results of a previous run of
// the same protocol over the same capture can be dropped. Annotations of
// other protocols are left alone.
//
// A sink may be shared by concurrent runs and must synchronize itself.
type Sink interface {
	AddAnnotation(channel, startIndex, endIndex int, a Annotation)
	RemoveAnnotation(protocol format.Protocol, channel, startIndex, endIndex int)
	SupportsAnnotation(a Annotation) bool
}

// Removal records one RemoveAnnotation call.
type Removal struct {
	Protocol   format.Protocol
	Channel    int
	StartIndex int
	EndIndex   int
}

// Recorder is an in-memory Sink.
type Recorder struct {
	mu       sync.Mutex
	kinds    []Kind
	items    []Annotation
	removals []Removal
}

var _ Sink = (*Recorder)(nil)

// NewRecorder creates a recorder that accepts the given kinds, or every kind
// when none are given.
func NewRecorder(kinds ...Kind) *Recorder {
	return &Recorder{kinds: kinds}
}

// SupportsAnnotation implements Sink.
func (r *Recorder) SupportsAnnotation(a Annotation) bool {
	return len(r.kinds) == 0 || slices.Contains(r.kinds, a.Kind)
}

// AddAnnotation implements Sink.
func (r *Recorder) AddAnnotation(_, _, _ int, a Annotation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, a)
}

// RemoveAnnotation implements Sink. Recorded annotations of the protocol on
// the channel that lie within [startIndex, endIndex] are dropped.
func (r *Recorder) RemoveAnnotation(protocol format.Protocol, channel, startIndex, endIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removals = append(r.removals, Removal{Protocol: protocol, Channel: channel, StartIndex: startIndex, EndIndex: endIndex})
	r.items = slices.DeleteFunc(r.items, func(a Annotation) bool {
		return a.covered(protocol, channel, startIndex, endIndex)
	})
}

// Annotations returns a copy of the recorded annotations.
func (r *Recorder) Annotations() []Annotation {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.items)
}

// Removals returns a copy of the recorded RemoveAnnotation calls.
func (r *Recorder) Removals() []Removal {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.removals)
}

// Len returns the number of recorded annotations.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.items)
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	r.removals = nil
}

// MultiSink forwards to several sinks. Each sink decides on its own which
// annotations it supports.
type MultiSink []Sink

var _ Sink = MultiSink(nil)

// SupportsAnnotation implements Sink. It accepts a when any sink does.
func (m MultiSink) SupportsAnnotation(a Annotation) bool {
	for _, s := range m {
		if s.SupportsAnnotation(a) {
			return true
		}
	}

	return false
}

// AddAnnotation implements Sink.
func (m MultiSink) AddAnnotation(channel, startIndex, endIndex int, a Annotation) {
	for _, s := range m {
		if s.SupportsAnnotation(a) {
			s.AddAnnotation(channel, startIndex, endIndex, a)
		}
	}
}

// RemoveAnnotation implements Sink.
func (m MultiSink) RemoveAnnotation(protocol format.Protocol, channel, startIndex, endIndex int) {
	for _, s := range m {
		s.RemoveAnnotation(protocol, channel, startIndex, endIndex)
	}
}
