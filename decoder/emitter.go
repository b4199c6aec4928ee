package decoder

import (
	"fmt"

	"github.com/arloliu/sumpdec/annotation"
	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/format"
)

// Emitter appends annotations to a run's set and forwards them to the run's sink.
//
// It fills the time fields from the buffer and rejects indices outside the
// buffer, so a sink never sees an out-of-range annotation.
type Emitter struct {
	protocol format.Protocol
	buf      *capture.Buffer
	set      annotation.Builder
	sink     annotation.Sink
	last     int
}

// NewEmitter creates an emitter for a run over buf.
//
// When the run has a sink, the protocol's annotations on every channel in
// channels are cleared with RemoveAnnotation over the whole buffer first.
func NewEmitter(protocol format.Protocol, buf *capture.Buffer, cfg *RunConfig, channels ...int) *Emitter {
	e := &Emitter{
		protocol: protocol,
		buf:      buf,
		sink:     cfg.Sink,
	}

	if e.sink != nil && buf.Len() > 0 {
		for _, ch := range channels {
			e.sink.RemoveAnnotation(protocol, ch, 0, buf.Len()-1)
		}
	}

	return e
}

// Set returns the annotations emitted so far.
func (e *Emitter) Set() *annotation.Set {
	return e.set.Set()
}

// LastIndex returns the start index of the most recent annotation, or 0.
func (e *Emitter) LastIndex() int {
	return e.last
}

// Event emits a point annotation at sample index.
func (e *Emitter) Event(channel int, kind annotation.Kind, index int) error {
	return e.emit(annotation.Annotation{
		Channel:    channel,
		Kind:       kind,
		StartIndex: index,
		EndIndex:   index,
	})
}

// Datagram emits a payload annotation spanning samples start to end.
func (e *Emitter) Datagram(channel int, kind annotation.Kind, value uint32, start, end int) error {
	return e.emit(annotation.Annotation{
		Channel:    channel,
		Kind:       kind,
		Value:      value,
		StartIndex: start,
		EndIndex:   end,
		HasEnd:     true,
	})
}

func (e *Emitter) emit(a annotation.Annotation) error {
	n := e.buf.Len()
	if a.StartIndex < 0 || a.StartIndex > a.EndIndex || a.EndIndex >= n {
		return fmt.Errorf("%w: [%d, %d] of %d samples", errs.ErrAnnotationBounds, a.StartIndex, a.EndIndex, n)
	}

	a.Protocol = e.protocol
	a.StartTime = e.buf.RelativeTime(e.buf.Timestamp(a.StartIndex))
	a.EndTime = e.buf.RelativeTime(e.buf.Timestamp(a.EndIndex))

	e.set.Append(a)
	e.last = a.StartIndex

	if e.sink != nil && e.sink.SupportsAnnotation(a) {
		e.sink.AddAnnotation(a.Channel, a.StartIndex, a.EndIndex, a)
	}

	return nil
}
