package annotation

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/arloliu/sumpdec/compress"
	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/format"
	"github.com/arloliu/sumpdec/internal/options"
)

// Stream frame type discriminants.
const (
	headerFrameType = "header"
	batchFrameType  = "batch"
)

// StreamVersion is the version written into stream headers.
const StreamVersion = 1

// DefaultBatchSize is the number of annotations per batch frame.
const DefaultBatchSize = 256

// MaxBatchPayload bounds the decoded size of one batch payload.
const MaxBatchPayload = 128 << 20

// StreamHeader describes the run an annotation stream was produced by.
type StreamHeader struct {
	Version     int                    `msgpack:"version"`
	Protocol    format.Protocol        `msgpack:"protocol"`
	Fingerprint uint64                 `msgpack:"fingerprint"`
	Samples     int                    `msgpack:"samples"`
	Compression format.CompressionType `msgpack:"compression"`
}

type headerFrame struct {
	Type string `msgpack:"type"`
	StreamHeader
}

type batchFrame struct {
	Type    string `msgpack:"type"`
	Count   int    `msgpack:"count"`
	Size    int    `msgpack:"size"`
	Payload []byte `msgpack:"payload"`
}

type frameTypeProbe struct {
	Type string `msgpack:"type"`
}

// StreamWriter is a Sink that serializes annotations into length-prefixed
// msgpack frames: one header frame, then batch frames whose payload is a
// compressed msgpack array of annotations.
//
// Sink methods cannot return errors. The first write error is kept and
// reported by Flush and Close; annotations added after it are discarded.
type StreamWriter struct {
	mu        sync.Mutex
	w         io.Writer
	header    StreamHeader
	codec     compress.Codec
	batchSize int
	kinds     []Kind
	pending   []Annotation
	scratch   []byte
	stats     compress.Stats
	written   int
	err       error
}

var _ Sink = (*StreamWriter)(nil)

// StreamOption configures a StreamWriter.
type StreamOption = options.Option[*StreamWriter]

// WithBatchSize sets the number of annotations per batch frame.
func WithBatchSize(n int) StreamOption {
	return options.New(func(s *StreamWriter) error {
		if n <= 0 {
			return fmt.Errorf("invalid batch size %d", n)
		}
		s.batchSize = n

		return nil
	})
}

// WithKinds restricts the stream to the given annotation kinds.
func WithKinds(kinds ...Kind) StreamOption {
	return options.NoError(func(s *StreamWriter) {
		s.kinds = kinds
	})
}

// NewStreamWriter writes the header frame to w and returns a writer for the
// annotations of the described run.
//
// header.Compression selects the batch codec; zero means none.
func NewStreamWriter(w io.Writer, header StreamHeader, opts ...StreamOption) (*StreamWriter, error) {
	if header.Compression == 0 {
		header.Compression = format.CompressionNone
	}
	header.Version = StreamVersion

	codec, err := compress.New(header.Compression)
	if err != nil {
		return nil, err
	}

	s := &StreamWriter{
		w:         w,
		header:    header,
		codec:     codec,
		batchSize: DefaultBatchSize,
		stats:     compress.Stats{Algorithm: header.Compression},
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	payload, err := msgpack.Marshal(headerFrame{Type: headerFrameType, StreamHeader: header})
	if err != nil {
		return nil, err
	}
	if err := writeFrame(w, payload); err != nil {
		return nil, err
	}

	return s, nil
}

// SupportsAnnotation implements Sink.
func (s *StreamWriter) SupportsAnnotation(a Annotation) bool {
	return len(s.kinds) == 0 || slices.Contains(s.kinds, a.Kind)
}

// AddAnnotation implements Sink. Full batches are written immediately.
func (s *StreamWriter) AddAnnotation(_, _, _ int, a Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}

	s.pending = append(s.pending, a)
	if len(s.pending) >= s.batchSize {
		s.err = s.flushLocked()
	}
}

// RemoveAnnotation implements Sink. Only annotations that are still pending
// can be removed; written frames are final.
func (s *StreamWriter) RemoveAnnotation(protocol format.Protocol, channel, startIndex, endIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = slices.DeleteFunc(s.pending, func(a Annotation) bool {
		return a.covered(protocol, channel, startIndex, endIndex)
	})
}

// Flush writes pending annotations as one batch frame.
func (s *StreamWriter) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.err = s.flushLocked()

	return s.err
}

// Close flushes pending annotations. It does not close the underlying writer.
func (s *StreamWriter) Close() error {
	return s.Flush()
}

// Written returns the number of annotations written to frames so far.
func (s *StreamWriter) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.written
}

// Stats returns the batch compression statistics.
func (s *StreamWriter) Stats() compress.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

func (s *StreamWriter) flushLocked() error {
	if len(s.pending) == 0 {
		return nil
	}

	raw, err := msgpack.Marshal(s.pending)
	if err != nil {
		return err
	}

	s.scratch, err = s.codec.AppendCompressed(s.scratch[:0], raw)
	if err != nil {
		return err
	}
	s.stats.Add(len(raw), len(s.scratch))

	payload, err := msgpack.Marshal(batchFrame{
		Type:    batchFrameType,
		Count:   len(s.pending),
		Size:    len(raw),
		Payload: s.scratch,
	})
	if err != nil {
		return err
	}
	if err := writeFrame(s.w, payload); err != nil {
		return err
	}

	s.written += len(s.pending)
	s.pending = s.pending[:0]

	return nil
}

// StreamReader reads an annotation stream written by StreamWriter.
type StreamReader struct {
	r       io.Reader
	header  StreamHeader
	codec   compress.Codec
	scratch []byte
}

// NewStreamReader reads and validates the header frame of r.
//
// Returns errs.ErrStreamHeader when the stream is empty or does not start
// with a header frame, or a *FrameError for framing problems.
func NewStreamReader(r io.Reader) (*StreamReader, error) {
	payload, err := readFrame(r)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty stream", errs.ErrStreamHeader)
	}
	if err != nil {
		return nil, err
	}

	var hf headerFrame
	if err := msgpack.Unmarshal(payload, &hf); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode stream header", Err: err}
	}
	if hf.Type != headerFrameType {
		return nil, fmt.Errorf("%w: first frame has type %q", errs.ErrStreamHeader, hf.Type)
	}
	if hf.Version != StreamVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", errs.ErrStreamHeader, hf.Version)
	}

	codec, err := compress.New(hf.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrStreamHeader, err)
	}

	return &StreamReader{r: r, header: hf.StreamHeader, codec: codec}, nil
}

// Header returns the stream header.
func (sr *StreamReader) Header() StreamHeader {
	return sr.header
}

// Next returns the annotations of the next batch frame, or io.EOF at the end
// of the stream.
func (sr *StreamReader) Next() ([]Annotation, error) {
	payload, err := readFrame(sr.r)
	if err != nil {
		return nil, err
	}

	var probe frameTypeProbe
	if err := msgpack.Unmarshal(payload, &probe); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode frame type", Err: err}
	}
	if probe.Type != batchFrameType {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: fmt.Sprintf("unexpected frame type %q", probe.Type)}
	}

	var bf batchFrame
	if err := msgpack.Unmarshal(payload, &bf); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode batch frame", Err: err}
	}

	if bf.Size < 0 || bf.Size > MaxBatchPayload {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: fmt.Sprintf("invalid batch size %d", bf.Size)}
	}
	sr.scratch, err = sr.codec.AppendDecompressed(sr.scratch[:0], bf.Payload, bf.Size)
	if err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decompress batch", Err: err}
	}

	var batch []Annotation
	if err := msgpack.Unmarshal(sr.scratch, &batch); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode annotations", Err: err}
	}
	if len(batch) != bf.Count {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("batch holds %d annotations, header says %d", len(batch), bf.Count),
		}
	}

	return batch, nil
}

// All iterates over every remaining annotation. Iteration stops after the
// first error, which is yielded with a zero annotation.
func (sr *StreamReader) All() iter.Seq2[Annotation, error] {
	return func(yield func(Annotation, error) bool) {
		for {
			batch, err := sr.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Annotation{}, err)
				return
			}
			for _, a := range batch {
				if !yield(a, nil) {
					return
				}
			}
		}
	}
}

// ReadStream reads a whole annotation stream.
func ReadStream(r io.Reader) (StreamHeader, []Annotation, error) {
	sr, err := NewStreamReader(r)
	if err != nil {
		return StreamHeader{}, nil, err
	}

	var out []Annotation
	for a, err := range sr.All() {
		if err != nil {
			return sr.header, out, err
		}
		out = append(out, a)
	}

	return sr.header, out, nil
}
