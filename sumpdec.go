// Package sumpdec turns logic analyzer captures into protocol events.
//
// The library has two halves. The encoding package decompresses the
// run-length encoded sample streams sent by SUMP-compatible capture hardware
// into a capture.Buffer. The decoder packages walk such a buffer sample by
// sample and emit typed annotations: I2C start and stop conditions, data
// bytes, acknowledges and bus errors, or clocked states.
//
// This package wires the pieces together for the common cases.
//
// # Basic Usage
//
// Decoding an RLE capture with a job file:
//
//	job, _ := config.Load("job.yaml")
//	buf, results, _ := sumpdec.Decode(ctx, data, job)
//	for _, res := range results {
//	    for a := range res.Annotations.Filter(annotation.KindData) {
//	        fmt.Println(a)
//	    }
//	}
//
// Decoding I2C directly from a buffer:
//
//	res, _ := sumpdec.DecodeI2C(ctx, buf, i2c.WithLines(0, 1))
//
// # Package Structure
//
//   - capture: immutable sample buffers
//   - encoding: the RLE codec
//   - decoder: the decoder engine, with decoder/i2c and decoder/state
//   - annotation: annotation sets, sinks and the exported stream format
//   - simulate: synthetic captures for tests and demos
//   - config: YAML job files
package sumpdec

import (
	"context"
	"fmt"
	"io"

	"github.com/arloliu/sumpdec/annotation"
	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/compress"
	"github.com/arloliu/sumpdec/config"
	"github.com/arloliu/sumpdec/decoder"
	"github.com/arloliu/sumpdec/decoder/i2c"
	"github.com/arloliu/sumpdec/decoder/state"
	"github.com/arloliu/sumpdec/encoding"
	"github.com/arloliu/sumpdec/format"
)

// DefaultRegistry returns a new registry holding every built-in protocol.
func DefaultRegistry() *decoder.Registry {
	reg := decoder.NewRegistry()
	reg.MustRegister(format.ProtocolI2C, i2c.Constructor)
	reg.MustRegister(format.ProtocolState, state.Constructor)

	return reg
}

// Decode reads an RLE capture described by job and runs the job's decoders
// over it concurrently. Results are in the job's decoder order.
func Decode(ctx context.Context, data []byte, job *config.Job, opts ...decoder.RunOption) (*capture.Buffer, []decoder.Result, error) {
	buf, err := job.Capture.ReadCapture(data)
	if err != nil {
		return nil, nil, err
	}

	decoders, err := job.BuildDecoders(DefaultRegistry())
	if err != nil {
		return nil, nil, err
	}

	results, err := decoder.DecodeAll(ctx, buf, decoders, opts...)
	if err != nil {
		return nil, nil, err
	}

	return buf, results, nil
}

// DecodeI2C runs an I2C decoder built from opts over buf.
func DecodeI2C(ctx context.Context, buf *capture.Buffer, opts ...i2c.Option) (decoder.Result, error) {
	cfg, err := i2c.NewConfig(opts...)
	if err != nil {
		return decoder.Result{}, err
	}

	return i2c.New(cfg).Decode(ctx, buf)
}

// EncodeRLE encodes buf as an RLE stream with the given channel layout.
func EncodeRLE(buf *capture.Buffer, cfg encoding.RLEConfig) ([]byte, error) {
	enc, err := encoding.NewRLEEncoder(cfg)
	if err != nil {
		return nil, err
	}
	defer enc.Finish()

	if err := enc.EncodeBuffer(buf); err != nil {
		return nil, err
	}

	return append([]byte(nil), enc.Bytes()...), nil
}

// WriteStream exports the annotations of res as an annotation stream.
// Runs that did not complete write a header and no annotations.
func WriteStream(w io.Writer, buf *capture.Buffer, res decoder.Result, out config.OutputConfig) (compress.Stats, error) {
	sw, err := annotation.NewStreamWriter(w, annotation.StreamHeader{
		Protocol:    res.Protocol,
		Fingerprint: buf.Fingerprint(),
		Samples:     buf.Len(),
		Compression: out.CompressionType(),
	}, out.StreamOptions()...)
	if err != nil {
		return compress.Stats{}, fmt.Errorf("annotation stream: %w", err)
	}

	if res.Annotations != nil {
		for _, a := range res.Annotations.All() {
			if sw.SupportsAnnotation(a) {
				sw.AddAnnotation(a.Channel, a.StartIndex, a.EndIndex, a)
			}
		}
	}

	if err := sw.Close(); err != nil {
		return compress.Stats{}, err
	}

	return sw.Stats(), nil
}
