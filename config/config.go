// Package config loads decode jobs from YAML files.
//
// A job names how the RLE capture was taken, which decoders to run over it
// and how to export the annotations:
//
//	capture:
//	  channels: 0x03
//	  ddr: false
//	  rate: ${SUMP_RATE:-1000000}
//	  trigger: 120
//	decoders:
//	  - protocol: i2c
//	    options:
//	      sda: 0
//	      scl: 1
//	      report_ack: false
//	output:
//	  compression: zstd
//	  batch_size: 512
//	  kinds: [DATA, BUS_ERROR]
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/sumpdec/annotation"
	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/decoder"
	"github.com/arloliu/sumpdec/encoding"
	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/format"
)

// Job is a decode job file.
type Job struct {
	Capture  CaptureConfig   `yaml:"capture"`
	Decoders []DecoderConfig `yaml:"decoders"`
	Output   OutputConfig    `yaml:"output"`
}

// CaptureConfig describes the RLE capture.
type CaptureConfig struct {
	Channels uint32 `yaml:"channels"`
	DDR      bool   `yaml:"ddr"`
	Rate     int    `yaml:"rate"`
	Trigger  *int64 `yaml:"trigger,omitempty"`
	Expanded bool   `yaml:"expanded"`
}

// DecoderConfig selects one decoder. Options is decoded by the protocol's
// registry constructor.
type DecoderConfig struct {
	Protocol string    `yaml:"protocol"`
	Options  yaml.Node `yaml:"options"`
}

// OutputConfig controls the annotation stream export.
type OutputConfig struct {
	Compression string   `yaml:"compression"`
	BatchSize   int      `yaml:"batch_size"`
	Kinds       []string `yaml:"kinds"`
}

// Load reads a job file, expands environment references and validates it.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("job file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read job file %q: %w", path, err)
	}

	job, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return job, nil
}

// Parse decodes and validates a job from YAML.
func Parse(data []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), &job); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	return &job, nil
}

// Validate checks every section of the job.
func (j *Job) Validate() error {
	if err := j.Capture.RLEConfig().Validate(); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if j.Capture.Rate < 0 {
		return fmt.Errorf("capture: invalid rate %d", j.Capture.Rate)
	}
	if t := j.Capture.Trigger; t != nil && *t < 0 {
		return fmt.Errorf("capture: invalid trigger %d", *t)
	}

	if len(j.Decoders) == 0 {
		return errors.New("decoders: at least one decoder is required")
	}
	seen := make(map[format.Protocol]bool, len(j.Decoders))
	for i, d := range j.Decoders {
		p, ok := format.ParseProtocol(d.Protocol)
		if !ok {
			return fmt.Errorf("decoders[%d]: %w: %q", i, errs.ErrUnknownProtocol, d.Protocol)
		}
		if seen[p] {
			return fmt.Errorf("decoders[%d]: %s listed twice", i, p)
		}
		seen[p] = true
	}

	if _, ok := format.ParseCompression(j.Output.Compression); !ok {
		return fmt.Errorf("output: %w: %q", errs.ErrInvalidCompression, j.Output.Compression)
	}
	if j.Output.BatchSize < 0 {
		return fmt.Errorf("output: invalid batch size %d", j.Output.BatchSize)
	}
	if _, err := j.Output.kinds(); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	return nil
}

// RLEConfig returns the codec settings of the capture.
func (c CaptureConfig) RLEConfig() encoding.RLEConfig {
	return encoding.RLEConfig{EnabledChannels: c.Channels, DDR: c.DDR}
}

// DecoderOptions returns the RLE decoder options of the capture.
func (c CaptureConfig) DecoderOptions() []encoding.RLEDecoderOption {
	opts := []encoding.RLEDecoderOption{encoding.WithRate(c.Rate)}
	if c.Trigger != nil {
		opts = append(opts, encoding.WithTrigger(*c.Trigger))
	}
	if c.Expanded {
		opts = append(opts, encoding.WithExpandedRuns())
	}

	return opts
}

// ReadCapture decodes an RLE stream taken with these settings.
func (c CaptureConfig) ReadCapture(data []byte) (*capture.Buffer, error) {
	dec, err := encoding.NewRLEDecoder(c.RLEConfig(), c.DecoderOptions()...)
	if err != nil {
		return nil, err
	}

	return dec.Decode(data)
}

// BuildDecoders builds the job's decoders through reg, in file order.
func (j *Job) BuildDecoders(reg *decoder.Registry) ([]decoder.Decoder, error) {
	out := make([]decoder.Decoder, 0, len(j.Decoders))
	for i := range j.Decoders {
		d := &j.Decoders[i]
		p, ok := format.ParseProtocol(d.Protocol)
		if !ok {
			return nil, fmt.Errorf("decoders[%d]: %w: %q", i, errs.ErrUnknownProtocol, d.Protocol)
		}

		dec, err := reg.New(p, decoder.FromNode(&d.Options))
		if err != nil {
			return nil, fmt.Errorf("decoders[%d] (%s): %w", i, p, err)
		}
		out = append(out, dec)
	}

	return out, nil
}

// CompressionType returns the stream compression; an empty name means none.
func (o OutputConfig) CompressionType() format.CompressionType {
	c, _ := format.ParseCompression(o.Compression)
	return c
}

// StreamOptions returns the stream writer options of the output section.
func (o OutputConfig) StreamOptions() []annotation.StreamOption {
	var opts []annotation.StreamOption
	if o.BatchSize > 0 {
		opts = append(opts, annotation.WithBatchSize(o.BatchSize))
	}
	if kinds, _ := o.kinds(); len(kinds) > 0 {
		opts = append(opts, annotation.WithKinds(kinds...))
	}

	return opts
}

func (o OutputConfig) kinds() ([]annotation.Kind, error) {
	kinds := make([]annotation.Kind, 0, len(o.Kinds))
	for _, name := range o.Kinds {
		k, ok := annotation.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown annotation kind %q", name)
		}
		kinds = append(kinds, k)
	}

	return kinds, nil
}
