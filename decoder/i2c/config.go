package i2c

import (
	"fmt"

	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/decoder"
	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/internal/options"
)

// maxLine is the highest channel index of a 32-channel capture.
const maxLine = 31

// Config holds the immutable settings of an I2C decoder.
//
// SDA and SCL name the two bus lines. With AutoDetect set they are only
// candidates: the line that drops first while leaving idle becomes SDA.
// DATA and BUS_ERROR annotations are always reported; the Report flags gate
// the remaining events. ReportStart covers REPEATED_START as well.
type Config struct {
	SDA         int  `yaml:"sda"`
	SCL         int  `yaml:"scl"`
	AutoDetect  bool `yaml:"auto_detect"`
	ReportACK   bool `yaml:"report_ack"`
	ReportNACK  bool `yaml:"report_nack"`
	ReportStart bool `yaml:"report_start"`
	ReportStop  bool `yaml:"report_stop"`
}

// Option configures a Config.
type Option = options.Option[*Config]

// DefaultConfig returns SDA on channel 0, SCL on channel 1, role
// auto-detection and every event reported.
func DefaultConfig() Config {
	return Config{
		SDA:         0,
		SCL:         1,
		AutoDetect:  true,
		ReportACK:   true,
		ReportNACK:  true,
		ReportStart: true,
		ReportStop:  true,
	}
}

// NewConfig applies opts to DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	if err := options.ApplyAndValidate(&cfg, opts...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the line assignment.
func (c *Config) Validate() error {
	for _, line := range []int{c.SDA, c.SCL} {
		if line < 0 || line > maxLine {
			return fmt.Errorf("%w: %d", errs.ErrInvalidLine, line)
		}
	}
	if c.SDA == c.SCL {
		return fmt.Errorf("%w: SDA and SCL both on channel %d", errs.ErrOverlappingLines, c.SDA)
	}

	return nil
}

// validateFor checks that both lines were captured.
func (c *Config) validateFor(buf *capture.Buffer) error {
	for _, line := range []int{c.SDA, c.SCL} {
		if !buf.ChannelEnabled(line) {
			return fmt.Errorf("%w: channel %d (mask %#08x)", errs.ErrChannelNotEnabled, line, buf.EnabledChannels())
		}
	}

	return nil
}

// WithLines assigns SDA and SCL.
func WithLines(sda, scl int) Option {
	return options.NoError(func(c *Config) {
		c.SDA = sda
		c.SCL = scl
	})
}

// WithAutoDetect enables or disables SDA/SCL role detection.
func WithAutoDetect(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.AutoDetect = enabled
	})
}

// WithReportACK toggles ACK annotations.
func WithReportACK(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.ReportACK = enabled
	})
}

// WithReportNACK toggles NACK annotations.
func WithReportNACK(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.ReportNACK = enabled
	})
}

// WithReportStart toggles START and REPEATED_START annotations.
func WithReportStart(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.ReportStart = enabled
	})
}

// WithReportStop toggles STOP annotations.
func WithReportStop(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.ReportStop = enabled
	})
}

// WithEvents toggles ACK, NACK, START and STOP reporting at once.
func WithEvents(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.ReportACK = enabled
		c.ReportNACK = enabled
		c.ReportStart = enabled
		c.ReportStop = enabled
	})
}

// Constructor builds an I2C decoder from registry options. Fields missing
// from the options keep their DefaultConfig values.
func Constructor(unmarshal func(any) error) (decoder.Decoder, error) {
	cfg := DefaultConfig()
	if unmarshal != nil {
		if err := unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("i2c options: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return New(cfg), nil
}
