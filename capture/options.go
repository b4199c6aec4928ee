package capture

import (
	"fmt"

	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/internal/options"
)

// Option configures a Buffer at construction time.
type Option = options.Option[*Buffer]

// WithTrigger sets the trigger position. Pass NoTrigger to clear it.
func WithTrigger(position int64) Option {
	return options.New(func(b *Buffer) error {
		if position < 0 && position != NoTrigger {
			return fmt.Errorf("invalid trigger position %d", position)
		}
		b.triggerPosition = position

		return nil
	})
}

// WithEnabledChannels sets the enabled-channel mask. A zero mask is rejected.
func WithEnabledChannels(mask uint32) Option {
	return options.New(func(b *Buffer) error {
		if mask == 0 {
			return errs.ErrInvalidChannelMask
		}
		b.enabledChannels = mask

		return nil
	})
}

// WithRate sets the sample rate in Hz.
func WithRate(hz int) Option {
	return options.New(func(b *Buffer) error {
		if hz < 0 {
			return fmt.Errorf("invalid sample rate %d", hz)
		}
		b.rate = hz

		return nil
	})
}

// WithAbsoluteLength sets the number of ticks covered by the capture. Values
// shorter than the last timestamp are raised to cover it.
func WithAbsoluteLength(ticks int64) Option {
	return options.NoError(func(b *Buffer) {
		b.absoluteLength = ticks
	})
}
