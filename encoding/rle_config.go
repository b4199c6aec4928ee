package encoding

import (
	"fmt"
	"math/bits"

	"github.com/arloliu/sumpdec/errs"
)

const (
	// GroupCount is the number of 8-channel groups a sample word can carry.
	GroupCount = 4

	// ddrGroupMask covers the channel groups a DDR capture cannot sample.
	ddrGroupMask uint32 = 0xFFFF0000
)

// RLEConfig describes the channel layout of an RLE stream.
//
// Only channel groups (bytes of the 32-bit sample value) with at least one
// enabled channel are transmitted, so the word width equals the number of
// enabled groups.
type RLEConfig struct {
	// EnabledChannels is the capture's enabled-channel mask.
	EnabledChannels uint32
	// DDR selects double data rate sampling, where the hardware only samples
	// channel groups 0 and 1.
	DDR bool
}

// Validate checks that the configuration describes an encodable stream.
//
// Returns:
//   - errs.ErrInvalidChannelMask if no channel is enabled
//   - errs.ErrUnsupportedDDRGroups if DDR is combined with channel groups 2 or 3
func (c RLEConfig) Validate() error {
	if c.EnabledChannels == 0 {
		return errs.ErrInvalidChannelMask
	}

	if c.DDR && c.EnabledChannels&ddrGroupMask != 0 {
		return fmt.Errorf("%w (mask %#08x)", errs.ErrUnsupportedDDRGroups, c.EnabledChannels)
	}

	return nil
}

// GroupMask returns a 4-bit mask with bit g set when channel group g is enabled.
func (c RLEConfig) GroupMask() uint8 {
	var groups uint8
	for g := range GroupCount {
		if c.EnabledChannels&(0xFF<<(8*g)) != 0 {
			groups |= 1 << g
		}
	}

	return groups
}

// Width returns the word width in bytes.
func (c RLEConfig) Width() int {
	return bits.OnesCount8(c.GroupMask())
}

// Pack moves the enabled channel groups of value into consecutive low-order
// bytes, in ascending group order.
func (c RLEConfig) Pack(value uint32) uint32 {
	value &= c.EnabledChannels

	var packed uint32
	shift := 0
	for g := range GroupCount {
		groupBits := uint32(0xFF) << (8 * g)
		if c.EnabledChannels&groupBits == 0 {
			continue
		}
		packed |= ((value & groupBits) >> (8 * g)) << shift
		shift += 8
	}

	return packed
}

// Unpack is the inverse of Pack. Bits outside the enabled-channel mask are cleared.
func (c RLEConfig) Unpack(word uint32) uint32 {
	var value uint32
	shift := 0
	for g := range GroupCount {
		groupBits := uint32(0xFF) << (8 * g)
		if c.EnabledChannels&groupBits == 0 {
			continue
		}
		value |= ((word >> shift) & 0xFF) << (8 * g)
		shift += 8
	}

	return value & c.EnabledChannels
}
