package format

import "strings"

type (
	Protocol        uint8
	CompressionType uint8
)

const (
	ProtocolI2C   Protocol = 0x1 // ProtocolI2C is the two-wire I2C bus decoder.
	ProtocolState Protocol = 0x2 // ProtocolState is the clock-edge state analyser.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (p Protocol) String() string {
	switch p {
	case ProtocolI2C:
		return "i2c"
	case ProtocolState:
		return "state"
	default:
		return "unknown"
	}
}

// ParseProtocol returns the protocol with the given (case-insensitive) name.
func ParseProtocol(name string) (Protocol, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "i2c":
		return ProtocolI2C, true
	case "state":
		return ProtocolState, true
	default:
		return 0, false
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression returns the compression type with the given (case-insensitive) name.
// An empty name selects CompressionNone.
func ParseCompression(name string) (CompressionType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}
