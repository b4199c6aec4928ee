package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProtocol_String(t *testing.T) {
	require.Equal(t, "i2c", ProtocolI2C.String())
	require.Equal(t, "state", ProtocolState.String())
	require.Equal(t, "unknown", Protocol(0xFF).String())
}

func TestParseProtocol(t *testing.T) {
	tests := []struct {
		name     string
		expected Protocol
		ok       bool
	}{
		{"i2c", ProtocolI2C, true},
		{" I2C ", ProtocolI2C, true},
		{"State", ProtocolState, true},
		{"spi", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ParseProtocol(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.expected, p)
		})
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name     string
		expected CompressionType
		ok       bool
	}{
		{"", CompressionNone, true},
		{"none", CompressionNone, true},
		{"ZSTD", CompressionZstd, true},
		{"s2", CompressionS2, true},
		{"lz4", CompressionLZ4, true},
		{"gzip", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ParseCompression(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.expected, c)
		})
	}

	for _, c := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		parsed, ok := ParseCompression(c.String())
		require.True(t, ok)
		require.Equal(t, c, parsed)
	}
	require.Equal(t, "Unknown", CompressionType(0xFF).String())
}
