package sumpdec

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sumpdec/annotation"
	"github.com/arloliu/sumpdec/config"
	"github.com/arloliu/sumpdec/decoder"
	"github.com/arloliu/sumpdec/decoder/i2c"
	"github.com/arloliu/sumpdec/decoder/state"
	"github.com/arloliu/sumpdec/encoding"
	"github.com/arloliu/sumpdec/format"
	"github.com/arloliu/sumpdec/simulate"
)

const transfer = `
	rate 400000
	clock 5
	idle 20
	start
	bytes 0xA0 0x10 0x20
	restart
	byte 0xA1
	byte 0x7F nack
	stop
	idle 20
`

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	require.Equal(t, []format.Protocol{format.ProtocolI2C, format.ProtocolState}, reg.Protocols())

	// every call returns an independent registry
	require.NotSame(t, reg, DefaultRegistry())
}

func TestDecode_Job(t *testing.T) {
	script, err := simulate.ParseScriptString("transfer", transfer)
	require.NoError(t, err)
	bus, err := script.Bus()
	require.NoError(t, err)

	enc, err := encoding.NewRLEEncoder(encoding.RLEConfig{EnabledChannels: bus.Mask()})
	require.NoError(t, err)
	defer enc.Finish()
	require.NoError(t, bus.Runs().Encode(enc))

	job, err := config.Parse([]byte(`
capture:
  channels: 0x03
  rate: 400000
decoders:
  - protocol: i2c
    options: {auto_detect: false}
  - protocol: state
    options: {clock: 1}
output:
  compression: s2
`))
	require.NoError(t, err)

	buf, results, err := Decode(context.Background(), enc.Bytes(), job)
	require.NoError(t, err)
	require.Equal(t, 400000, buf.Rate())
	require.Len(t, results, 2)

	i2cRes := results[0]
	require.Equal(t, format.ProtocolI2C, i2cRes.Protocol)
	require.Equal(t, decoder.StatusCompleted, i2cRes.Status)

	var values []uint32
	for a := range i2cRes.Annotations.Filter(annotation.KindData) {
		values = append(values, a.Value)
	}
	require.Equal(t, []uint32{0xA0, 0x10, 0x20, 0xA1, 0x7F}, values)
	require.Equal(t, 1, i2cRes.Annotations.Count(annotation.KindRepeatedStart))
	require.Equal(t, 1, i2cRes.Annotations.Count(annotation.KindNack))

	require.Equal(t, format.ProtocolState, results[1].Protocol)
	require.Equal(t, decoder.StatusCompleted, results[1].Status)
	require.Positive(t, results[1].Annotations.Len())
}

func TestDecodeI2C(t *testing.T) {
	script, err := simulate.ParseScriptString("transfer", transfer)
	require.NoError(t, err)
	buf, err := script.Build()
	require.NoError(t, err)

	res, err := DecodeI2C(context.Background(), buf)
	require.NoError(t, err)
	require.Equal(t, 5, res.Annotations.Datagrams())

	_, err = DecodeI2C(context.Background(), buf, nil, nil)
	require.NoError(t, err)
}

func TestEncodeRLE_RoundTrip(t *testing.T) {
	script, err := simulate.ParseScriptString("transfer", transfer)
	require.NoError(t, err)
	buf, err := script.Build()
	require.NoError(t, err)

	cfg := encoding.RLEConfig{EnabledChannels: 0x03}
	data, err := EncodeRLE(buf, cfg)
	require.NoError(t, err)

	dec, err := encoding.NewRLEDecoder(cfg, encoding.WithExpandedRuns())
	require.NoError(t, err)
	got, err := dec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, buf.AbsoluteLength(), int64(got.Len()))
}

func TestWriteStream(t *testing.T) {
	script, err := simulate.ParseScriptString("transfer", transfer)
	require.NoError(t, err)
	buf, err := script.Build()
	require.NoError(t, err)

	res, err := DecodeI2C(context.Background(), buf)
	require.NoError(t, err)

	for _, compression := range []string{"", "zstd", "s2", "lz4"} {
		t.Run("compression="+compression, func(t *testing.T) {
			var out bytes.Buffer
			stats, err := WriteStream(&out, buf, res, config.OutputConfig{
				Compression: compression,
				BatchSize:   2,
				Kinds:       []string{"DATA"},
			})
			require.NoError(t, err)
			require.Equal(t, 3, stats.Payloads)

			header, got, err := annotation.ReadStream(&out)
			require.NoError(t, err)
			require.Equal(t, format.ProtocolI2C, header.Protocol)
			require.Equal(t, buf.Fingerprint(), header.Fingerprint)
			require.Equal(t, buf.Len(), header.Samples)
			require.Len(t, got, 5)

			var want []annotation.Annotation
			for a := range res.Annotations.Filter(annotation.KindData) {
				want = append(want, a)
			}
			require.Equal(t, want, got)
		})
	}

	var out bytes.Buffer
	_, err = WriteStream(&out, buf, decoder.Cancelled(format.ProtocolI2C, 0), config.OutputConfig{})
	require.NoError(t, err)
	header, got, err := annotation.ReadStream(&out)
	require.NoError(t, err)
	require.Equal(t, format.CompressionNone, header.Compression)
	require.Empty(t, got)
}

func countProtocol(items []annotation.Annotation, p format.Protocol) int {
	n := 0
	for _, a := range items {
		if a.Protocol == p {
			n++
		}
	}

	return n
}

func TestDecodeAll_SharedSink(t *testing.T) {
	script, err := simulate.ParseScriptString("transfer", transfer)
	require.NoError(t, err)
	buf, err := script.Build()
	require.NoError(t, err)

	i2cCfg, err := i2c.NewConfig(i2c.WithLines(0, 1), i2c.WithAutoDetect(false))
	require.NoError(t, err)
	stateCfg, err := state.NewConfig(state.WithClock(1))
	require.NoError(t, err)
	i2cDec, stateDec := i2c.New(i2cCfg), state.New(stateCfg)

	// both decoders annotate channel 1 (SCL is the state clock)
	rec := annotation.NewRecorder()
	results, err := decoder.DecodeAll(context.Background(), buf, []decoder.Decoder{i2cDec, stateDec}, decoder.WithSink(rec))
	require.NoError(t, err)
	require.Positive(t, results[0].Annotations.Len())
	require.Positive(t, results[1].Annotations.Len())

	got := rec.Annotations()
	require.Equal(t, results[0].Annotations.Len(), countProtocol(got, format.ProtocolI2C))
	require.Equal(t, results[1].Annotations.Len(), countProtocol(got, format.ProtocolState))

	// a rerun replaces its own results and keeps the other protocol's
	for _, dec := range []decoder.Decoder{stateDec, i2cDec} {
		_, err = dec.Decode(context.Background(), buf, decoder.WithSink(rec))
		require.NoError(t, err)
	}
	got = rec.Annotations()
	require.Equal(t, results[0].Annotations.Len(), countProtocol(got, format.ProtocolI2C))
	require.Equal(t, results[1].Annotations.Len(), countProtocol(got, format.ProtocolState))
	require.Len(t, got, results[0].Annotations.Len()+results[1].Annotations.Len())
}
