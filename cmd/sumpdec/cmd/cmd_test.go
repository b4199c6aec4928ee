package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/sumpdec"
	"github.com/arloliu/sumpdec/annotation"
	"github.com/arloliu/sumpdec/config"
	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/format"
)

const script = `
rate 1000000
clock 5
idle 20
start
bytes 0xA0 0x10
restart
byte 0xA1
byte 0x55 nack
stop
idle 20
`

const job = `
capture:
  channels: 0x03
  rate: 1000000
decoders:
  - protocol: i2c
  - protocol: state
    options: {clock: 1}
output:
  kinds: [DATA]
`

// resetFlags restores every flag of c and its subcommands to its default,
// since cobra keeps parsed values between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	return out.String(), err
}

func TestProtocols(t *testing.T) {
	out, err := execute(t, "protocols")
	require.NoError(t, err)
	require.Equal(t, "i2c\nstate\n", out)
}

func TestSimulateAndDecode(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "transfer.sim")
	jobFile := filepath.Join(dir, "job.yaml")
	rlePath := filepath.Join(dir, "transfer.rle")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o644))
	require.NoError(t, os.WriteFile(jobFile, []byte(job), 0o644))

	out, err := execute(t, "simulate", scriptPath, "--out", rlePath)
	require.NoError(t, err)
	require.Contains(t, out, "channels 0x03, rate 1000000")
	require.FileExists(t, rlePath)

	out, err = execute(t, "decode", rlePath, "--config", jobFile,
		"--out", filepath.Join(dir, "events.bin"), "--compression", "zstd")
	require.NoError(t, err)
	require.Contains(t, out, "i2c: 4 datagrams")
	require.Contains(t, out, "(scl=1 sda=0)")
	require.Contains(t, out, "state: ")

	f, err := os.Open(filepath.Join(dir, "events.i2c.bin"))
	require.NoError(t, err)
	defer f.Close()

	header, got, err := annotation.ReadStream(f)
	require.NoError(t, err)
	require.Equal(t, format.ProtocolI2C, header.Protocol)
	require.Equal(t, format.CompressionZstd, header.Compression)
	require.Len(t, got, 4)
	require.Equal(t, uint32(0x55), got[3].Value)
	require.FileExists(t, filepath.Join(dir, "events.state.bin"))
}

func TestDecode_Errors(t *testing.T) {
	dir := t.TempDir()
	jobFile := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(jobFile, []byte(job), 0o644))

	_, err := execute(t, "decode", filepath.Join(dir, "missing.rle"), "--config", jobFile)
	require.ErrorContains(t, err, "failed to read capture")

	rlePath := filepath.Join(dir, "empty.rle")
	require.NoError(t, os.WriteFile(rlePath, nil, 0o644))
	_, err = execute(t, "decode", rlePath, "--config", filepath.Join(dir, "nope.yaml"))
	require.ErrorContains(t, err, "job file not found")

	_, err = execute(t, "decode", rlePath, "--config", jobFile, "--compression", "brotli")
	require.ErrorIs(t, err, errs.ErrInvalidCompression)
}

func TestDecode_VerboseTriggerRelative(t *testing.T) {
	const trigger = 10
	triggerJob := fmt.Sprintf(`
capture:
  channels: 0x03
  rate: 1000000
  trigger: %d
decoders:
  - protocol: i2c
output:
  compression: s2
`, trigger)

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "transfer.sim")
	jobFile := filepath.Join(dir, "job.yaml")
	rlePath := filepath.Join(dir, "transfer.rle")
	streamFile := filepath.Join(dir, "events.bin")
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o644))
	require.NoError(t, os.WriteFile(jobFile, []byte(triggerJob), 0o644))

	_, err := execute(t, "simulate", scriptPath, "--out", rlePath)
	require.NoError(t, err)

	out, err := execute(t, "decode", "-v", rlePath, "--config", jobFile,
		"--out", streamFile, "--compression", "lz4")
	require.NoError(t, err)

	data, err := os.ReadFile(rlePath)
	require.NoError(t, err)
	parsed, err := config.Parse([]byte(triggerJob))
	require.NoError(t, err)
	buf, results, err := sumpdec.Decode(context.Background(), data, parsed)
	require.NoError(t, err)
	require.Positive(t, results[0].Annotations.Len())

	for _, a := range results[0].Annotations.All() {
		want := buf.Timestamp(a.StartIndex) - trigger
		require.Equal(t, want, a.StartTime)
		require.Contains(t, out, fmt.Sprintf("ch%-2d %-14s t=%+d\n", a.Channel, a, want))
	}

	// the flag replaces the job's s2 compression
	f, err := os.Open(streamFile)
	require.NoError(t, err)
	defer f.Close()

	header, _, err := annotation.ReadStream(f)
	require.NoError(t, err)
	require.Equal(t, format.CompressionLZ4, header.Compression)
}

func TestStreamPath(t *testing.T) {
	require.Equal(t, "out.bin", streamPath("out.bin", format.ProtocolI2C, false))
	require.Equal(t, "out.i2c.bin", streamPath("out.bin", format.ProtocolI2C, true))
	require.Equal(t, "dir/out.state", streamPath("dir/out", format.ProtocolState, true))
}
