package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arloliu/sumpdec"
	"github.com/arloliu/sumpdec/capture"
	"github.com/arloliu/sumpdec/config"
	"github.com/arloliu/sumpdec/decoder"
	"github.com/arloliu/sumpdec/format"
)

var (
	jobPath      string
	streamOut    string
	compression  string
	showProgress bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode <rle-file>",
	Short: "Decode an RLE capture with a job file",
	Long: `Decode an RLE capture with the decoders listed in a job file and
print a summary of each run. With --out the annotations are exported as
an annotation stream; jobs with several decoders write one stream per
protocol, named after the protocol.

Examples:
  sumpdec decode capture.rle --config job.yaml
  sumpdec decode capture.rle --config job.yaml --out events.bin --compression zstd
  sumpdec decode -v capture.rle --config job.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringVarP(&jobPath, "config", "c", "", "job file (required)")
	decodeCmd.Flags().StringVarP(&streamOut, "out", "o", "", "annotation stream output file")
	decodeCmd.Flags().StringVar(&compression, "compression", "",
		"stream compression (none, zstd, s2, lz4); overrides the job file")
	decodeCmd.Flags().BoolVar(&showProgress, "progress", false, "log decode progress")
	_ = decodeCmd.MarkFlagRequired("config")
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read capture: %w", err)
	}

	job, err := config.Load(jobPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("compression") {
		job.Output.Compression = compression
		if err := job.Validate(); err != nil {
			return err
		}
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := []decoder.RunOption{decoder.WithLogger(logger)}
	if showProgress {
		sugar := logger.Sugar()
		opts = append(opts, decoder.WithProgress(func(phase decoder.Phase, percent int) {
			sugar.Infof("%s: %d%%", phase, percent)
		}))
	}

	buf, results, err := sumpdec.Decode(cmd.Context(), data, job, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "capture: %d samples, %d channels, fingerprint %016x\n",
		buf.Len(), buf.ChannelCount(), buf.Fingerprint())
	for _, res := range results {
		printResult(out, res)
	}

	if streamOut == "" {
		return nil
	}
	for _, res := range results {
		path := streamPath(streamOut, res.Protocol, len(results) > 1)
		if err := writeStream(out, path, buf, res, job.Output); err != nil {
			return err
		}
	}

	return nil
}

func printResult(w io.Writer, res decoder.Result) {
	switch res.Status {
	case decoder.StatusNotFound:
		fmt.Fprintf(w, "%s: not found: %v\n", res.Protocol, res.Reason)
		return
	case decoder.StatusCancelled:
		fmt.Fprintf(w, "%s: cancelled after %d samples\n", res.Protocol, res.Scanned)
		return
	}

	roles := make([]string, 0, len(res.Roles))
	for _, name := range slices.Sorted(maps.Keys(res.Roles)) {
		roles = append(roles, fmt.Sprintf("%s=%d", name, res.Roles[name]))
	}
	fmt.Fprintf(w, "%s: %d datagrams, %d events (%s)\n",
		res.Protocol, res.Annotations.Datagrams(), res.Annotations.Events(), strings.Join(roles, " "))

	if !verbose {
		return
	}
	for _, a := range res.Annotations.All() {
		fmt.Fprintf(w, "  ch%-2d %-14s t=%+d\n", a.Channel, a, a.StartTime)
	}
}

// streamPath inserts the protocol name before the extension when a job
// writes several streams.
func streamPath(out string, p format.Protocol, multi bool) string {
	if !multi {
		return out
	}
	ext := filepath.Ext(out)

	return strings.TrimSuffix(out, ext) + "." + p.String() + ext
}

func writeStream(w io.Writer, path string, buf *capture.Buffer, res decoder.Result, out config.OutputConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create stream file: %w", err)
	}

	stats, err := sumpdec.WriteStream(f, buf, res, out)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(w, "wrote %s: %d payloads, %d bytes (%s, ratio %.2f)\n",
		path, stats.Payloads, stats.CompressedSize, stats.Algorithm, stats.Ratio())

	return nil
}
