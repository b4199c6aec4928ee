package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arloliu/sumpdec/log"
)

var (
	// Global flags
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sumpdec",
	Short: "Logic analyzer capture decoder",
	Long: `Decode run-length encoded logic analyzer captures into protocol
annotations, and generate synthetic captures for testing.

Examples:
  sumpdec simulate transfer.sim --out transfer.rle    # Build a capture from a script
  sumpdec decode transfer.rle --config job.yaml       # Decode a capture
  sumpdec protocols                                   # List the decoders`,
	SilenceUsage: true,
	Version:      "0.1.0",
}

// Execute runs the root command. An interrupt cancels running decoders.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every annotation")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func newLogger() (*log.Logger, error) {
	logger, err := log.NewLogger(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}

	return logger, nil
}
