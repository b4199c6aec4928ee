package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/sumpdec/encoding"
	"github.com/arloliu/sumpdec/simulate"
)

var simOut string

var simulateCmd = &cobra.Command{
	Use:   "simulate <script>",
	Short: "Build an RLE capture from a bus script",
	Long: `Run an I2C bus script and write the waveform as an RLE capture.
The capture enables exactly the script's SDA and SCL channels; decode it
with a job whose capture.channels matches the printed mask.

Examples:
  sumpdec simulate transfer.sim --out transfer.rle`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simOut, "out", "o", "", "RLE output file (required)")
	_ = simulateCmd.MarkFlagRequired("out")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	script, err := simulate.ParseScriptFile(args[0])
	if err != nil {
		return err
	}

	bus, err := script.Bus()
	if err != nil {
		return err
	}

	enc, err := encoding.NewRLEEncoder(encoding.RLEConfig{EnabledChannels: bus.Mask()})
	if err != nil {
		return err
	}
	defer enc.Finish()

	if err := bus.Runs().Encode(enc); err != nil {
		return fmt.Errorf("failed to encode capture: %w", err)
	}
	if err := os.WriteFile(simOut, enc.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write capture: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d ticks, %d bytes, channels 0x%02x, rate %d\n",
		simOut, enc.Ticks(), enc.Size(), bus.Mask(), script.Rate)

	return nil
}
