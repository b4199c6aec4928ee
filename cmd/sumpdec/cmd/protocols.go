package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/sumpdec"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List the available decoders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, p := range sumpdec.DefaultRegistry().Protocols() {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(protocolsCmd)
}
