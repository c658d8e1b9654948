// Package cli implements the incuchat command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the CLI with the given args.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "incuchat",
		Short:         "Terminal client for the incubation portal chat",
		Long:          "incuchat synchronizes and sends incubation portal chat messages from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().String("config", "", "Path to config file")

	cmd.AddCommand(
		newAuthCmd(),
		newChatsCmd(),
		newHistoryCmd(),
		newSendCmd(),
		newCreateCmd(),
		newCloseCmd(),
		newWatchCmd(),
		newAttachmentCmd(),
	)

	return cmd
}
