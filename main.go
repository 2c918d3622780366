package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	commit  = "unknown"
)

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "utrinv",
		Short: "Inventory UHF RFID tags through a serial reader",
		Long: `utrinv drives a serial UHF RFID reader in command mode: it sends inventory
requests, reassembles the reader's framed responses, and reports the tags seen
with their signal strength.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging and live status on stderr")

	root.AddCommand(newPortsCmd())
	root.AddCommand(newInventoryCmd(g))
	root.AddCommand(newSendCmd(g))
	root.AddCommand(newDecodeCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	enableTerminalStatus()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
