package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"utrinv/pkg/session"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := session.ListPorts()
			if err != nil {
				return err
			}
			writePorts(os.Stdout, ports)
			return nil
		},
	}
}

func writePorts(w io.Writer, ports []session.PortInfo) {
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Fprintln(w, p.String())
		if p.Serial != "" {
			fmt.Fprintf(w, "    serial: %s\n", p.Serial)
		}
	}
}
