package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"utrinv/pkg/command"
	"utrinv/pkg/config"
	"utrinv/pkg/session"
)

type sendFlags struct {
	serial serialFlags
	list   bool
	pcap   string
	link   string
}

func newSendCmd(g *globalFlags) *cobra.Command {
	f := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send NAME|HEX",
		Short: "Send one command and print the reader's reply",
		Long: `Send a named command, or a complete frame given as hex, and print every frame
received up to the closing ACK/NACK.

Use --list to see the named commands.`,
		Example: `  utrinv send rom-version -p /dev/ttyUSB0
  utrinv send "02 00 55 01 10 03 6B 0D"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.list {
				listCommands(os.Stdout)
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("send needs a command name or hex frame")
			}
			cfg, err := loadConfig(cmd, g, &f.serial, func(c *config.Config) {
				if cmd.Flags().Changed("pcap") {
					c.Output.Pcap = f.pcap
					c.Output.Pipe = false
				}
				if cmd.Flags().Changed("link") {
					c.Output.Link = f.link
				}
			})
			if err != nil {
				return err
			}
			wire, err := command.Resolve(args[0], cfg.Reader.Address)
			if err != nil {
				return err
			}

			log := setupLogger(g)
			rec, closeCapture, err := openCapture(cfg.Output, log)
			if err != nil {
				return err
			}
			defer closeCapture()

			sess, port, err := openReader(cfg, log, rec)
			if err != nil {
				return err
			}
			defer func() { _ = port.Close() }()

			fmt.Fprintf(os.Stdout, "-> % X\n", wire)
			resp, err := sess.SendAndReceive(wire, cfg.Reader.Timeout())
			writeResponse(os.Stdout, resp)
			return err
		},
	}

	addSerialFlags(cmd, &f.serial)
	cmd.Flags().BoolVar(&f.list, "list", false, "list named commands")
	cmd.Flags().StringVar(&f.pcap, "pcap", "", "write TX/RX frames to this PCAP file")
	cmd.Flags().StringVar(&f.link, "link", config.Default().Output.Link, "PCAP link type: rtac or user0")
	return cmd
}

func listCommands(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range command.All() {
		fmt.Fprintf(tw, "%s\t%s\t% X\n", c.Name, c.Summary, c.Bytes(0))
	}
	_ = tw.Flush()
}

func writeResponse(w io.Writer, resp session.Response) {
	writeFrames(w, resp.Frames)
	if resp.TimedOut {
		fmt.Fprintf(w, "timed out after %s\n", resp.Elapsed)
	}
	if resp.Dropped > 0 {
		fmt.Fprintf(w, "%d noise bytes dropped\n", resp.Dropped)
	}
}
