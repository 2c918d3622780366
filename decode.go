package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"utrinv/pkg/decoder"
	"utrinv/pkg/frame"
	"utrinv/pkg/tally"
)

type decodeFlags struct {
	file string
}

func newDecodeCmd(g *globalFlags) *cobra.Command {
	f := &decodeFlags{}

	cmd := &cobra.Command{
		Use:   "decode [HEX...]",
		Short: "Decode captured reader bytes offline",
		Long: `Run the frame reassembler over bytes given as hex arguments or read from a
raw binary file, and print every frame with its decoded content. Bytes are
split into exchanges at each ACK/NACK frame.`,
		Example: `  utrinv decode 02 00 6C 08 10 FF CE 00 03 30 00 11 03 9A 0D
  utrinv decode --file capture.bin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			switch {
			case f.file != "" && len(args) > 0:
				return errors.New("give hex arguments or --file, not both")
			case f.file != "":
				b, err := os.ReadFile(f.file)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				data = b
			case len(args) > 0:
				b, err := parseHexArgs(args)
				if err != nil {
					return err
				}
				data = b
			default:
				return errors.New("nothing to decode: give hex bytes or --file")
			}
			setupLogger(g)
			decodeStream(os.Stdout, data)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "raw binary input file")
	return cmd
}

// parseHexArgs joins hex arguments, ignoring spaces, colons and dashes.
func parseHexArgs(args []string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "-", "", "\n", "", "\t", "").
		Replace(strings.Join(args, ""))
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return b, nil
}

// decodeStream splits data into exchanges and prints each one. It returns
// the accumulated tag counts.
func decodeStream(w io.Writer, data []byte) *tally.Accumulator {
	acc := &tally.Accumulator{}
	dropped := 0
	for n := 1; len(data) > 0; n++ {
		res := frame.Scan(data)
		dropped += res.Dropped
		data = data[res.Consumed:]
		if len(res.Frames) == 0 {
			break
		}
		fmt.Fprintf(w, "exchange %d:\n", n)
		writeFrames(w, res.Frames)
		acc.Add(decoder.DecodeBurst(res.Frames), !res.Terminal)
	}
	if dropped > 0 {
		fmt.Fprintf(w, "%d noise bytes dropped\n", dropped)
	}
	if len(data) > 0 {
		fmt.Fprintf(w, "%d trailing bytes do not form a complete frame\n", len(data))
	}
	if acc.Iterations > 1 {
		fmt.Fprintf(w, "%d exchanges, %d tag reads, %d unique\n", acc.Iterations, acc.TotalReads, acc.Unique())
	}
	return acc
}

// writeFrames prints each frame and what it decodes to, then the burst.
func writeFrames(w io.Writer, frames []frame.Frame) {
	for _, f := range frames {
		res := decoder.Dispatch(f)
		fmt.Fprintf(w, "<- %s\n   %s", f, res.Kind)
		switch {
		case res.Err != nil:
			fmt.Fprintf(w, ": %v", res.Err)
		case res.Kind == decoder.KindInventory:
			fmt.Fprintf(w, ": %s %s", res.Tag.ID(), res.Tag.RSSI)
		case res.Kind == decoder.KindInventoryAck:
			fmt.Fprintf(w, ": %d tags", res.ExpectedCount)
		case res.Kind == decoder.KindNack:
			fmt.Fprintf(w, ": %s", res.Nack)
		}
		fmt.Fprintln(w)
	}
	if len(frames) == 0 {
		return
	}
	b := decoder.DecodeBurst(frames)
	fmt.Fprintf(w, "   burst: %s", b)
	if b.Mismatch() {
		fmt.Fprint(w, " [count mismatch]")
	}
	fmt.Fprintln(w)
}
