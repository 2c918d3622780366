package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"utrinv/pkg/command"
	"utrinv/pkg/config"
	"utrinv/pkg/decoder"
	"utrinv/pkg/session"
	"utrinv/pkg/tally"
)

type inventoryFlags struct {
	serial  serialFlags
	repeat  int
	buzzer  bool
	setup   bool
	results string
	pcap    string
	pipe    bool
	link    string
}

func newInventoryCmd(g *globalFlags) *cobra.Command {
	f := &inventoryFlags{}

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Run inventory rounds and log the tags seen",
		Long: `Run inventory rounds against the reader. Each round sends one inventory
command and decodes every tag frame up to the closing ACK/NACK.

With --repeat 0 on a terminal, the number of rounds is asked for repeatedly
until q is entered. Totals are appended to the results file on exit.`,
		Example: `  utrinv inventory -p /dev/ttyUSB0 --repeat 10
  utrinv inventory --setup --pcap rfid.pcap
  utrinv inventory --pcap /tmp/rfid --pipe   # then: wireshark -k -i /tmp/rfid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g, &f.serial, func(c *config.Config) {
				applyInventoryFlags(cmd, f, c)
			})
			if err != nil {
				return err
			}
			return runInventory(cmd.Context(), cfg, setupLogger(g), g.verbose)
		},
	}

	addSerialFlags(cmd, &f.serial)
	addInventoryFlags(cmd, f)
	return cmd
}

func addInventoryFlags(cmd *cobra.Command, f *inventoryFlags) {
	d := config.Default()
	fs := cmd.Flags()
	fs.IntVarP(&f.repeat, "repeat", "n", d.Inventory.Repeat, "rounds to run (0 = prompt)")
	fs.BoolVar(&f.buzzer, "buzzer", false, "beep when finished")
	fs.BoolVar(&f.setup, "setup", false, "run the ROM version / command mode handshake first")
	fs.StringVarP(&f.results, "results", "o", d.Output.ResultsFile, "results log (appended)")
	fs.StringVar(&f.pcap, "pcap", "", "write TX/RX frames to this PCAP file")
	fs.BoolVar(&f.pipe, "pipe", false, "create --pcap as a named pipe for live Wireshark (Unix only)")
	fs.StringVar(&f.link, "link", d.Output.Link, "PCAP link type: rtac or user0")
}

func applyInventoryFlags(cmd *cobra.Command, f *inventoryFlags, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("repeat") {
		cfg.Inventory.Repeat = f.repeat
	}
	if fs.Changed("buzzer") {
		cfg.Inventory.Buzzer = f.buzzer
	}
	if fs.Changed("setup") {
		cfg.Reader.Setup = f.setup
	}
	if fs.Changed("results") {
		cfg.Output.ResultsFile = f.results
	}
	if fs.Changed("pcap") {
		cfg.Output.Pcap = f.pcap
	}
	if fs.Changed("pipe") {
		cfg.Output.Pipe = f.pipe
	}
	if fs.Changed("link") {
		cfg.Output.Link = f.link
	}
}

func runInventory(ctx context.Context, cfg config.Config, log zerolog.Logger, verbose bool) error {
	if cfg.Inventory.Repeat == 0 && !stdinIsTerminal() {
		return errors.New("--repeat is required when stdin is not a terminal")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if cfg.Reader.Setup {
		if err := runSetup(sess, log); err != nil {
			return err
		}
	}

	r := &inventoryRun{
		sess:   sess,
		log:    log,
		out:    os.Stdout,
		status: verbose && stderrIsTerminal(),
	}
	runErr := r.loop(ctx, cfg.Inventory.Repeat)
	if r.status {
		fmt.Fprintln(os.Stderr)
	}

	if r.acc.Iterations > 0 {
		fmt.Fprintln(os.Stdout, renderSummary(&r.acc))
		if err := tally.AppendReport(cfg.Output.ResultsFile, &r.acc, time.Now()); err != nil {
			log.Error().Err(err).Msg("save results")
		} else {
			log.Info().Str("file", cfg.Output.ResultsFile).Msg("results saved")
		}
	}

	if cfg.Inventory.Buzzer {
		if _, err := sess.Do(command.BuzzerTriple); err != nil {
			log.Warn().Err(err).Msg("buzzer")
		}
	}
	return runErr
}

// inventoryRun holds the state of one inventory command invocation.
type inventoryRun struct {
	sess   *session.Session
	log    zerolog.Logger
	out    io.Writer
	acc    tally.Accumulator
	status bool
}

// loop runs repeat rounds, or prompts for round counts when repeat is 0.
func (r *inventoryRun) loop(ctx context.Context, repeat int) error {
	if repeat > 0 {
		return r.rounds(ctx, repeat)
	}
	for {
		n, err := promptRepeat()
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := r.rounds(ctx, n); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *inventoryRun) rounds(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			r.log.Info().Int("completed", i).Msg("interrupted")
			return nil
		}
		if err := r.round(); err != nil {
			return err
		}
	}
	return nil
}

// round runs one inventory command and folds the result into the tally.
func (r *inventoryRun) round() error {
	resp, err := r.sess.Do(command.Inventory)
	if err != nil && len(resp.Frames) == 0 {
		return err
	}
	r.acc.AddTime(resp.Elapsed)
	burst := decoder.DecodeBurst(resp.Frames)
	r.acc.Add(burst, resp.TimedOut)

	for _, t := range burst.Tags {
		fmt.Fprintf(r.out, "%s  %s\n", t.ID(), t.RSSI)
	}

	for _, ferr := range burst.Failures {
		r.log.Warn().Err(ferr).Msg("undecodable frame")
	}
	lvl := zerolog.DebugLevel
	if burst.Nack != nil || burst.Mismatch() || resp.TimedOut {
		lvl = zerolog.WarnLevel
	}
	ev := r.log.WithLevel(lvl).
		Int("round", r.acc.Iterations).
		Int("tags", len(burst.Tags)).
		Bool("timed_out", resp.TimedOut)
	if burst.HasExpected {
		ev = ev.Uint16("expected", burst.ExpectedCount)
	}
	if burst.Nack != nil {
		ev = ev.Str("nack", burst.Nack.String())
	}
	ev.Msg("inventory")

	if r.status {
		fmt.Fprintf(os.Stderr, "\rrounds: %d  reads: %d  unique: %d          ",
			r.acc.Iterations, r.acc.TotalReads, r.acc.Unique())
	}
	return err
}
