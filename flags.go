package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"utrinv/pkg/config"
	"utrinv/pkg/logging"
	"utrinv/pkg/session"
)

type globalFlags struct {
	configPath string
	verbose    bool
}

// serialFlags are shared by every command that talks to a reader.
type serialFlags struct {
	port      string
	baud      int
	dataBits  int
	parity    string
	stopBits  int
	pollMs    int
	address   uint8
	timeoutMs int
}

func addSerialFlags(cmd *cobra.Command, f *serialFlags) {
	d := config.Default()
	fs := cmd.Flags()
	fs.StringVarP(&f.port, "port", "p", "", "serial port (prompted when omitted on a terminal)")
	fs.IntVar(&f.baud, "baud", d.Serial.Baud, "baud rate")
	fs.IntVar(&f.dataBits, "databits", d.Serial.DataBits, "data bits (5-8)")
	fs.StringVar(&f.parity, "parity", d.Serial.Parity, "parity: none, odd, even, mark, space")
	fs.IntVar(&f.stopBits, "stopbits", d.Serial.StopBits, "stop bits: 1 or 2")
	fs.IntVar(&f.pollMs, "poll", d.Serial.PollMs, "per-read poll interval in milliseconds")
	fs.Uint8Var(&f.address, "address", d.Reader.Address, "reader address")
	fs.IntVar(&f.timeoutMs, "timeout", d.Reader.TimeoutMs, "response timeout in milliseconds")
}

// loadConfig reads the config file, lays explicitly set flags over it and
// validates the result. extra applies command-specific flags.
func loadConfig(cmd *cobra.Command, g *globalFlags, f *serialFlags, extra func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if f != nil {
		applySerialFlags(cmd, f, &cfg)
	}
	if extra != nil {
		extra(&cfg)
	}
	return cfg, config.Validate(&cfg)
}

func applySerialFlags(cmd *cobra.Command, f *serialFlags, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("port") {
		cfg.Serial.Port = f.port
	}
	if fs.Changed("baud") {
		cfg.Serial.Baud = f.baud
	}
	if fs.Changed("databits") {
		cfg.Serial.DataBits = f.dataBits
	}
	if fs.Changed("parity") {
		cfg.Serial.Parity = f.parity
	}
	if fs.Changed("stopbits") {
		cfg.Serial.StopBits = f.stopBits
	}
	if fs.Changed("poll") {
		cfg.Serial.PollMs = f.pollMs
	}
	if fs.Changed("address") {
		cfg.Reader.Address = f.address
	}
	if fs.Changed("timeout") {
		cfg.Reader.TimeoutMs = f.timeoutMs
	}
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// openReader opens the configured serial port, prompting for one when none
// is set and stdin is interactive.
func openReader(cfg config.Config, log zerolog.Logger, rec session.Recorder) (*session.Session, *session.SerialPort, error) {
	name := cfg.Serial.Port
	if name == "" {
		if !stdinIsTerminal() {
			return nil, nil, fmt.Errorf("no serial port given: use --port or serial.port")
		}
		var err error
		name, err = pickPort()
		if err != nil {
			return nil, nil, err
		}
	}

	port, err := session.OpenSerial(session.SerialConfig{
		Port:     name,
		Baud:     cfg.Serial.Baud,
		DataBits: cfg.Serial.DataBits,
		Parity:   cfg.Serial.Parity,
		StopBits: cfg.Serial.StopBits,
		Poll:     cfg.Serial.Poll(),
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info().
		Str("port", port.Name()).
		Int("baud", cfg.Serial.Baud).
		Uint8("address", cfg.Reader.Address).
		Msg("connected")

	sess := session.New(port, session.Options{
		Address:  cfg.Reader.Address,
		Timeout:  cfg.Reader.Timeout(),
		Logger:   &log,
		Recorder: rec,
	})
	return sess, port, nil
}

func setupLogger(g *globalFlags) zerolog.Logger {
	return logging.ConfigureRuntime(g.verbose)
}
