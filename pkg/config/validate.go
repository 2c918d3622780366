package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid config")

// Validate checks cfg without modifying it.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}

	s := cfg.Serial
	if s.Baud <= 0 {
		return fmt.Errorf("%w: serial.baud must be > 0 (got %d)", ErrInvalid, s.Baud)
	}
	if s.DataBits < 5 || s.DataBits > 8 {
		return fmt.Errorf("%w: serial.data_bits must be 5..8 (got %d)", ErrInvalid, s.DataBits)
	}
	switch strings.ToLower(s.Parity) {
	case "none", "odd", "even", "mark", "space", "n", "o", "e", "m", "s":
	default:
		return fmt.Errorf("%w: serial.parity %q", ErrInvalid, s.Parity)
	}
	if s.StopBits != 1 && s.StopBits != 2 {
		return fmt.Errorf("%w: serial.stop_bits must be 1 or 2 (got %d)", ErrInvalid, s.StopBits)
	}
	if s.PollMs <= 0 {
		return fmt.Errorf("%w: serial.poll_ms must be > 0 (got %d)", ErrInvalid, s.PollMs)
	}

	if cfg.Reader.TimeoutMs <= 0 {
		return fmt.Errorf("%w: reader.timeout_ms must be > 0 (got %d)", ErrInvalid, cfg.Reader.TimeoutMs)
	}
	if cfg.Reader.TimeoutMs < s.PollMs {
		return fmt.Errorf("%w: reader.timeout_ms (%d) shorter than serial.poll_ms (%d)",
			ErrInvalid, cfg.Reader.TimeoutMs, s.PollMs)
	}

	if cfg.Inventory.Repeat < 0 || cfg.Inventory.Repeat > 100 {
		return fmt.Errorf("%w: inventory.repeat must be 0..100 (got %d)", ErrInvalid, cfg.Inventory.Repeat)
	}

	switch cfg.Output.Link {
	case "rtac", "user0":
	default:
		return fmt.Errorf("%w: output.link must be rtac or user0 (got %q)", ErrInvalid, cfg.Output.Link)
	}
	if cfg.Output.Pipe && cfg.Output.Pcap == "" {
		return fmt.Errorf("%w: output.pipe requires output.pcap", ErrInvalid)
	}
	return nil
}
