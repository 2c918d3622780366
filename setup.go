package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"utrinv/pkg/command"
	"utrinv/pkg/decoder"
	"utrinv/pkg/frame"
	"utrinv/pkg/session"
)

var ErrNoResponse = errors.New("reader did not answer")

// exchange sends c and returns its closing ACK/NACK frame. A missing
// terminal frame is only an error when required is set.
func exchange(sess *session.Session, log zerolog.Logger, c command.Command, required bool) (frame.Frame, bool, error) {
	resp, err := sess.Do(c)
	if err != nil {
		return frame.Frame{}, false, fmt.Errorf("%s: %w", c.Name, err)
	}
	t, ok := resp.Terminal()
	if !ok {
		if required {
			return frame.Frame{}, false, fmt.Errorf("%s: %w", c.Name, ErrNoResponse)
		}
		log.Warn().Str("command", c.Name).Msg("no response")
		return frame.Frame{}, false, nil
	}
	if t.Command() == frame.CmdNACK {
		d := decoder.DecodeNack(t)
		log.Warn().
			Str("command", c.Name).
			Str("code", fmt.Sprintf("0x%02X", d.Code)).
			Str("category", string(d.Category)).
			Msg(d.Message)
		return t, false, nil
	}
	return t, true, nil
}

// runSetup performs the start-of-session handshake: confirm the reader
// answers, put it in command mode, then report its radio settings and
// reset the inventory parameters.
func runSetup(sess *session.Session, log zerolog.Logger) error {
	t, acked, err := exchange(sess, log, command.ROMVersion, true)
	if err != nil {
		return err
	}
	if acked {
		if decoder.IsROMVersionAck(t) {
			log.Info().Str("rom", fmt.Sprintf("% X", t.Payload()[1:])).Msg("reader found")
		} else {
			log.Warn().Str("frame", t.String()).Msg("unexpected ROM version reply")
		}
	}

	if _, _, err := exchange(sess, log, command.CommandMode, true); err != nil {
		return err
	}

	if t, acked, err := exchange(sess, log, command.ReadOutputPower, false); err != nil {
		return err
	} else if acked {
		if p, err := decoder.OutputPower(t); err != nil {
			log.Warn().Err(err).Msg("output power")
		} else {
			log.Info().Str("power", p.String()).Msg("output power")
		}
	}

	if t, acked, err := exchange(sess, log, command.ReadFrequencyChannel, false); err != nil {
		return err
	} else if acked {
		ch, mhz, err := decoder.FrequencyChannel(t)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("frequency channel")
		case mhz == 0:
			log.Info().Int("channel", ch).Msg("frequency channel (unmapped)")
		default:
			log.Info().Int("channel", ch).Float64("mhz", mhz).Msg("frequency channel")
		}
	}

	for _, c := range []command.Command{command.GetInventoryParam, command.SetInventoryParam} {
		if t, acked, err := exchange(sess, log, c, false); err != nil {
			return err
		} else if acked {
			log.Debug().Str("command", c.Name).Str("reply", t.String()).Msg("ok")
		}
	}
	return nil
}
