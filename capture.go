package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/rs/zerolog"

	"utrinv/pkg/config"
	"utrinv/pkg/frame"
	"utrinv/pkg/pcap"
	"utrinv/pkg/session"
)

// captureRecorder forwards frames to a pcap writer and goes quiet once the
// reading end of a pipe has gone away.
type captureRecorder struct {
	pw      *pcap.Writer
	log     zerolog.Logger
	packets int
	broken  bool
}

func (c *captureRecorder) Record(ts time.Time, dir frame.Direction, data []byte) error {
	if c.broken {
		return nil
	}
	if err := c.pw.Record(ts, dir, data); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			c.broken = true
			c.log.Warn().Msg("pipe closed by reader")
			return nil
		}
		return err
	}
	c.packets++
	return nil
}

func linkType(name string) layers.LinkType {
	if name == "user0" {
		return pcap.DLTUser0
	}
	return pcap.DLTRTACSer
}

// openCapture prepares the optional capture output. The returned recorder
// is nil when capture is off; the cleanup func is always safe to call.
func openCapture(out config.OutputConfig, log zerolog.Logger) (session.Recorder, func(), error) {
	if out.Pcap == "" {
		return nil, func() {}, nil
	}

	var (
		f   *os.File
		err error
	)
	if out.Pipe {
		log.Info().Str("pipe", out.Pcap).Msg("waiting for reader")
		f, err = createPipe(out.Pcap)
		if err != nil {
			return nil, func() {}, fmt.Errorf("create pipe: %w", err)
		}
	} else {
		f, err = os.Create(out.Pcap)
		if err != nil {
			return nil, func() {}, fmt.Errorf("create output file: %w", err)
		}
	}

	pw, err := pcap.NewWriter(f, linkType(out.Link))
	if err != nil {
		_ = f.Close()
		if out.Pipe {
			removePipe(out.Pcap)
		}
		return nil, func() {}, fmt.Errorf("write pcap header: %w", err)
	}

	rec := &captureRecorder{pw: pw, log: log}
	cleanup := func() {
		_ = f.Close()
		if out.Pipe {
			removePipe(out.Pcap)
		}
		log.Info().Int("packets", rec.packets).Str("file", out.Pcap).Msg("capture closed")
	}
	log.Info().Str("file", out.Pcap).Str("link", out.Link).Msg("capturing")
	return rec, cleanup, nil
}
