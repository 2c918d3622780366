package session

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialConfig describes the physical link to the reader.
type SerialConfig struct {
	Port     string
	Baud     int
	DataBits int
	Parity   string // none, odd, even, mark, space
	StopBits int    // 1 or 2
	// Poll bounds each Read so the session deadline governs latency.
	Poll time.Duration
}

// SerialPort is a Transport over a serial device.
type SerialPort struct {
	serial.Port
	name string
}

// Name returns the device path the port was opened with.
func (p *SerialPort) Name() string { return p.name }

// OpenSerial opens and configures a serial port for polling reads, then
// discards anything left in the OS buffers from a previous session.
func OpenSerial(cfg SerialConfig) (*SerialPort, error) {
	parity, err := ParseParity(cfg.Parity)
	if err != nil {
		return nil, err
	}
	stopbits, err := ParseStopBits(cfg.StopBits)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
		Parity:   parity,
		StopBits: stopbits,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}

	poll := cfg.Poll
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	if err := port.SetReadTimeout(poll); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("reset input buffer: %w", err)
	}
	if err := port.ResetOutputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("reset output buffer: %w", err)
	}
	return &SerialPort{Port: port, name: cfg.Port}, nil
}

// ParseParity maps a parity name to its serial setting. Names are case
// insensitive and may be abbreviated to their first letter.
func ParseParity(s string) (serial.Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "n", "":
		return serial.NoParity, nil
	case "odd", "o":
		return serial.OddParity, nil
	case "even", "e":
		return serial.EvenParity, nil
	case "mark", "m":
		return serial.MarkParity, nil
	case "space", "s":
		return serial.SpaceParity, nil
	default:
		return serial.NoParity, fmt.Errorf("invalid parity %q: use none, odd, even, mark, or space", s)
	}
}

// ParseStopBits maps a stop bit count to its serial setting.
func ParseStopBits(n int) (serial.StopBits, error) {
	switch n {
	case 1, 0:
		return serial.OneStopBit, nil
	case 2:
		return serial.TwoStopBits, nil
	default:
		return serial.OneStopBit, fmt.Errorf("invalid stop bits %d: use 1 or 2", n)
	}
}

// PortInfo describes one serial device found on the host.
type PortInfo struct {
	Name        string
	Description string
	USB         bool
	VID, PID    string
	Serial      string
}

// ListPorts enumerates serial devices. USB details are filled in when the
// platform reports them.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		names, lerr := serial.GetPortsList()
		if lerr != nil {
			return nil, fmt.Errorf("list serial ports: %w", err)
		}
		out := make([]PortInfo, 0, len(names))
		for _, n := range names {
			out = append(out, PortInfo{Name: n})
		}
		return out, nil
	}
	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:        d.Name,
			Description: d.Product,
			USB:         d.IsUSB,
			VID:         d.VID,
			PID:         d.PID,
			Serial:      d.SerialNumber,
		})
	}
	return out, nil
}

func (p PortInfo) String() string {
	s := p.Name
	if p.Description != "" {
		s += " - " + p.Description
	}
	if p.USB {
		s += fmt.Sprintf(" [%s:%s]", p.VID, p.PID)
	}
	return s
}
