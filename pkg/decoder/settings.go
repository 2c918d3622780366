package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"utrinv/pkg/frame"
)

var (
	ErrNotAck       = errors.New("decoder: not an ACK frame")
	ErrShortSetting = errors.New("decoder: setting response too short")
)

// Offsets of reader setting values in ACK frames.
const (
	setOffValue = 7
)

// Channel numbering for the 916.0-923.4 MHz band, 200 kHz spacing.
const (
	FirstChannel = 1
	LastChannel  = 38
	baseFreqMHz  = 916.0
	channelMHz   = 0.2
)

// IsROMVersionAck reports whether f acknowledges a ROM version query.
func IsROMVersionAck(f frame.Frame) bool {
	d, ok := f.Detail()
	return f.Command() == frame.CmdACK && ok && d == DetailROMVersion
}

// OutputPower decodes a read-output-power acknowledgment. The level is an
// unsigned big-endian value in tenths of a dBm at frame bytes 7..9.
func OutputPower(f frame.Frame) (DBm, error) {
	b, err := settingBytes(f, 2)
	if err != nil {
		return 0, err
	}
	return DBm(float64(binary.BigEndian.Uint16(b)) / 10.0), nil
}

// FrequencyChannel decodes a read-frequency-channel acknowledgment. mhz is
// zero when the channel lies outside the known band.
func FrequencyChannel(f frame.Frame) (ch int, mhz float64, err error) {
	b, err := settingBytes(f, 1)
	if err != nil {
		return 0, 0, err
	}
	ch = int(b[0])
	return ch, ChannelMHz(ch), nil
}

// ChannelMHz returns the carrier frequency of channel ch, or zero when ch is
// out of range.
func ChannelMHz(ch int) float64 {
	if ch < FirstChannel || ch > LastChannel {
		return 0
	}
	// Round to 100 kHz to keep 916.0 + n*0.2 free of float noise.
	steps := float64(ch - FirstChannel)
	return float64(int64((baseFreqMHz+steps*channelMHz)*10+0.5)) / 10
}

func settingBytes(f frame.Frame, n int) ([]byte, error) {
	if f.Command() != frame.CmdACK {
		return nil, fmt.Errorf("%w: command 0x%02X", ErrNotAck, f.Command())
	}
	if frame.HeaderLen+f.PayloadLen() < setOffValue+n {
		return nil, fmt.Errorf("%w: payload %d bytes", ErrShortSetting, f.PayloadLen())
	}
	return f.Bytes()[setOffValue : setOffValue+n], nil
}
