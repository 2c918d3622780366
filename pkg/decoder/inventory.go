package decoder

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"utrinv/pkg/frame"
)

// Inventory response layout, as offsets from the start of the frame:
//
//	4     detail
//	5..7  RSSI, big-endian signed tenths of a dBm
//	7     antenna angle
//	8     n, PC+UII length
//	9..   PC+UII (n bytes)
const (
	invOffRSSI  = 5
	invOffAngle = 7
	invOffIDLen = 8
	invOffID    = 9

	ackOffCount = 6
)

var (
	ErrNotInventory      = errors.New("decoder: not an inventory frame")
	ErrShortInventory    = errors.New("decoder: inventory frame too short")
	ErrIdentifierOverrun = errors.New("decoder: identifier length exceeds payload")
	ErrNotInventoryAck   = errors.New("decoder: not an inventory acknowledgment")
	ErrShortAck          = errors.New("decoder: acknowledgment too short")
)

// TagRead is one tag observed in one inventory response.
type TagRead struct {
	Identifier []byte // PC+UII
	RSSI       DBm
	Angle      byte
}

// ID returns the identifier as upper-case hex.
func (t TagRead) ID() string {
	return strings.ToUpper(hex.EncodeToString(t.Identifier))
}

// DecodeInventory extracts the tag carried by an inventory response frame.
// A declared identifier length running past the payload is reported as
// ErrIdentifierOverrun rather than read out of bounds.
func DecodeInventory(f frame.Frame) (TagRead, error) {
	if f.Command() != frame.CmdInventory {
		return TagRead{}, fmt.Errorf("%w: command 0x%02X", ErrNotInventory, f.Command())
	}
	b := f.Bytes()
	payloadEnd := frame.HeaderLen + f.PayloadLen()
	if payloadEnd < invOffID {
		return TagRead{}, fmt.Errorf("%w: payload %d bytes", ErrShortInventory, f.PayloadLen())
	}
	n := int(b[invOffIDLen])
	if invOffID+n > payloadEnd {
		return TagRead{}, fmt.Errorf("%w: n=%d, payload %d bytes", ErrIdentifierOverrun, n, f.PayloadLen())
	}
	id := make([]byte, n)
	copy(id, b[invOffID:invOffID+n])
	return TagRead{
		Identifier: id,
		RSSI:       RSSI(b[invOffRSSI], b[invOffRSSI+1]),
		Angle:      b[invOffAngle],
	}, nil
}

// DecodeInventoryAck returns the tag count an inventory acknowledgment
// announces, stored little-endian at frame bytes 6..8.
func DecodeInventoryAck(f frame.Frame) (uint16, error) {
	if Classify(f) != KindInventoryAck {
		return 0, ErrNotInventoryAck
	}
	b := f.Bytes()
	if frame.HeaderLen+f.PayloadLen() < ackOffCount+2 {
		return 0, fmt.Errorf("%w: payload %d bytes", ErrShortAck, f.PayloadLen())
	}
	return binary.LittleEndian.Uint16(b[ackOffCount : ackOffCount+2]), nil
}
