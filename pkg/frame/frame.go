package frame

import (
	"errors"
	"fmt"
)

// Wire markers and sizes.
const (
	STX byte = 0x02 // start marker
	ETX byte = 0x03 // end-of-text marker
	CR  byte = 0x0D // terminator

	HeaderLen  = 4 // STX, address, command, length
	TrailerLen = 3 // ETX, checksum, CR
	MinLen     = HeaderLen + TrailerLen
	MaxPayload = 255
	MaxLen     = MinLen + MaxPayload
)

// Command opcodes the decoder understands. Everything else is passed through.
const (
	CmdACK       byte = 0x30
	CmdNACK      byte = 0x31
	CmdInventory byte = 0x6C
)

// Offsets into a raw frame.
const (
	offAddress = 1
	offCommand = 2
	offLength  = 3
	offPayload = 4
)

var (
	ErrShort           = errors.New("frame: shorter than header and trailer")
	ErrStartMarker     = errors.New("frame: missing start marker")
	ErrLength          = errors.New("frame: length field does not match frame size")
	ErrEndMarker       = errors.New("frame: missing end marker")
	ErrTerminator      = errors.New("frame: missing terminator")
	ErrChecksum        = errors.New("frame: checksum mismatch")
	ErrPayloadTooLarge = errors.New("frame: payload exceeds 255 bytes")
)

// Direction classifies a captured frame as sent to or received from the
// reader. The values match the RTAC Serial event type byte.
type Direction uint8

const (
	DirUnknown Direction = 0x00 // STATUS_CHANGE
	DirTX      Direction = 0x01 // DATA_TX_START
	DirRX      Direction = 0x02 // DATA_RX_START
)

// Frame is one validated protocol message, start marker to terminator
// inclusive. The zero value is not a valid frame; obtain one from Parse, New
// or a Reassembler.
type Frame struct {
	raw []byte
}

// Parse validates b as exactly one frame and returns it. The returned Frame
// owns a copy of b.
func Parse(b []byte) (Frame, error) {
	if err := validate(b); err != nil {
		return Frame{}, err
	}
	raw := make([]byte, len(b))
	copy(raw, b)
	return Frame{raw: raw}, nil
}

// New encodes and returns a frame for the given fields.
func New(address, command byte, payload []byte) (Frame, error) {
	b, err := Encode(address, command, payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{raw: b}, nil
}

// Encode builds the wire bytes for a frame, computing its checksum.
func Encode(address, command byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d", ErrPayloadTooLarge, len(payload))
	}
	b := make([]byte, 0, MinLen+len(payload))
	b = append(b, STX, address, command, byte(len(payload)))
	b = append(b, payload...)
	b = append(b, ETX)
	b = append(b, Checksum(b), CR)
	return b, nil
}

// validate checks every structural invariant of a complete frame.
func validate(b []byte) error {
	if len(b) < MinLen {
		return ErrShort
	}
	if b[0] != STX {
		return ErrStartMarker
	}
	if TotalLen(b[offLength]) != len(b) {
		return ErrLength
	}
	if b[len(b)-1] != CR {
		return ErrTerminator
	}
	if b[len(b)-3] != ETX {
		return ErrEndMarker
	}
	if !Verify(b) {
		return ErrChecksum
	}
	return nil
}

// TotalLen returns the full wire length of a frame whose length field is n.
func TotalLen(n byte) int {
	return HeaderLen + int(n) + TrailerLen
}

func (f Frame) Address() byte  { return f.raw[offAddress] }
func (f Frame) Command() byte  { return f.raw[offCommand] }
func (f Frame) Len() int       { return len(f.raw) }
func (f Frame) Checksum() byte { return f.raw[len(f.raw)-2] }

// PayloadLen returns the declared payload length.
func (f Frame) PayloadLen() int { return int(f.raw[offLength]) }

// Payload returns a copy of the payload bytes.
func (f Frame) Payload() []byte {
	p := make([]byte, f.PayloadLen())
	copy(p, f.raw[offPayload:offPayload+f.PayloadLen()])
	return p
}

// Detail returns the first payload byte, used by the reader as a sub-opcode.
// ok is false when the payload is empty.
func (f Frame) Detail() (d byte, ok bool) {
	if f.PayloadLen() == 0 {
		return 0, false
	}
	return f.raw[offPayload], true
}

// Bytes returns a copy of the raw frame.
func (f Frame) Bytes() []byte {
	b := make([]byte, len(f.raw))
	copy(b, f.raw)
	return b
}

// IsTerminal reports whether the frame ends a command's response sequence.
func (f Frame) IsTerminal() bool {
	c := f.Command()
	return c == CmdACK || c == CmdNACK
}

func (f Frame) String() string {
	return fmt.Sprintf("% X", f.raw)
}
