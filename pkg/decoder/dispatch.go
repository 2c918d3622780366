package decoder

import (
	"fmt"

	"utrinv/pkg/frame"
)

// Detail bytes the reader echoes in acknowledgments.
const (
	DetailInventory  byte = 0x10
	DetailROMVersion byte = 0x90
)

// Kind classifies a validated frame for routing.
type Kind uint8

const (
	KindOther Kind = iota
	KindInventory
	KindInventoryAck
	KindAck
	KindNack
)

func (k Kind) String() string {
	switch k {
	case KindInventory:
		return "inventory"
	case KindInventoryAck:
		return "inventory-ack"
	case KindAck:
		return "ack"
	case KindNack:
		return "nack"
	default:
		return "other"
	}
}

// Classify routes a frame by its command and detail bytes.
func Classify(f frame.Frame) Kind {
	switch f.Command() {
	case frame.CmdInventory:
		return KindInventory
	case frame.CmdACK:
		if d, ok := f.Detail(); ok && d == DetailInventory {
			return KindInventoryAck
		}
		return KindAck
	case frame.CmdNACK:
		return KindNack
	default:
		return KindOther
	}
}

// Result is the decoded form of one frame. Only the fields matching Kind
// are set.
type Result struct {
	Kind          Kind
	Tag           TagRead
	ExpectedCount uint16
	Nack          NackDiagnostic
	Err           error
}

// Dispatch classifies f and runs the matching decoder. Frames of other
// kinds pass through with only Kind set.
func Dispatch(f frame.Frame) Result {
	res := Result{Kind: Classify(f)}
	switch res.Kind {
	case KindInventory:
		res.Tag, res.Err = DecodeInventory(f)
	case KindInventoryAck:
		res.ExpectedCount, res.Err = DecodeInventoryAck(f)
	case KindNack:
		res.Nack = DecodeNack(f)
	}
	return res
}

// Burst aggregates the decoded frames of one command/response exchange.
type Burst struct {
	Tags          []TagRead
	ExpectedCount uint16
	HasExpected   bool
	Nack          *NackDiagnostic
	Acked         bool
	Failures      []error // frames that validated but could not be decoded
	Passthrough   int     // frames of kinds the decoder does not interpret
}

// Mismatch reports whether an inventory acknowledgment announced a tag
// count different from the number of tags decoded.
func (b Burst) Mismatch() bool {
	return b.HasExpected && int(b.ExpectedCount) != len(b.Tags)
}

func (b Burst) String() string {
	s := fmt.Sprintf("%d tags", len(b.Tags))
	if b.HasExpected {
		s += fmt.Sprintf(" (expected %d)", b.ExpectedCount)
	}
	if b.Nack != nil {
		s += ", NACK " + b.Nack.String()
	}
	if n := len(b.Failures); n > 0 {
		s += fmt.Sprintf(", %d undecodable", n)
	}
	return s
}

// DecodeBurst decodes every frame of an exchange. A count mismatch or an
// undecodable frame is recorded in the result, never returned as an error.
func DecodeBurst(frames []frame.Frame) Burst {
	var b Burst
	for _, f := range frames {
		res := Dispatch(f)
		if res.Err != nil {
			b.Failures = append(b.Failures, res.Err)
			if res.Kind == KindInventoryAck {
				b.Acked = true
			}
			continue
		}
		switch res.Kind {
		case KindInventory:
			b.Tags = append(b.Tags, res.Tag)
		case KindInventoryAck:
			b.ExpectedCount = res.ExpectedCount
			b.HasExpected = true
			b.Acked = true
		case KindAck:
			b.Acked = true
		case KindNack:
			d := res.Nack
			b.Nack = &d
		default:
			b.Passthrough++
		}
	}
	return b
}
