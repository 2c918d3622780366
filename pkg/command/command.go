// Package command holds the reader commands the tool sends. Payloads are
// opaque to the decoder; they are kept here so every frame on the wire is
// built by frame.Encode instead of being hand-assembled.
package command

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"utrinv/pkg/frame"
)

// Opcodes sent by the host.
const (
	OpCommandMode byte = 0x4E
	OpROMVersion  byte = 0x4F
	OpBuzzer      byte = 0x42
	OpUHF         byte = 0x55
)

// Command is a named request frame.
type Command struct {
	Name    string
	Summary string
	Op      byte
	Payload []byte
}

// Bytes encodes the command for the given reader address.
func (c Command) Bytes(address byte) []byte {
	b, err := frame.Encode(address, c.Op, c.Payload)
	if err != nil {
		// Payloads in the table are fixed and short.
		panic(fmt.Sprintf("command %s: %v", c.Name, err))
	}
	return b
}

var (
	ROMVersion = Command{
		Name:    "rom-version",
		Summary: "read the firmware ROM version",
		Op:      OpROMVersion,
		Payload: []byte{0x90},
	}
	CommandMode = Command{
		Name:    "command-mode",
		Summary: "switch the reader to request/response command mode",
		Op:      OpCommandMode,
		Payload: []byte{0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00},
	}
	Inventory = Command{
		Name:    "inventory",
		Summary: "run one UHF inventory round",
		Op:      OpUHF,
		Payload: []byte{0x10},
	}
	GetInventoryParam = Command{
		Name:    "get-inventory-param",
		Summary: "read inventory parameters",
		Op:      OpUHF,
		Payload: []byte{0x41, 0x00},
	}
	SetInventoryParam = Command{
		Name:    "set-inventory-param",
		Summary: "write default inventory parameters",
		Op:      OpUHF,
		Payload: []byte{0x30, 0x00, 0x81, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	}
	ReadOutputPower = Command{
		Name:    "read-output-power",
		Summary: "read transmit output power",
		Op:      OpUHF,
		Payload: []byte{0x43, 0x01, 0x00},
	}
	ReadFrequencyChannel = Command{
		Name:    "read-frequency-channel",
		Summary: "read transmit frequency channel",
		Op:      OpUHF,
		Payload: []byte{0x43, 0x02, 0x00},
	}
	BuzzerBeep = Command{
		Name:    "buzzer-beep",
		Summary: "sound one long beep",
		Op:      OpBuzzer,
		Payload: []byte{0x01, 0x00},
	}
	BuzzerTriple = Command{
		Name:    "buzzer-triple",
		Summary: "sound three short beeps",
		Op:      OpBuzzer,
		Payload: []byte{0x01, 0x01},
	}
)

var table = map[string]Command{}

func init() {
	for _, c := range []Command{
		ROMVersion, CommandMode, Inventory, GetInventoryParam, SetInventoryParam,
		ReadOutputPower, ReadFrequencyChannel, BuzzerBeep, BuzzerTriple,
	} {
		table[c.Name] = c
	}
}

// Lookup returns the command with the given name.
func Lookup(name string) (Command, bool) {
	c, ok := table[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// All returns every command sorted by name.
func All() []Command {
	out := make([]Command, 0, len(table))
	for _, c := range table {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve turns a command name or a hex string into wire bytes. Hex input
// must already be a complete, valid frame.
func Resolve(arg string, address byte) ([]byte, error) {
	if c, ok := Lookup(arg); ok {
		return c.Bytes(address), nil
	}
	clean := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(arg)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("unknown command %q", arg)
	}
	if _, err := frame.Parse(b); err != nil {
		return nil, fmt.Errorf("raw command %q: %w", arg, err)
	}
	return b, nil
}
