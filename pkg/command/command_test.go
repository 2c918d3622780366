package command

import (
	"bytes"
	"errors"
	"testing"

	"utrinv/pkg/frame"
)

// Frames as documented for the reader at address 0x00.
func TestCommandBytes(t *testing.T) {
	tests := []struct {
		cmd  Command
		want []byte
	}{
		{ROMVersion, []byte{0x02, 0x00, 0x4F, 0x01, 0x90, 0x03, 0xE5, 0x0D}},
		{CommandMode, []byte{0x02, 0x00, 0x4E, 0x07, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x03, 0x6A, 0x0D}},
		{Inventory, []byte{0x02, 0x00, 0x55, 0x01, 0x10, 0x03, 0x6B, 0x0D}},
		{GetInventoryParam, []byte{0x02, 0x00, 0x55, 0x02, 0x41, 0x00, 0x03, 0x9D, 0x0D}},
		{SetInventoryParam, []byte{0x02, 0x00, 0x55, 0x09, 0x30, 0x00, 0x81, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0x14, 0x0D}},
		{ReadOutputPower, []byte{0x02, 0x00, 0x55, 0x03, 0x43, 0x01, 0x00, 0x03, 0xA1, 0x0D}},
		{ReadFrequencyChannel, []byte{0x02, 0x00, 0x55, 0x03, 0x43, 0x02, 0x00, 0x03, 0xA2, 0x0D}},
		{BuzzerBeep, []byte{0x02, 0x00, 0x42, 0x02, 0x01, 0x00, 0x03, 0x4A, 0x0D}},
		{BuzzerTriple, []byte{0x02, 0x00, 0x42, 0x02, 0x01, 0x01, 0x03, 0x4B, 0x0D}},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Name, func(t *testing.T) {
			got := tt.cmd.Bytes(0x00)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Bytes() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestCommandBytesAddress(t *testing.T) {
	b := Inventory.Bytes(0x05)
	f, err := frame.Parse(b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Address() != 0x05 {
		t.Errorf("Address() = 0x%02X, want 0x05", f.Address())
	}
}

func TestLookup(t *testing.T) {
	c, ok := Lookup(" Inventory ")
	if !ok || c.Op != OpUHF {
		t.Fatalf("Lookup(inventory) = %+v, %v", c, ok)
	}
	if _, ok := Lookup("uhf-write"); ok {
		t.Error("Lookup(uhf-write) found a command")
	}
	if n := len(All()); n != 9 {
		t.Errorf("All() len = %d, want 9", n)
	}
}

func TestResolve(t *testing.T) {
	b, err := Resolve("rom-version", 0x00)
	if err != nil {
		t.Fatalf("Resolve(name): %v", err)
	}
	if !bytes.Equal(b, ROMVersion.Bytes(0x00)) {
		t.Errorf("Resolve(name) = %x", b)
	}

	b, err = Resolve("02 00 55 01 10 03 6B 0D", 0x00)
	if err != nil {
		t.Fatalf("Resolve(hex): %v", err)
	}
	if !bytes.Equal(b, Inventory.Bytes(0x00)) {
		t.Errorf("Resolve(hex) = %x", b)
	}

	if _, err := Resolve("02005501100300 0D", 0x00); !errors.Is(err, frame.ErrChecksum) {
		t.Errorf("Resolve(bad checksum) err = %v, want ErrChecksum", err)
	}
	if _, err := Resolve("not-a-command", 0x00); err == nil {
		t.Error("Resolve(not-a-command) err = nil")
	}
}
