package pcap

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/google/gopacket/pcapgo"

	"utrinv/pkg/frame"
)

func TestGlobalHeader(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, DLTRTACSer)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	b := buf.Bytes()
	if len(b) != 24 {
		t.Fatalf("global header length = %d, want 24", len(b))
	}

	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != 0xa1b2c3d4 {
		t.Errorf("magic = 0x%08x, want 0xa1b2c3d4", magic)
	}

	major := binary.LittleEndian.Uint16(b[4:6])
	if major != 2 {
		t.Errorf("version major = %d, want 2", major)
	}

	minor := binary.LittleEndian.Uint16(b[6:8])
	if minor != 4 {
		t.Errorf("version minor = %d, want 4", minor)
	}

	snaplen := binary.LittleEndian.Uint32(b[16:20])
	if snaplen != 65535 {
		t.Errorf("snaplen = %d, want 65535", snaplen)
	}

	linkType := binary.LittleEndian.Uint32(b[20:24])
	if linkType != 250 {
		t.Errorf("link type = %d, want 250", linkType)
	}
}

func TestRecordRTAC(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, DLTRTACSer)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	ts := time.Date(2025, 1, 15, 10, 30, 45, 123456789, time.UTC)
	cmd := []byte{0x02, 0x00, 0x55, 0x01, 0x10, 0x03, 0x6B, 0x0D}
	ack := []byte{0x02, 0x00, 0x30, 0x01, 0x10, 0x03, 0x46, 0x0D}

	if err := w.Record(ts, frame.DirTX, cmd); err != nil {
		t.Fatalf("Record TX: %v", err)
	}
	if err := w.Record(ts.Add(5*time.Millisecond), frame.DirRX, ack); err != nil {
		t.Fatalf("Record RX: %v", err)
	}

	r, err := pcapgo.NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.LinkType() != DLTRTACSer {
		t.Errorf("link type = %d, want %d", r.LinkType(), DLTRTACSer)
	}

	tests := []struct {
		dir  frame.Direction
		data []byte
		ts   time.Time
	}{
		{frame.DirTX, cmd, ts},
		{frame.DirRX, ack, ts.Add(5 * time.Millisecond)},
	}
	for i, tt := range tests {
		data, ci, err := r.ReadPacketData()
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if len(data) != RTACHeaderLen+len(tt.data) {
			t.Fatalf("packet %d length = %d, want %d", i, len(data), RTACHeaderLen+len(tt.data))
		}
		if data[8] != byte(tt.dir) {
			t.Errorf("packet %d event type = %d, want %d", i, data[8], tt.dir)
		}
		if !bytes.Equal(data[RTACHeaderLen:], tt.data) {
			t.Errorf("packet %d data = %x, want %x", i, data[RTACHeaderLen:], tt.data)
		}
		if ci.Timestamp.UnixMicro() != tt.ts.UnixMicro() {
			t.Errorf("packet %d ts = %v, want %v", i, ci.Timestamp, tt.ts)
		}
		if sec := binary.BigEndian.Uint32(data[0:4]); sec != uint32(tt.ts.Unix()) {
			t.Errorf("packet %d header sec = %d, want %d", i, sec, tt.ts.Unix())
		}
		if usec := binary.BigEndian.Uint32(data[4:8]); usec != uint32(tt.ts.Nanosecond()/1000) {
			t.Errorf("packet %d header usec = %d", i, usec)
		}
	}
}

func TestRecordUser0IsBare(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, DLTUser0)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	data := []byte{0x02, 0x00, 0x30, 0x00, 0x03, 0x35, 0x0D}
	if err := w.Record(time.Unix(1700000000, 0), frame.DirRX, data); err != nil {
		t.Fatalf("Record: %v", err)
	}

	r, err := pcapgo.NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, _, err := r.ReadPacketData()
	if err != nil {
		t.Fatalf("ReadPacketData: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("packet data = %x, want %x", got, data)
	}
}

func TestRTACHeader(t *testing.T) {
	ts := time.Unix(0x01020304, 5000)
	hdr := RTACHeader(ts, 0x02)
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x00, 0x05, 0x02, 0x00, 0x00, 0x00}
	if !bytes.Equal(hdr, want) {
		t.Errorf("RTACHeader() = %x, want %x", hdr, want)
	}
}
