package pcap

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"utrinv/pkg/frame"
)

const (
	snapLen uint32 = 65535

	// DLTUser0 carries bare frames with no direction information.
	DLTUser0 = layers.LinkType(147)
	// DLTRTACSer prefixes each frame with a 12-byte RTAC Serial header that
	// Wireshark uses to tell host commands from reader responses.
	DLTRTACSer = layers.LinkType(250)

	RTACHeaderLen = 12
)

// Writer writes protocol frames in libpcap format.
type Writer struct {
	w    *pcapgo.Writer
	link layers.LinkType
}

// NewWriter creates a Writer and writes the pcap global header.
func NewWriter(w io.Writer, link layers.LinkType) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, link); err != nil {
		return nil, err
	}
	return &Writer{w: pw, link: link}, nil
}

// LinkType returns the link type written in the global header.
func (pw *Writer) LinkType() layers.LinkType { return pw.link }

// WritePacket writes a single packet with its timestamp and raw data.
func (pw *Writer) WritePacket(ts time.Time, data []byte) error {
	return pw.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}, data)
}

// Record writes one frame, tagging its direction when the link type
// carries an RTAC header.
func (pw *Writer) Record(ts time.Time, dir frame.Direction, data []byte) error {
	if pw.link != DLTRTACSer {
		return pw.WritePacket(ts, data)
	}
	pkt := make([]byte, 0, RTACHeaderLen+len(data))
	pkt = append(pkt, RTACHeader(ts, byte(dir))...)
	pkt = append(pkt, data...)
	return pw.WritePacket(ts, pkt)
}

// RTACHeader builds a 12-byte RTAC Serial header (big-endian) for the given
// timestamp and event type.
func RTACHeader(ts time.Time, eventType byte) []byte {
	hdr := make([]byte, RTACHeaderLen)
	binary.BigEndian.PutUint32(hdr[0:4], uint32(ts.Unix()))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(ts.Nanosecond()/1000))
	hdr[8] = eventType
	return hdr
}
