package frame

import "slices"

// compactAt is the consumed-prefix size past which Feed shifts the buffer
// down instead of letting it grow.
const compactAt = 4096

// ScanResult is the outcome of scanning a byte span for frames.
type ScanResult struct {
	Frames   []Frame
	Consumed int  // bytes before the first unscanned byte
	Dropped  int  // bytes discarded while resynchronizing
	Terminal bool // last frame is an ACK or NACK
}

// Scan extracts validated frames from the front of data, stopping after the
// first ACK/NACK frame or when the remaining bytes cannot yet form a frame.
// data is never modified; calling Scan twice on the same input yields the
// same result.
//
// Any structural mismatch (bad terminator, end marker or checksum) discards
// exactly one leading byte and rescans, so a valid frame hidden one byte
// into a burst of noise is never skipped. A frame that is merely incomplete
// is left in place.
func Scan(data []byte) ScanResult {
	var res ScanResult
	for res.Consumed < len(data) {
		f, consumed, dropped, ok := next(data[res.Consumed:])
		res.Consumed += consumed
		res.Dropped += dropped
		if !ok {
			break
		}
		res.Frames = append(res.Frames, f)
		if f.IsTerminal() {
			res.Terminal = true
			break
		}
	}
	return res
}

// next finds the first valid frame in buf. consumed covers the dropped noise
// plus the frame itself; when ok is false it covers only the dropped noise.
func next(buf []byte) (f Frame, consumed, dropped int, ok bool) {
	i := 0
	for i < len(buf) {
		if buf[i] != STX {
			i++
			dropped++
			continue
		}
		rest := buf[i:]
		if len(rest) < HeaderLen {
			break
		}
		total := TotalLen(rest[offLength])
		if len(rest) < total {
			break
		}
		if validate(rest[:total]) != nil {
			i++
			dropped++
			continue
		}
		raw := make([]byte, total)
		copy(raw, rest[:total])
		return Frame{raw: raw}, i + total, dropped, true
	}
	return Frame{}, i, dropped, false
}

// Reassembler turns incrementally fed bytes into validated frames for one
// command/response exchange. It keeps an append-only buffer with a read
// cursor; scanning never mutates the bytes being indexed.
//
// A Reassembler is not safe for concurrent use. Use one per exchange.
type Reassembler struct {
	buf     []byte
	off     int
	frames  []Frame
	dropped int
	done    bool
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{buf: make([]byte, 0, MaxLen)}
}

// Feed appends bytes received from the transport.
func (r *Reassembler) Feed(p []byte) {
	if r.off > 0 && (r.off == len(r.buf) || r.off >= compactAt) {
		n := copy(r.buf, r.buf[r.off:])
		r.buf = r.buf[:n]
		r.off = 0
	}
	r.buf = append(r.buf, p...)
}

// Advance scans the buffered bytes and returns the frames completed by this
// call. Once a terminal frame has been produced Advance returns nil and the
// remaining bytes are left unscanned.
func (r *Reassembler) Advance() []Frame {
	if r.done {
		return nil
	}
	res := Scan(r.buf[r.off:])
	r.off += res.Consumed
	r.dropped += res.Dropped
	r.done = res.Terminal
	r.frames = append(r.frames, res.Frames...)
	return slices.Clip(res.Frames)
}

// Frames returns every frame produced so far, in arrival order.
func (r *Reassembler) Frames() []Frame {
	return slices.Clone(r.frames)
}

// Done reports whether a terminal ACK/NACK frame has been produced.
func (r *Reassembler) Done() bool { return r.done }

// Dropped returns the number of noise bytes discarded during resync.
func (r *Reassembler) Dropped() int { return r.dropped }

// Pending returns the number of buffered bytes not yet consumed.
func (r *Reassembler) Pending() int { return len(r.buf) - r.off }
