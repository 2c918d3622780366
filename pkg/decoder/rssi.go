package decoder

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DBm is a signal strength in decibel-milliwatts with one decimal place of
// precision.
type DBm float64

func (d DBm) String() string {
	return fmt.Sprintf("%.1f dBm", float64(d))
}

// RSSI converts a two-byte big-endian two's-complement field, in tenths of
// a dBm, to a DBm value. 0xFFCE is -5.0 dBm and 0x0032 is 5.0 dBm.
func RSSI(hi, lo byte) DBm {
	raw := int16(binary.BigEndian.Uint16([]byte{hi, lo}))
	return DBm(float64(raw) / 10.0)
}

// EncodeRSSI is the inverse of RSSI, rounding to the nearest tenth.
// Values outside the field's range of -3276.8 to 3276.7 dBm saturate.
func EncodeRSSI(d DBm) (hi, lo byte) {
	v := math.Round(float64(d) * 10)
	v = math.Max(math.MinInt16, math.Min(math.MaxInt16, v))
	raw := uint16(int16(v))
	return byte(raw >> 8), byte(raw)
}
