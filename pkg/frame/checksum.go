package frame

// Checksum returns the low 8 bits of the sum of b. Overflow wraps.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// Verify treats the last two bytes of b as checksum and terminator and
// compares the checksum against the sum of everything before them.
func Verify(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	n := len(b) - 2
	return Checksum(b[:n]) == b[n]
}
