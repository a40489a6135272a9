package util

import "math/bits"

// IsPowerOfTwo reports whether x is a power of two (> 0).
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && (x&(x-1)) == 0
}

// NextPow2 returns the smallest power of two >= x.
// Special cases:
//   - x == 0  -> 1
//   - if the exact next power would overflow 64 bits, the result is clamped to 1<<63
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	if x > 1<<63 {
		return 1 << 63
	}
	return 1 << (64 - bits.LeadingZeros64(x-1))
}

// MustPowerOfTwo panics unless n is a positive power of two.
// what names the offending parameter in the panic message.
func MustPowerOfTwo(what string, n int) {
	if n <= 0 || !IsPowerOfTwo(uint64(n)) {
		panic(what + " must be a positive power of two")
	}
}
