package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Disks returns a deterministic disk count in [lo, hi] for a date using
// HMAC(salt, YYYY-MM-DD). A reversed range is swapped, and lo is clamped to 1.
func Disks(date time.Time, salt string, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	span := uint64(hi - lo + 1)
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	n := binary.BigEndian.Uint64(sum[:8])
	return lo + int(n%span)
}
