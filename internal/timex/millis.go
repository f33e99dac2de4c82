package timex

import "time"

// ToMillis converts t to unix milliseconds. The zero time maps to 0 so that
// "never" survives a round trip through a BIGINT column.
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis is the inverse of ToMillis.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
