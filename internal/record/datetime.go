package record

import (
	"fmt"
	"time"
)

const (
	TicksPerSecond = 10_000_000

	// seconds between 0001-01-01T00:00:00Z and the Unix epoch
	ticksEpochUnix = -62135596800

	ticksMask    = 0x3FFFFFFFFFFFFFFF
	ticksKindUTC = int64(1) << 62
)

// Range of instants a tick count can represent.
var (
	MinDateTime = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxDateTime = time.Date(9999, 12, 31, 23, 59, 59, 999_999_900, time.UTC)
)

// Ticks serializes t as a count of 100ns ticks since 0001-01-01 UTC with the
// UTC kind bit set. Sub-tick precision is truncated. Instants outside
// [MinDateTime, MaxDateTime] fail with ErrDateTimeRange.
func Ticks(t time.Time) (int64, error) {
	if t.Before(MinDateTime) || t.After(MaxDateTime) {
		return 0, fmt.Errorf("%w: %s", ErrDateTimeRange, t.UTC().Format(time.RFC3339Nano))
	}
	t = t.UTC()
	secs := t.Unix() - ticksEpochUnix
	ticks := secs*TicksPerSecond + int64(t.Nanosecond()/100)
	return ticks | ticksKindUTC, nil
}

// TimeFromTicks is the inverse of Ticks. Kind bits are ignored and the result
// is always in UTC.
func TimeFromTicks(v int64) time.Time {
	ticks := v & ticksMask
	secs := ticks / TicksPerSecond
	rem := ticks % TicksPerSecond
	return time.Unix(secs+ticksEpochUnix, rem*100).UTC()
}
