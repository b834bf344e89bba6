package lifecycle

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Numberer issues bill numbers. Numbers are not guaranteed unique; the
// caller checks the store and asks again on a collision.
type Numberer interface {
	Next(now time.Time) string
}

// TimestampNumberer forms 12 digits: the low 8 digits of the Unix
// millisecond timestamp followed by a 4 digit random suffix.
type TimestampNumberer struct {
	intn func(n int) int
}

func NewTimestampNumberer() *TimestampNumberer {
	return &TimestampNumberer{intn: rand.IntN}
}

func (n *TimestampNumberer) Next(now time.Time) string {
	low := now.UnixMilli() % 100_000_000
	return fmt.Sprintf("%08d%04d", low, n.intn(10_000))
}
