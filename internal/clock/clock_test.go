package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodayTruncatesToUTCDate(t *testing.T) {
	loc := time.FixedZone("COT", -5*3600)
	fake := NewFakeClock(time.Date(2025, 3, 10, 22, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), Today(fake))

	fake.Advance(2 * time.Hour)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), Today(fake))

	fake.Set(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2026, Today(fake).Year())
}
