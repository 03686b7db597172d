package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

func at(hour, min, sec int) time.Time {
	return time.Date(2026, 3, 10, hour, min, sec, 0, time.UTC)
}

func TestSchedulePolicy_LatenessBoundary(t *testing.T) {
	p := DefaultSchedulePolicy()

	assert.False(t, p.IsLate(at(8, 59, 59)))
	assert.False(t, p.IsLate(at(9, 0, 0)), "exactly 09:00:00 is on time")
	assert.True(t, p.IsLate(at(9, 0, 1)))
}

func TestSchedulePolicy_Window(t *testing.T) {
	p := DefaultSchedulePolicy()

	assert.False(t, p.WindowContains(at(5, 59, 59)))
	assert.True(t, p.WindowContains(at(6, 0, 0)))
	assert.True(t, p.WindowContains(at(13, 30, 0)))
	assert.True(t, p.WindowContains(at(20, 0, 0)))
	assert.False(t, p.WindowContains(at(20, 0, 1)))
}

func TestSchedulePolicy_CheckOutThresholdByCategory(t *testing.T) {
	p := DefaultSchedulePolicy()

	assert.True(t, p.IsEarlyCheckout(at(16, 30, 0), models.LocationCategoryBranch))
	assert.False(t, p.IsEarlyCheckout(at(17, 0, 0), models.LocationCategoryBranch))

	// Operational sites close at 16:00.
	assert.False(t, p.IsEarlyCheckout(at(16, 30, 0), models.LocationCategoryOperationalSite))
	assert.True(t, p.IsEarlyCheckout(at(15, 59, 59), models.LocationCategoryOperationalSite))

	assert.False(t, p.IsEarlyCheckout(at(17, 0, 0), "unknown_category"))
	assert.True(t, p.IsEarlyCheckout(at(16, 59, 59), "unknown_category"))
}
