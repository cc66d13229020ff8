package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToday_WindowBounds(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, time.March, 9, 14, 30, 0, 0, loc)

	win := Today(now)

	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, loc), win.Start)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, loc), win.End)
}

func TestWindow_Contains(t *testing.T) {
	now := time.Date(2026, time.March, 9, 14, 30, 0, 0, time.UTC)
	win := Today(now)

	assert.True(t, win.Contains(win.Start))
	assert.True(t, win.Contains(now))
	assert.False(t, win.Contains(win.End))
	assert.False(t, win.Contains(win.Start.Add(-time.Second)))
}

func TestToday_MidnightBelongsToTheNewDay(t *testing.T) {
	midnight := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	win := Today(midnight)

	assert.Equal(t, midnight, win.Start)
	assert.True(t, win.Contains(midnight))
}
