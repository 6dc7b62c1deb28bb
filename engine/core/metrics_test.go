package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAveragesFrameTime(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.016)
	}
	assert.InDelta(t, 16.0, m.FrameTime(), 1e-9)
}

func TestMetricsCountsFramesPerSecond(t *testing.T) {
	m := NewMetrics()
	// 0.1s frames: the counter rolls over on the 11th frame.
	for i := 0; i < 11; i++ {
		m.Update(0.1)
	}
	assert.Equal(t, 10.0, m.FPS())
}

func TestClockTick(t *testing.T) {
	now := time.Unix(100, 0)
	c := NewClock()
	c.now = func() time.Time { return now }

	assert.Zero(t, c.Tick(), "stopped clock does not tick")

	c.Start()
	now = now.Add(250 * time.Millisecond)
	assert.InDelta(t, 0.25, c.Tick(), 1e-6)
	now = now.Add(500 * time.Millisecond)
	c.Update()
	assert.InDelta(t, 0.75, c.Elapsed(), 1e-9)
	assert.InDelta(t, 0.5, c.Tick(), 1e-6)
}

func TestMetricsWindowSlides(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.010)
	}
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.020)
	}
	assert.InDelta(t, 20.0, m.FrameTime(), 1e-9)
}
