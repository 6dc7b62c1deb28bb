package core

import "github.com/spaghettifunk/loop/engine/containers"

// AVG_COUNT is the number of frames in the frame time window.
const AVG_COUNT = 30

// Metrics keeps a rolling frame time average and a frames-per-second counter.
type Metrics struct {
	msTimes            *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewMetrics() *Metrics {
	return &Metrics{msTimes: containers.NewRingQueue[float64](AVG_COUNT)}
}

// Update records one frame that took frameElapsedTime seconds.
func (m *Metrics) Update(frameElapsedTime float64) {
	// Calculate frame ms average over the last AVG_COUNT frames.
	frameMS := frameElapsedTime * 1000.0
	m.msTimes.Push(frameMS)
	var sum float64
	m.msTimes.Each(func(ms float64) { sum += ms })
	m.msAvg = sum / float64(m.msTimes.Len())

	// Calculate frames per second.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	// Count all frames.
	m.frames++
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}

func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}
