package testbed

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/loop/engine/events"
	"github.com/spaghettifunk/loop/engine/math"
)

var white = math.NewVec4(1, 1, 1, 1)

func TestEmitAndCapacity(t *testing.T) {
	s := NewParticleSystem(2)
	assert.Equal(t, 2, s.Capacity())

	assert.True(t, s.Emit(math.NewVec3Zero(), white, math.NewVec3Zero(), 1))
	assert.True(t, s.Emit(math.NewVec3Zero(), white, math.NewVec3Zero(), 1))
	assert.False(t, s.Emit(math.NewVec3Zero(), white, math.NewVec3Zero(), 1), "pool is full")
	assert.False(t, NewParticleSystem(2).Emit(math.NewVec3Zero(), white, math.NewVec3Zero(), 0))
	assert.Equal(t, 2, s.Count())
}

func TestUpdateIntegratesAndKills(t *testing.T) {
	s := NewParticleSystem(4)
	var updates []float32
	var deaths []Particle
	events.Subscribe(s.Events(), func(e ParticleSystemUpdateEvent) { updates = append(updates, e.Dt) })
	events.Subscribe(s.Events(), func(e ParticleDeathEvent) { deaths = append(deaths, e.Particle) })

	s.Emit(math.NewVec3Zero(), white, math.NewVec3(1, 2, 0), 0.5)
	s.Emit(math.NewVec3Zero(), white, math.NewVec3(0, 0, 1), 2)

	s.Update(0.25)
	require.Equal(t, 2, s.Count())
	assert.True(t, s.Particles()[0].Position.Compare(math.NewVec3(0.25, 0.5, 0), 1e-6))
	assert.InDelta(t, 0.5, s.Particles()[0].Age(), 1e-6)

	s.Update(0.25)
	assert.Equal(t, 1, s.Count())
	require.Len(t, deaths, 1)
	assert.True(t, deaths[0].Position.Compare(math.NewVec3(0.5, 1, 0), 1e-6))
	assert.Zero(t, deaths[0].Lifetime)
	assert.Equal(t, []float32{0.25, 0.25}, updates)

	s.Update(0.25)
	assert.Len(t, deaths, 1, "dead particles are reported once")
}

func TestDeadSlotsAreReused(t *testing.T) {
	s := NewParticleSystem(2)
	s.Emit(math.NewVec3Zero(), white, math.NewVec3Zero(), 0.1)
	s.Emit(math.NewVec3Zero(), white, math.NewVec3Zero(), 1)
	s.Update(0.2)
	require.Equal(t, 1, s.Count())

	assert.True(t, s.Emit(math.NewVec3(7, 0, 0), white, math.NewVec3Zero(), 1))
	assert.Equal(t, float32(7), s.Particles()[0].Position.X)
}

func TestInstanceData(t *testing.T) {
	s := NewParticleSystem(3)
	s.Emit(math.NewVec3(1, 2, 3), math.NewVec4(0.1, 0.2, 0.3, 0.4), math.NewVec3Zero(), 1)
	s.Emit(math.NewVec3(4, 5, 6), white, math.NewVec3Zero(), 0.1)
	s.Update(0.2)

	assert.Equal(t, []float32{1, 2, 3, 0.1, 0.2, 0.3, 0.4}, s.instanceData())
}

func TestDrawBeforeInitIsNoop(t *testing.T) {
	s := NewParticleSystem(1)
	s.Emit(math.NewVec3Zero(), white, math.NewVec3Zero(), 1)
	assert.NotPanics(t, func() {
		s.Draw(nil)
		s.Destroy()
	})
}

type failingWriter struct {
	writes int
}

func (f *failingWriter) UpdateFloat32([]float32) error {
	f.writes++
	return errors.New("device lost")
}

func TestFailedUploadIsLogged(t *testing.T) {
	var out bytes.Buffer
	s := NewParticleSystem(1)
	s.logger = log.New(&out)
	s.Emit(math.NewVec3Zero(), white, math.NewVec3Zero(), 1)

	w := &failingWriter{}
	assert.False(t, s.upload(w))
	assert.Equal(t, 1, w.writes)
	assert.Contains(t, out.String(), "particle instance upload failed")
	assert.Contains(t, out.String(), "device lost")
}
