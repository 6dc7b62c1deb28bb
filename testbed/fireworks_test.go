package testbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/loop/engine/assets"
	"github.com/spaghettifunk/loop/engine/events"
	"github.com/spaghettifunk/loop/engine/math"
)

func TestRocketsLaunchOnSchedule(t *testing.T) {
	f := NewFireworks(nil, nil, 1)

	f.OnUpdate(2)
	assert.Zero(t, f.rockets.Count())

	f.OnUpdate(0.5)
	require.Equal(t, 1, f.rockets.Count())
	rocket := f.rockets.Particles()[0]
	assert.Equal(t, rocketSpeed*2, rocket.Velocity.Y)
	assert.GreaterOrEqual(t, rocket.Time, float32(1))
	assert.Less(t, rocket.Time, float32(2))
	assert.Equal(t, float32(1), rocket.Color.W)

	deaths := 0
	events.Subscribe(f.rockets.Events(), func(ParticleDeathEvent) { deaths++ })
	f.OnUpdate(5)
	assert.Equal(t, 3, deaths, "both delayed rockets launch and burn out with the first")
}

func TestRocketDeathExplodes(t *testing.T) {
	f := NewFireworks(nil, nil, 7)
	f.rockets.Emit(math.NewVec3(1, 2, 3), math.NewVec4(0.5, 0.5, 0.5, 0.2), math.NewVec3Zero(), 0.1)

	f.OnUpdate(0.2)
	assert.Zero(t, f.rockets.Count())
	require.Equal(t, explosionSparks, f.explosions.Count())
	for _, p := range f.explosions.Particles()[:explosionSparks] {
		origin := p.Position.Sub(p.Velocity.MulScalar(0.2))
		assert.True(t, origin.Compare(math.NewVec3(1, 2, 3), 1e-5), "got %v", origin)
		assert.LessOrEqual(t, math.Abs(p.Velocity.X), explosionSpeed)
		assert.Equal(t, float32(1), p.Time)
		assert.Equal(t, float32(0.5), p.Color.X)
		assert.InDelta(t, 0.8, p.Lifetime, 1e-6)
	}
}

func TestRocketsLeaveSparkles(t *testing.T) {
	f := NewFireworks(nil, nil, 3)
	f.rockets.Emit(math.NewVec3Zero(), white, math.NewVec3(0, 10, 0), 2)

	for i := 0; i < 10; i++ {
		f.OnUpdate(0.01)
	}
	assert.Positive(t, f.sparkles.Count())
}

func TestSparklesFallWithCappedSpeed(t *testing.T) {
	f := NewFireworks(nil, nil, 3)
	f.sparkles.Emit(math.NewVec3Zero(), white, math.NewVec3(0, 0.5, 0), 10)

	f.OnUpdate(0.05)
	assert.InDelta(t, 0.5-gravity*0.05, f.sparkles.Particles()[0].Velocity.Y, 1e-5)

	f.OnUpdate(1)
	assert.Equal(t, -maxSparkFallSpeed, f.sparkles.Particles()[0].Velocity.Y)
	assert.Less(t, f.sparkles.Particles()[0].Color.W, float32(1))
}

func TestFireworksDestroyWithoutGPU(t *testing.T) {
	f := NewFireworks(nil, nil, 1)
	assert.NotPanics(t, func() {
		f.OnDraw(nil)
		f.OnDestroy()
	})
	f.OnUpdate(3)
	assert.Zero(t, f.rockets.Count(), "update listeners were removed")
	f.rockets.Emit(math.NewVec3Zero(), white, math.NewVec3Zero(), 0.1)
	f.OnUpdate(0.2)
	assert.Zero(t, f.explosions.Count(), "death listener was removed")
}

func TestFireworksReloadWithoutGPU(t *testing.T) {
	f := NewFireworks(nil, nil, 1)
	assert.NotPanics(t, func() { f.OnAssetsReloaded(assets.ReloadedEvent{BuildID: "b"}) })
	assert.Nil(t, f.material)
}
