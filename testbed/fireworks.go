package testbed

import (
	"github.com/charmbracelet/log"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/assets"
	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/events"
	"github.com/spaghettifunk/loop/engine/math"
	"github.com/spaghettifunk/loop/engine/renderer/vulkan"
)

const (
	fireworksCapacity = 1000
	explosionSparks   = 250
)

const (
	// Seconds between two rockets.
	rocketEmitRate    float32 = 2.5
	rocketSpeed       float32 = 5
	explosionSpeed    float32 = 5
	gravity           float32 = 9.8
	maxSparkFallSpeed float32 = 1
)

// Fireworks launches rockets that leave sparkle trails and burst when they
// die. Each stage is its own ParticleSystem.
type Fireworks struct {
	graphics *vulkan.Graphics
	assets   vulkan.AssetReader
	logger   *log.Logger
	random   *math.Random

	rockets    *ParticleSystem
	sparkles   *ParticleSystem
	explosions *ParticleSystem
	material   *vulkan.Material
	subs       events.Subscriptions

	emitDelay float32
}

func NewFireworks(g *vulkan.Graphics, assets vulkan.AssetReader, seed uint64) *Fireworks {
	f := &Fireworks{
		graphics:   g,
		assets:     assets,
		logger:     core.SubLogger("fireworks"),
		random:     math.NewRandom(seed),
		rockets:    NewParticleSystem(fireworksCapacity),
		sparkles:   NewParticleSystem(fireworksCapacity),
		explosions: NewParticleSystem(fireworksCapacity),
	}
	f.subs.Add(events.Subscribe(f.rockets.Events(), f.onRocketsUpdate))
	f.subs.Add(events.Subscribe(f.rockets.Events(), f.onRocketDeath))
	f.subs.Add(events.Subscribe(f.sparkles.Events(), f.onSparklesUpdate))
	f.subs.Add(events.Subscribe(f.explosions.Events(), f.onExplosionsUpdate))
	return f
}

// Count returns the live particles across all stages.
func (f *Fireworks) Count() int {
	return f.rockets.Count() + f.sparkles.Count() + f.explosions.Count()
}

func (f *Fireworks) OnCreate() {
	material, err := vulkan.NewMaterial(f.graphics, f.assets, ParticleMaterial)
	if err != nil {
		f.logger.Error("fireworks will not be drawn", "err", err)
		return
	}
	f.material = material
	for _, s := range f.systems() {
		if err := s.Init(f.graphics, material); err != nil {
			f.logger.Error("fireworks will not be drawn", "err", err)
			f.release()
			return
		}
	}
}

func (f *Fireworks) OnUpdate(dt float32) {
	for _, s := range f.systems() {
		s.Update(dt)
	}
}

func (f *Fireworks) OnDraw(cmd vk.CommandBuffer) {
	for _, s := range f.systems() {
		s.Draw(cmd)
	}
}

// OnAssetsReloaded rebuilds the particle pipeline from the new blob. When the
// material was missing at startup it is created now.
func (f *Fireworks) OnAssetsReloaded(ev assets.ReloadedEvent) {
	if f.graphics == nil {
		return
	}
	if f.material == nil {
		f.OnCreate()
		return
	}
	if err := f.material.Reload(f.assets); err != nil {
		f.logger.Warn("particle material reload failed", "build", ev.BuildID, "err", err)
	}
}

func (f *Fireworks) OnDestroy() {
	f.subs.Close()
	f.release()
}

func (f *Fireworks) release() {
	for _, s := range f.systems() {
		s.Destroy()
	}
	if f.material != nil {
		f.material.Destroy()
		f.material = nil
	}
}

func (f *Fireworks) systems() []*ParticleSystem {
	return []*ParticleSystem{f.rockets, f.sparkles, f.explosions}
}

func (f *Fireworks) onRocketsUpdate(e ParticleSystemUpdateEvent) {
	f.emitDelay += e.Dt
	for f.emitDelay >= rocketEmitRate {
		f.emitDelay -= rocketEmitRate

		direction := math.NewVec3(f.random.Float32Range(-1, 1), 2, f.random.Float32Range(-1, 1))
		color := math.NewVec4(f.random.Float32(), f.random.Float32(), f.random.Float32(), 1)
		lifetime := f.random.Float32Range(1, 2)
		f.rockets.Emit(math.NewVec3Zero(), color, direction.MulScalar(rocketSpeed), lifetime)
	}

	particles := f.rockets.Particles()
	for i := range particles {
		p := &particles[i]
		if !p.Alive() {
			continue
		}
		p.Color.W = p.Age()

		trail := math.NewVec3(f.random.Float32Range(-1, 1)*0.5, 0, f.random.Float32Range(-1, 1)*0.5)
		f.sparkles.Emit(p.Position, p.Color, trail, f.random.Float32())
	}
}

func (f *Fireworks) onSparklesUpdate(e ParticleSystemUpdateEvent) {
	particles := f.sparkles.Particles()
	for i := range particles {
		p := &particles[i]
		if !p.Alive() {
			continue
		}
		p.Color.W = p.Age()
		p.Velocity.Y -= gravity * e.Dt
		if p.Velocity.Y < -maxSparkFallSpeed {
			p.Velocity.Y = -maxSparkFallSpeed
		}
	}
}

func (f *Fireworks) onExplosionsUpdate(ParticleSystemUpdateEvent) {
	particles := f.explosions.Particles()
	for i := range particles {
		p := &particles[i]
		if p.Alive() {
			p.Color.W = p.Age()
		}
	}
}

func (f *Fireworks) onRocketDeath(e ParticleDeathEvent) {
	color := e.Particle.Color
	color.W = 1
	for i := 0; i < explosionSparks; i++ {
		velocity := f.random.Vec3Range(-1, 1).MulScalar(explosionSpeed)
		f.explosions.Emit(e.Particle.Position, color, velocity, 1)
	}
}
