package testbed

import (
	"fmt"

	"github.com/charmbracelet/log"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/events"
	"github.com/spaghettifunk/loop/engine/math"
	"github.com/spaghettifunk/loop/engine/renderer/vulkan"
)

// ParticleMaterial is the instanced particle material inside the asset blob.
const ParticleMaterial = "materials/particle.yaml"

const (
	particleHalfSize float32 = 0.05
	// Instance layout: position.xyz, color.rgba.
	instanceFloats = 7
)

type Particle struct {
	Position math.Vec3
	Velocity math.Vec3
	Color    math.Vec4
	// Time is the lifetime the particle was emitted with.
	Time float32
	// Lifetime is what is left of it. A particle is dead once it reaches 0.
	Lifetime float32
}

func (p *Particle) Alive() bool {
	return p.Lifetime > 0
}

// Age returns the remaining fraction of the lifetime in [0, 1].
func (p *Particle) Age() float32 {
	if p.Time <= 0 {
		return 0
	}
	return math.Clamp(p.Lifetime/p.Time, 0, 1)
}

// ParticleSystemUpdateEvent is sent on the system's own queue at the start of
// every Update, before particles are aged.
type ParticleSystemUpdateEvent struct {
	Dt float32
}

// ParticleDeathEvent carries a copy of the particle as it died.
type ParticleDeathEvent struct {
	Particle Particle
}

// ParticleSystem is a fixed pool of particles drawn as instanced quads. Its
// events go to a queue of its own so listeners only hear about this pool.
type ParticleSystem struct {
	particles []Particle
	count     int
	next      int
	queue     *events.EventQueue
	logger    *log.Logger

	graphics  *vulkan.Graphics
	material  *vulkan.Material
	quad      *vulkan.Mesh
	instances []*vulkan.Buffer
	staging   []float32
}

func NewParticleSystem(capacity int) *ParticleSystem {
	return &ParticleSystem{
		particles: make([]Particle, capacity),
		queue:     events.NewEventQueue(),
		logger:    core.SubLogger("particles"),
		staging:   make([]float32, 0, capacity*instanceFloats),
	}
}

// Events is the queue ParticleSystemUpdateEvent and ParticleDeathEvent are
// sent on.
func (s *ParticleSystem) Events() *events.EventQueue {
	return s.queue
}

// Emit spawns a particle in a free slot. It reports false when the pool is
// full or lifetime is not positive.
func (s *ParticleSystem) Emit(position math.Vec3, color math.Vec4, velocity math.Vec3, lifetime float32) bool {
	if lifetime <= 0 || s.count == len(s.particles) {
		return false
	}
	for i := 0; i < len(s.particles); i++ {
		idx := (s.next + i) % len(s.particles)
		if s.particles[idx].Alive() {
			continue
		}
		s.particles[idx] = Particle{
			Position: position,
			Velocity: velocity,
			Color:    color,
			Time:     lifetime,
			Lifetime: lifetime,
		}
		s.next = (idx + 1) % len(s.particles)
		s.count++
		return true
	}
	return false
}

// Update notifies listeners, then ages and moves every live particle. Each
// particle that runs out of time is reported with ParticleDeathEvent.
func (s *ParticleSystem) Update(dt float32) {
	events.Send(s.queue, ParticleSystemUpdateEvent{Dt: dt})

	for i := range s.particles {
		p := &s.particles[i]
		if !p.Alive() {
			continue
		}
		p.Lifetime -= dt
		p.Position = p.Position.Add(p.Velocity.MulScalar(dt))
		if !p.Alive() {
			p.Lifetime = 0
			s.count--
			events.Send(s.queue, ParticleDeathEvent{Particle: *p})
		}
	}
}

// Particles exposes the whole pool, dead slots included, for in place edits.
func (s *ParticleSystem) Particles() []Particle {
	return s.particles
}

func (s *ParticleSystem) Count() int {
	return s.count
}

func (s *ParticleSystem) Capacity() int {
	return len(s.particles)
}

// instanceData packs the live particles into the instance layout.
func (s *ParticleSystem) instanceData() []float32 {
	s.staging = s.staging[:0]
	for i := range s.particles {
		p := &s.particles[i]
		if !p.Alive() {
			continue
		}
		s.staging = append(s.staging,
			p.Position.X, p.Position.Y, p.Position.Z,
			p.Color.X, p.Color.Y, p.Color.Z, p.Color.W)
	}
	return s.staging
}

// Init creates the GPU side: the quad, and one instance buffer per frame in
// flight so the slot being recorded never shares a buffer with one the GPU
// may still read.
func (s *ParticleSystem) Init(g *vulkan.Graphics, material *vulkan.Material) error {
	quad, err := vulkan.NewMesh(g.Context, math.Flatten3(math.QuadPositions(particleHalfSize)), math.QuadIndices)
	if err != nil {
		return fmt.Errorf("particle quad: %w", err)
	}
	s.graphics = g
	s.material = material
	s.quad = quad

	size := uint64(len(s.particles) * instanceFloats * 4)
	for i := 0; i < g.Frames().FramesInFlight(); i++ {
		buffer, err := vulkan.NewVertexBuffer(g.Context, size)
		if err != nil {
			s.Destroy()
			return fmt.Errorf("particle instances: %w", err)
		}
		s.instances = append(s.instances, buffer)
	}
	return nil
}

// Draw records one instanced draw of the live particles. It does nothing
// before Init.
func (s *ParticleSystem) Draw(cmd vk.CommandBuffer) {
	if s.quad == nil || s.count == 0 {
		return
	}
	buffer := s.instances[s.graphics.Frames().CurrentFrame()]
	if !s.upload(buffer) {
		return
	}
	cb := &vulkan.CommandBuffer{Handle: cmd, State: vulkan.CommandBufferInRenderPass}
	s.material.Bind(cb)
	s.quad.Draw(cb, uint32(s.count), buffer)
}

type instanceWriter interface {
	UpdateFloat32(data []float32) error
}

// upload writes the live particles into buffer and reports whether the draw
// can go ahead.
func (s *ParticleSystem) upload(buffer instanceWriter) bool {
	if err := buffer.UpdateFloat32(s.instanceData()); err != nil {
		s.logger.Error("particle instance upload failed", "count", s.count, "err", err)
		return false
	}
	return true
}

// Destroy releases the GPU side. The material belongs to the caller.
func (s *ParticleSystem) Destroy() {
	for _, b := range s.instances {
		b.Destroy()
	}
	s.instances = nil
	if s.quad != nil {
		s.quad.Destroy()
		s.quad = nil
	}
	s.material = nil
}
