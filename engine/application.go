package engine

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/assets"
	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/events"
	"github.com/spaghettifunk/loop/engine/input"
	"github.com/spaghettifunk/loop/engine/lifecycle"
	"github.com/spaghettifunk/loop/engine/math"
	"github.com/spaghettifunk/loop/engine/platform"
	"github.com/spaghettifunk/loop/engine/renderer/components"
	"github.com/spaghettifunk/loop/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageBooting:
		return "booting"
	case EngineStageBootComplete:
		return "boot-complete"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting-down"
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Camera defaults.
const (
	FieldOfView float32 = 60
	NearClip    float32 = 0.1
	FarClip     float32 = 1000
)

// surface is the part of the window the loop drives.
type surface interface {
	ShouldClose() bool
	SetShouldClose(v bool)
	PollEvents()
}

// frameRenderer is the part of Graphics the loop drives.
type frameRenderer interface {
	SetupFrame() error
	SubmitFrame() error
	CommandBuffer() *vulkan.CommandBuffer
	SurfaceExtent() vk.Extent2D
	UpdateGlobalUniforms(projection, view math.Mat4) error
	BeginDefaultRenderPass(clear [4]float32)
	EndDefaultRenderPass()
	SetViewportAndScissor()
	WaitIdle() error
}

// Application owns every engine system and runs the frame loop. It is the
// only sender of lifecycle events.
type Application struct {
	stage  Stage
	config core.EngineConfig
	logger *log.Logger

	window   *platform.Window
	context  *vulkan.Context
	graphics *vulkan.Graphics
	camera   *components.Camera
	queue    *events.EventQueue
	input    *input.System
	assets   *assets.System
	clock    *core.Clock
	metrics  *core.Metrics

	surfaceMu sync.Mutex
	surface   surface
	frames    frameRenderer
	extent    vk.Extent2D
	modules   []*lifecycle.Lifecycle
	quit      atomic.Bool
}

// New creates the window, the GPU context, the renderer, the camera, the
// event queue, input and assets, in that order.
func New(cfg core.EngineConfig) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core.SetLogLevel(cfg.Log.Level)

	a := &Application{
		stage:   EngineStageBooting,
		config:  cfg,
		logger:  core.SubLogger("engine"),
		clock:   core.NewClock(),
		metrics: core.NewMetrics(),
	}

	var err error
	a.window, err = platform.NewWindow(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height, cfg.Window.Resizable)
	if err != nil {
		return nil, err
	}
	a.surface = a.window

	a.context, err = vulkan.NewContext(a.window, cfg.Window.Title, cfg.Renderer.Validation)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.graphics, err = vulkan.NewGraphics(a.context, vulkan.GraphicsOptions{
		FramesInFlight: cfg.Renderer.FramesInFlight,
		MinImageCount:  cfg.Renderer.MinImageCount,
		PresentMode:    cfg.Renderer.PresentMode,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.frames = a.graphics

	a.camera = components.NewCamera()
	a.queue = events.NewEventQueue()
	a.input = input.New(a.queue, a.window)

	a.assets, err = assets.Open(cfg.Assets.Dir, cfg.Assets.Blob, cfg.Assets.Index)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open assets: %w", err)
	}
	if cfg.Assets.HotReload {
		if err := a.assets.EnableHotReload(a.queue); err != nil {
			a.logger.Warn("hot reload unavailable", "err", err)
		}
	}
	a.loadBindings(cfg.Input.Bindings)

	a.updateProjection()
	a.stage = EngineStageBootComplete
	a.logger.Info("engine ready", "title", cfg.Window.Title, "width", cfg.Window.Width, "height", cfg.Window.Height)
	return a, nil
}

// loadBindings prefers the packed asset and falls back to a file on disk.
func (a *Application) loadBindings(name string) {
	if name == "" {
		return
	}
	var err error
	if a.assets.Has(name) {
		err = a.input.LoadBindingsData(a.assets.Read(name))
	} else {
		err = a.input.LoadBindings(name)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("no input bindings found", "name", name)
			return
		}
		a.logger.Error("failed to load input bindings", "name", name, "err", err)
	}
}

func (a *Application) Events() *events.EventQueue {
	return a.queue
}

func (a *Application) Camera() *components.Camera {
	return a.camera
}

func (a *Application) Input() *input.System {
	return a.input
}

func (a *Application) Assets() *assets.System {
	return a.assets
}

func (a *Application) Graphics() *vulkan.Graphics {
	return a.graphics
}

func (a *Application) Window() *platform.Window {
	return a.window
}

func (a *Application) Metrics() *core.Metrics {
	return a.metrics
}

func (a *Application) Config() core.EngineConfig {
	return a.config
}

func (a *Application) Stage() Stage {
	return a.stage
}

func (a *Application) Modules() []*lifecycle.Lifecycle {
	return a.modules
}

// Attach registers module on the engine queue. It is detached again by Close.
// A module that is still attached is not registered twice; its existing
// Lifecycle is returned so every hook keeps firing once per event.
func (a *Application) Attach(module any) *lifecycle.Lifecycle {
	if existing := a.attached(module); existing != nil {
		a.logger.Warn("module already attached", "id", existing.ID, "module", fmt.Sprintf("%T", module))
		return existing
	}
	l := lifecycle.Attach(a.queue, module)
	a.modules = append(a.modules, l)
	return l
}

func (a *Application) attached(module any) *lifecycle.Lifecycle {
	if module == nil || !reflect.TypeOf(module).Comparable() {
		return nil
	}
	for _, l := range a.modules {
		if l.Attached() && l.Module() == module {
			return l
		}
	}
	return nil
}

// Quit ends the loop after the current tick. It may be called from any
// goroutine, including after Close.
func (a *Application) Quit() {
	a.quit.Store(true)
	a.surfaceMu.Lock()
	defer a.surfaceMu.Unlock()
	if a.surface != nil {
		a.surface.SetShouldClose(true)
	}
}

// Run sends InitEvent, runs ticks until the window closes or Quit is called,
// then waits for the GPU and sends QuitEvent.
func (a *Application) Run() error {
	a.stage = EngineStageInitializing
	events.Send(a.queue, lifecycle.InitEvent{})
	a.input.Update(0)
	a.stage = EngineStageInitialized

	a.clock.Start()
	a.stage = EngineStageRunning
	var runErr error
	for !a.quit.Load() && !a.surface.ShouldClose() {
		if err := a.tick(); err != nil {
			runErr = err
			break
		}
	}
	a.clock.Stop()

	a.stage = EngineStageShuttingDown
	if err := a.frames.WaitIdle(); err != nil {
		a.logger.Error("wait idle on shutdown", "err", err)
		if runErr == nil {
			runErr = err
		}
	}
	events.Send(a.queue, lifecycle.QuitEvent{})
	if runErr != nil {
		a.logger.Error("engine loop stopped", "err", runErr)
	}
	return runErr
}

// tick runs one iteration of the loop. A rebuilt swapchain skips the draw
// events for that tick.
func (a *Application) tick() error {
	a.surface.PollEvents()
	if a.assets != nil {
		a.assets.Poll()
	}

	dt := a.clock.Tick()
	a.metrics.Update(float64(dt))
	a.input.Update(dt)
	events.Send(a.queue, lifecycle.UpdateEvent{Dt: dt})

	if err := a.frames.SetupFrame(); err != nil {
		if errors.Is(err, core.ErrSwapchainOutOfDate) {
			a.logger.Debug("frame skipped", "reason", err)
			return nil
		}
		return err
	}

	a.updateProjection()
	if err := a.frames.UpdateGlobalUniforms(a.camera.Projection(), a.camera.View()); err != nil {
		return err
	}

	cmd := a.frames.CommandBuffer().Handle
	a.frames.BeginDefaultRenderPass(a.camera.ClearValues())
	a.frames.SetViewportAndScissor()
	events.Send(a.queue, lifecycle.BeforeDrawEvent{Cmd: cmd})
	events.Send(a.queue, lifecycle.DrawEvent{Cmd: cmd})
	events.Send(a.queue, lifecycle.AfterDrawEvent{Cmd: cmd})
	a.frames.EndDefaultRenderPass()

	return a.frames.SubmitFrame()
}

// updateProjection keeps the camera aspect in step with the surface.
func (a *Application) updateProjection() {
	extent := a.frames.SurfaceExtent()
	if extent == a.extent || extent.Width == 0 || extent.Height == 0 {
		return
	}
	a.extent = extent
	a.camera.SetPerspective(FieldOfView, float32(extent.Width)/float32(extent.Height), NearClip, FarClip)
}

// Close detaches every module and destroys the systems in reverse order of
// construction.
func (a *Application) Close() {
	for i := len(a.modules) - 1; i >= 0; i-- {
		a.modules[i].Detach()
	}
	a.modules = nil

	if a.assets != nil {
		if err := a.assets.Close(); err != nil {
			a.logger.Warn("close assets", "err", err)
		}
		a.assets = nil
	}
	if a.graphics != nil {
		a.graphics.Destroy()
		a.graphics = nil
	}
	if a.context != nil {
		a.context.Destroy()
		a.context = nil
	}
	a.surfaceMu.Lock()
	a.surface = nil
	a.surfaceMu.Unlock()
	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}
	a.stage = EngineStageUninitialized
	a.logger.Info("engine shut down")
}
