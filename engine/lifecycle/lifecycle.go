package lifecycle

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"

	"github.com/spaghettifunk/loop/engine/assets"
	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/events"
)

// A module takes part in the frame by implementing any of these.

type Creator interface {
	OnCreate()
}

type Updater interface {
	OnUpdate(dt float32)
}

type BeforeDrawer interface {
	OnBeforeDraw(cmd vk.CommandBuffer)
}

type Drawer interface {
	OnDraw(cmd vk.CommandBuffer)
}

type AfterDrawer interface {
	OnAfterDraw(cmd vk.CommandBuffer)
}

type Destroyer interface {
	OnDestroy()
}

// Reloader is told when the asset blob was replaced on disk.
type Reloader interface {
	OnAssetsReloaded(ev assets.ReloadedEvent)
}

// Hook names reported by Lifecycle.Hooks.
const (
	HookCreate     = "OnCreate"
	HookUpdate     = "OnUpdate"
	HookBeforeDraw = "OnBeforeDraw"
	HookDraw       = "OnDraw"
	HookAfterDraw  = "OnAfterDraw"
	HookDestroy    = "OnDestroy"
	HookReload     = "OnAssetsReloaded"
)

// Lifecycle is the set of frame event registrations made for one module.
type Lifecycle struct {
	ID       uuid.UUID
	module   any
	hooks    []string
	subs     events.Subscriptions
	detached bool
}

// Attach registers handlers for exactly the hooks module implements and
// returns the Lifecycle that removes them again.
func Attach(q *events.EventQueue, module any) *Lifecycle {
	l := &Lifecycle{
		ID:     uuid.New(),
		module: module,
	}

	if m, ok := module.(Creator); ok {
		l.add(HookCreate, events.Subscribe(q, func(InitEvent) { m.OnCreate() }))
	}
	if m, ok := module.(Updater); ok {
		l.add(HookUpdate, events.Subscribe(q, func(ev UpdateEvent) { m.OnUpdate(ev.Dt) }))
	}
	if m, ok := module.(BeforeDrawer); ok {
		l.add(HookBeforeDraw, events.Subscribe(q, func(ev BeforeDrawEvent) { m.OnBeforeDraw(ev.Cmd) }))
	}
	if m, ok := module.(Drawer); ok {
		l.add(HookDraw, events.Subscribe(q, func(ev DrawEvent) { m.OnDraw(ev.Cmd) }))
	}
	if m, ok := module.(AfterDrawer); ok {
		l.add(HookAfterDraw, events.Subscribe(q, func(ev AfterDrawEvent) { m.OnAfterDraw(ev.Cmd) }))
	}
	if m, ok := module.(Destroyer); ok {
		l.add(HookDestroy, events.Subscribe(q, func(QuitEvent) { m.OnDestroy() }))
	}
	if m, ok := module.(Reloader); ok {
		l.add(HookReload, events.Subscribe(q, m.OnAssetsReloaded))
	}

	core.SubLogger("lifecycle").Debug("module attached", "id", l.ID, "module", fmt.Sprintf("%T", module), "hooks", l.hooks)
	return l
}

func (l *Lifecycle) add(hook string, sub *events.Subscription) {
	l.hooks = append(l.hooks, hook)
	l.subs.Add(sub)
}

// Hooks lists the hooks that were registered, in registration order.
func (l *Lifecycle) Hooks() []string {
	out := make([]string, len(l.hooks))
	copy(out, l.hooks)
	return out
}

func (l *Lifecycle) Module() any {
	return l.module
}

// Attached reports whether Detach has not been called yet.
func (l *Lifecycle) Attached() bool {
	return !l.detached
}

// Detach removes every handler registered by Attach. Calling it again does
// nothing.
func (l *Lifecycle) Detach() {
	if l == nil || l.detached {
		return
	}
	l.detached = true
	l.subs.Close()
	core.SubLogger("lifecycle").Debug("module detached", "id", l.ID, "module", fmt.Sprintf("%T", l.module))
}
