package lifecycle

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/loop/engine/assets"
	"github.com/spaghettifunk/loop/engine/events"
)

type updatingModule struct {
	dts []float32
}

func (m *updatingModule) OnUpdate(dt float32) {
	m.dts = append(m.dts, dt)
}

type drawingModule struct {
	drawn int
}

func (m *drawingModule) OnDraw(cmd vk.CommandBuffer) {
	m.drawn++
}

// recorder implements every hook and logs the order they fire in.
type recorder struct {
	calls *[]string
	name  string
}

func (r recorder) log(hook string) { *r.calls = append(*r.calls, r.name+"."+hook) }

func (r recorder) OnCreate()                     { r.log(HookCreate) }
func (r recorder) OnUpdate(float32)              { r.log(HookUpdate) }
func (r recorder) OnBeforeDraw(vk.CommandBuffer) { r.log(HookBeforeDraw) }
func (r recorder) OnDraw(vk.CommandBuffer)       { r.log(HookDraw) }
func (r recorder) OnAfterDraw(vk.CommandBuffer)  { r.log(HookAfterDraw) }
func (r recorder) OnDestroy()                    { r.log(HookDestroy) }

func TestOnlyImplementedHooksFire(t *testing.T) {
	q := events.NewEventQueue()
	upd := &updatingModule{}
	drw := &drawingModule{}
	Attach(q, upd)
	Attach(q, drw)

	events.Send(q, UpdateEvent{Dt: 0.016})

	require.Len(t, upd.dts, 1)
	assert.Equal(t, float32(0.016), upd.dts[0])
	assert.Zero(t, drw.drawn)
}

func TestAttachRegistersExactlyTheImplementedHooks(t *testing.T) {
	q := events.NewEventQueue()
	l := Attach(q, &updatingModule{})

	assert.Equal(t, []string{HookUpdate}, l.Hooks())
	assert.Equal(t, 1, events.HandlerCount[UpdateEvent](q))
	assert.Zero(t, events.HandlerCount[DrawEvent](q))
	assert.Zero(t, events.HandlerCount[InitEvent](q))
}

type reloadingModule struct {
	builds []string
}

func (m *reloadingModule) OnAssetsReloaded(ev assets.ReloadedEvent) {
	m.builds = append(m.builds, ev.BuildID)
}

func TestReloadHookFollowsAssetReloads(t *testing.T) {
	q := events.NewEventQueue()
	m := &reloadingModule{}
	l := Attach(q, m)
	assert.Equal(t, []string{HookReload}, l.Hooks())

	events.Send(q, assets.ReloadedEvent{BuildID: "b1"})
	l.Detach()
	events.Send(q, assets.ReloadedEvent{BuildID: "b2"})
	assert.Equal(t, []string{"b1"}, m.builds)
}

func TestDetachRemovesEveryHook(t *testing.T) {
	q := events.NewEventQueue()
	var calls []string
	l := Attach(q, recorder{calls: &calls, name: "r"})
	require.Len(t, l.Hooks(), 6)
	assert.True(t, l.Attached())

	l.Detach()
	l.Detach()
	assert.False(t, l.Attached())

	events.Send(q, InitEvent{})
	events.Send(q, UpdateEvent{})
	events.Send(q, BeforeDrawEvent{})
	events.Send(q, DrawEvent{})
	events.Send(q, AfterDrawEvent{})
	events.Send(q, QuitEvent{})
	assert.Empty(t, calls)
}

func TestHooksFireInAttachOrder(t *testing.T) {
	q := events.NewEventQueue()
	var calls []string
	Attach(q, recorder{calls: &calls, name: "a"})
	Attach(q, recorder{calls: &calls, name: "b"})

	events.Send(q, InitEvent{})
	events.Send(q, BeforeDrawEvent{})
	events.Send(q, DrawEvent{})
	events.Send(q, AfterDrawEvent{})

	assert.Equal(t, []string{
		"a.OnCreate", "b.OnCreate",
		"a.OnBeforeDraw", "b.OnBeforeDraw",
		"a.OnDraw", "b.OnDraw",
		"a.OnAfterDraw", "b.OnAfterDraw",
	}, calls)
}

func TestModuleWithoutHooks(t *testing.T) {
	q := events.NewEventQueue()
	l := Attach(q, struct{}{})
	assert.Empty(t, l.Hooks())
	assert.NotPanics(t, l.Detach)
}
