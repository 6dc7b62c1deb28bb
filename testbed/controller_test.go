package testbed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/loop/engine/events"
	"github.com/spaghettifunk/loop/engine/input"
	"github.com/spaghettifunk/loop/engine/math"
	"github.com/spaghettifunk/loop/engine/platform"
	"github.com/spaghettifunk/loop/engine/renderer/components"
)

type fakeInput struct {
	axes    map[string]float32
	buttons map[string]bool
	delta   math.Vec2
}

func (f *fakeInput) Axis(name string) float32 { return f.axes[name] }
func (f *fakeInput) Button(name string) bool  { return f.buttons[name] }
func (f *fakeInput) MouseDelta() math.Vec2    { return f.delta }

type fakeCursor struct {
	modes []platform.CursorMode
}

func (f *fakeCursor) SetCursorMode(mode platform.CursorMode) {
	f.modes = append(f.modes, mode)
}

func newController() (*CameraController, *components.Camera, *fakeInput, *fakeCursor, *events.EventQueue) {
	q := events.NewEventQueue()
	camera := components.NewCamera()
	camera.SetTransform(math.NewVec3Zero(), math.NewVec3Zero())
	in := &fakeInput{axes: map[string]float32{}, buttons: map[string]bool{}}
	cursor := &fakeCursor{}
	return NewCameraController(q, camera, in, cursor), camera, in, cursor, q
}

func TestCameraButtonTogglesLock(t *testing.T) {
	c, _, _, cursor, q := newController()
	assert.False(t, c.Locked())

	events.Send(q, input.ButtonPressEvent{Name: "jump"})
	assert.False(t, c.Locked())

	events.Send(q, input.ButtonPressEvent{Name: "camera"})
	assert.True(t, c.Locked())
	events.Send(q, input.ButtonPressEvent{Name: "camera"})
	assert.False(t, c.Locked())
	assert.Equal(t, []platform.CursorMode{platform.CursorDisabled, platform.CursorNormal}, cursor.modes)
}

func TestUnlockedControllerIgnoresInput(t *testing.T) {
	c, camera, in, _, _ := newController()
	in.axes["move"] = 1
	in.delta = math.NewVec2(10, 10)

	c.OnUpdate(0.1)
	assert.Equal(t, math.NewVec3Zero(), camera.Position())
	assert.Equal(t, math.NewVec3Zero(), camera.Rotation())
}

func TestMoveAndSprint(t *testing.T) {
	c, camera, in, _, q := newController()
	events.Send(q, input.ButtonPressEvent{Name: "camera"})

	in.axes["move"] = 1
	c.OnUpdate(0.1)
	assert.True(t, camera.Position().Compare(math.NewVec3(0, 0, 0.5), 1e-5), "got %v", camera.Position())

	in.buttons["sprint"] = true
	c.OnUpdate(0.1)
	assert.True(t, camera.Position().Compare(math.NewVec3(0, 0, 5.5), 1e-4), "got %v", camera.Position())

	in.buttons["sprint"] = false
	in.axes["move"] = 0
	in.axes["strafe"] = 1
	before := camera.Position()
	c.OnUpdate(0.1)
	assert.True(t, camera.Position().Compare(before.Add(math.NewVec3(0.5, 0, 0)), 1e-4), "got %v", camera.Position())
}

func TestMouseLook(t *testing.T) {
	c, camera, in, _, q := newController()
	events.Send(q, input.ButtonPressEvent{Name: "camera"})

	assert.InDelta(t, 1.0, mouseSensitivity, 1e-6)

	in.delta = math.NewVec2(10, 0)
	c.OnUpdate(0.1)
	assert.InDelta(t, 9.0, camera.Rotation().Y, 1e-4)

	in.delta = math.NewVec2(0, 1000)
	c.OnUpdate(0.1)
	assert.Equal(t, maxPitch, camera.Rotation().X)

	in.delta = math.NewVec2(0, -5000)
	c.OnUpdate(0.1)
	assert.Equal(t, -maxPitch, camera.Rotation().X)
}

func TestControllerDestroyUnsubscribes(t *testing.T) {
	c, _, _, _, q := newController()
	c.OnDestroy()
	events.Send(q, input.ButtonPressEvent{Name: "camera"})
	assert.False(t, c.Locked())
}
