package testbed

import (
	"github.com/spaghettifunk/loop/engine/events"
	"github.com/spaghettifunk/loop/engine/input"
	"github.com/spaghettifunk/loop/engine/math"
	"github.com/spaghettifunk/loop/engine/platform"
	"github.com/spaghettifunk/loop/engine/renderer/components"
)

const (
	walkSpeed   float32 = 5
	sprintSpeed float32 = 50
	maxPitch    float32 = 90
)

// mouseSensitivity follows the usual 0.5 slider setting mapped through
// (s*0.6+0.2)^3*8.
var mouseSensitivity = func() float32 {
	d := float32(0.5*0.6 + 0.2)
	return d * d * d * 8
}()

// CursorLocker switches the cursor between free and captured.
type CursorLocker interface {
	SetCursorMode(mode platform.CursorMode)
}

// InputState is what the controller reads each update.
type InputState interface {
	Axis(name string) float32
	Button(name string) bool
	MouseDelta() math.Vec2
}

// CameraController flies the camera with the move and strafe axes and looks
// around with the mouse while the cursor is locked. The camera button toggles
// the lock.
type CameraController struct {
	camera *components.Camera
	input  InputState
	cursor CursorLocker
	sub    *events.Subscription

	locked bool
}

func NewCameraController(q *events.EventQueue, camera *components.Camera, in InputState, cursor CursorLocker) *CameraController {
	c := &CameraController{camera: camera, input: in, cursor: cursor}
	c.sub = events.Subscribe(q, c.onButtonPress)
	return c
}

func (c *CameraController) Locked() bool {
	return c.locked
}

func (c *CameraController) onButtonPress(e input.ButtonPressEvent) {
	if e.Name != "camera" {
		return
	}
	c.locked = !c.locked
	if c.cursor == nil {
		return
	}
	if c.locked {
		c.cursor.SetCursorMode(platform.CursorDisabled)
	} else {
		c.cursor.SetCursorMode(platform.CursorNormal)
	}
}

func (c *CameraController) OnUpdate(dt float32) {
	if !c.locked {
		return
	}
	position := c.camera.Position()
	rotation := c.camera.Rotation()
	changed := false

	move := c.input.Axis("move")
	strafe := c.input.Axis("strafe")
	if move != 0 || strafe != 0 {
		speed := walkSpeed
		if c.input.Button("sprint") {
			speed = sprintSpeed
		}
		direction := math.NewVec3(strafe, 0, move).Normalized()
		velocity := c.camera.Orientation().MulVec4(direction.ToVec4(0)).ToVec3().MulScalar(speed)
		position = position.Add(velocity.MulScalar(dt))
		changed = true
	}

	delta := c.input.MouseDelta()
	if delta.X != 0 || delta.Y != 0 {
		rotation.Y += delta.X * mouseSensitivity * dt * 9
		rotation.X += delta.Y * mouseSensitivity * dt * 9
		rotation.X = math.Clamp(rotation.X, -maxPitch, maxPitch)
		changed = true
	}

	if changed {
		c.camera.SetTransform(position, rotation)
	}
}

func (c *CameraController) OnDestroy() {
	c.sub.Close()
}
