package components

import (
	"github.com/spaghettifunk/loop/engine/math"
)

/**
 * @brief Represents the scene camera. Every setter recomputes the dependent
 * matrices immediately, so getters never observe a stale view.
 */
type Camera struct {
	/** @brief World position. */
	position math.Vec3
	/** @brief Euler angles in degrees: X is pitch, Y is yaw, Z is roll. */
	rotation math.Vec3
	/** @brief Yaw-pitch-roll rotation built from rotation. */
	orientation math.Mat4
	/** @brief Inverse of translation(position) * orientation. */
	view math.Mat4
	/** @brief Projection with the Y scale flipped for Vulkan. */
	projection math.Mat4
	/** @brief Color the default render pass clears to. */
	clearColor math.Vec4
}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.position = math.NewVec3Zero()
	c.rotation = math.NewVec3Zero()
	c.orientation = math.NewMat4Identity()
	c.view = math.NewMat4Identity()
	c.projection = math.NewMat4Identity()
	c.clearColor = math.NewVec4(0, 0, 0, 1)
}

// SetPerspective takes the vertical field of view in degrees.
func (c *Camera) SetPerspective(fovDegrees, aspect, near, far float32) {
	c.projection = math.NewMat4PerspectiveLH(math.DegToRad(fovDegrees), aspect, near, far)
	c.projection.Data[5] = -c.projection.Data[5]
}

func (c *Camera) SetOrtho(left, right, bottom, top, near, far float32) {
	c.projection = math.NewMat4OrthographicLH(left, right, bottom, top, near, far)
	c.projection.Data[5] = -c.projection.Data[5]
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.SetTransform(position, c.rotation)
}

func (c *Camera) SetRotation(rotation math.Vec3) {
	c.SetTransform(c.position, rotation)
}

func (c *Camera) SetTransform(position, rotation math.Vec3) {
	c.position = position
	c.rotation = rotation
	c.orientation = math.NewMat4YawPitchRoll(
		math.DegToRad(rotation.Y),
		math.DegToRad(rotation.X),
		math.DegToRad(rotation.Z),
	)
	c.view = math.NewMat4Translation(position).Mul(c.orientation).Inverse()
}

// LookAt turns the camera towards target, keeping the current roll. Looking
// straight up or down leaves yaw unchanged.
func (c *Camera) LookAt(target math.Vec3) {
	direction := target.Sub(c.position)
	if direction.LengthSquared() < math.K_FLOAT_EPSILON {
		return
	}
	direction = direction.Normalized()

	rotation := c.rotation
	rotation.X = math.RadToDeg(math.Asin(-direction.Y))
	if math.Abs(direction.X)+math.Abs(direction.Z) > math.K_FLOAT_EPSILON {
		rotation.Y = math.RadToDeg(math.Atan2(direction.X, direction.Z))
	}
	c.SetTransform(c.position, rotation)
}

func (c *Camera) Position() math.Vec3 {
	return c.position
}

func (c *Camera) Rotation() math.Vec3 {
	return c.rotation
}

func (c *Camera) Orientation() math.Mat4 {
	return c.orientation
}

func (c *Camera) View() math.Mat4 {
	return c.view
}

func (c *Camera) Projection() math.Mat4 {
	return c.projection
}

func (c *Camera) ClearColor() math.Vec4 {
	return c.clearColor
}

func (c *Camera) SetClearColor(color math.Vec4) {
	c.clearColor = color
}

// ClearValues returns the clear color in render pass order.
func (c *Camera) ClearValues() [4]float32 {
	return [4]float32{c.clearColor.X, c.clearColor.Y, c.clearColor.Z, c.clearColor.W}
}

func (c *Camera) Forward() math.Vec3 {
	return c.orientation.Forward()
}

func (c *Camera) Right() math.Vec3 {
	return c.orientation.Right()
}

func (c *Camera) Up() math.Vec3 {
	return c.orientation.Up()
}

func (c *Camera) MoveForward(amount float32) {
	c.SetPosition(c.position.Add(c.Forward().MulScalar(amount)))
}

func (c *Camera) MoveRight(amount float32) {
	c.SetPosition(c.position.Add(c.Right().MulScalar(amount)))
}

func (c *Camera) MoveUp(amount float32) {
	c.SetPosition(c.position.Add(math.NewVec3Up().MulScalar(amount)))
}
