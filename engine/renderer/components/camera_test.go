package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/loop/engine/math"
)

const tolerance = 1e-5

func assertMat4(t *testing.T, expected, actual math.Mat4) {
	t.Helper()
	assert.Truef(t, expected.Compare(actual, tolerance), "expected %v, got %v", expected.Data, actual.Data)
}

func expectedView(position, rotation math.Vec3) math.Mat4 {
	orientation := math.NewMat4YawPitchRoll(math.DegToRad(rotation.Y), math.DegToRad(rotation.X), math.DegToRad(rotation.Z))
	return math.NewMat4Translation(position).Mul(orientation).Inverse()
}

func TestNewCameraIsIdentity(t *testing.T) {
	c := NewCamera()
	assertMat4(t, math.NewMat4Identity(), c.View())
	assertMat4(t, math.NewMat4Identity(), c.Orientation())
	assert.Equal(t, math.NewVec4(0, 0, 0, 1), c.ClearColor())
}

func TestSettersKeepMatricesConsistent(t *testing.T) {
	c := NewCamera()
	steps := []func(){
		func() { c.SetPosition(math.NewVec3(1, 2, 3)) },
		func() { c.SetRotation(math.NewVec3(15, -30, 5)) },
		func() { c.SetTransform(math.NewVec3(-4, 0.5, 10), math.NewVec3(-80, 170, 0)) },
		func() { c.MoveForward(2.5) },
		func() { c.MoveRight(-1) },
		func() { c.MoveUp(3) },
		func() { c.LookAt(math.NewVec3(0, 0, 0)) },
	}
	for _, step := range steps {
		step()
		assertMat4(t, expectedView(c.Position(), c.Rotation()), c.View())
		want := math.NewMat4YawPitchRoll(math.DegToRad(c.Rotation().Y), math.DegToRad(c.Rotation().X), math.DegToRad(c.Rotation().Z))
		assertMat4(t, want, c.Orientation())
		assertMat4(t, math.NewMat4Identity(), c.View().Mul(math.NewMat4Translation(c.Position()).Mul(c.Orientation())))
	}
}

func TestViewMovesWorldOppositeToCamera(t *testing.T) {
	c := NewCamera()
	c.SetPosition(math.NewVec3(0, 0, -5))
	p := c.View().TransformPoint(math.NewVec3Zero())
	assert.True(t, p.Compare(math.NewVec3(0, 0, 5), tolerance), "got %v", p)
}

func TestPerspectiveFlipsY(t *testing.T) {
	tests := []struct {
		fov, aspect, near, far float32
	}{
		{60, 16.0 / 9.0, 0.1, 1000},
		{90, 1, 0.01, 10},
		{45, 4.0 / 3.0, 1, 2},
	}
	c := NewCamera()
	for _, tt := range tests {
		c.SetPerspective(tt.fov, tt.aspect, tt.near, tt.far)
		standard := math.NewMat4PerspectiveLH(math.DegToRad(tt.fov), tt.aspect, tt.near, tt.far)

		assert.InDelta(t, -standard.At(1, 1), c.Projection().At(1, 1), tolerance)
		assert.InDelta(t, standard.At(0, 0), c.Projection().At(0, 0), tolerance)
		assert.InDelta(t, standard.At(2, 2), c.Projection().At(2, 2), tolerance)
	}
}

func TestOrthoFlipsY(t *testing.T) {
	c := NewCamera()
	c.SetOrtho(-1, 1, -1, 1, 0, 10)
	standard := math.NewMat4OrthographicLH(-1, 1, -1, 1, 0, 10)
	assert.InDelta(t, -standard.At(1, 1), c.Projection().At(1, 1), tolerance)
}

func TestLookAt(t *testing.T) {
	c := NewCamera()
	c.LookAt(math.NewVec3(1, 0, 1))
	assert.InDelta(t, 45, c.Rotation().Y, 1e-3)
	assert.InDelta(t, 0, c.Rotation().X, 1e-3)
	assert.True(t, c.Forward().Compare(math.NewVec3(1, 0, 1).Normalized(), 1e-4), "got %v", c.Forward())

	c.LookAt(math.NewVec3(0, -1, 1))
	assert.InDelta(t, 45, c.Rotation().X, 1e-3)
	assert.True(t, c.Forward().Compare(math.NewVec3(0, -1, 1).Normalized(), 1e-4), "got %v", c.Forward())
}

func TestLookAtOwnPositionIsNoOp(t *testing.T) {
	c := NewCamera()
	c.SetTransform(math.NewVec3(1, 1, 1), math.NewVec3(10, 20, 0))
	c.LookAt(math.NewVec3(1, 1, 1))
	assert.Equal(t, math.NewVec3(10, 20, 0), c.Rotation())
}

func TestClearValues(t *testing.T) {
	c := NewCamera()
	c.SetClearColor(math.NewVec4(0.1, 0.2, 0.3, 1))
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, c.ClearValues())
}
