package math

/**
 * @brief Creates and returns an identity matrix.
 */
func NewMat4Identity() Mat4 {
	out := Mat4{}
	out.Data[0] = 1.0
	out.Data[5] = 1.0
	out.Data[10] = 1.0
	out.Data[15] = 1.0
	return out
}

// At returns the element at (row, col).
func (mt Mat4) At(row, col int) float32 {
	return mt.Data[col*4+row]
}

// Set writes the element at (row, col).
func (mt *Mat4) Set(row, col int, v float32) {
	mt.Data[col*4+row] = v
}

/**
 * @brief Returns mt * other. Applied to a vector, other acts first.
 */
func (mt Mat4) Mul(other Mat4) Mat4 {
	out := Mat4{}
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			sum := float32(0)
			for i := 0; i < 4; i++ {
				sum += mt.Data[i*4+row] * other.Data[col*4+i]
			}
			out.Data[col*4+row] = sum
		}
	}
	return out
}

func (mt Mat4) MulVec4(v Vec4) Vec4 {
	d := mt.Data
	return Vec4{
		X: d[0]*v.X + d[4]*v.Y + d[8]*v.Z + d[12]*v.W,
		Y: d[1]*v.X + d[5]*v.Y + d[9]*v.Z + d[13]*v.W,
		Z: d[2]*v.X + d[6]*v.Y + d[10]*v.Z + d[14]*v.W,
		W: d[3]*v.X + d[7]*v.Y + d[11]*v.Z + d[15]*v.W,
	}
}

// TransformPoint applies mt to p with w = 1 and drops w.
func (mt Mat4) TransformPoint(p Vec3) Vec3 {
	return mt.MulVec4(p.ToVec4(1)).ToVec3()
}

/**
 * @brief Returns a transposed copy of the provided matrix (rows->colums)
 */
func (mt Mat4) Transposed() Mat4 {
	out := Mat4{}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out.Data[row*4+col] = mt.Data[col*4+row]
		}
	}
	return out
}

/**
 * @brief Creates and returns an inverse of the provided matrix. A singular
 * matrix yields the zero matrix.
 */
func (mt Mat4) Inverse() Mat4 {
	m := mt.Data
	var inv [16]float32

	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] + m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] - m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] + m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] - m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]
	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] - m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] + m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] - m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] + m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]
	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] + m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] - m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] + m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] - m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]
	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] - m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] + m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] - m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] + m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]

	det := m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
	if det == 0 {
		return Mat4{}
	}
	det = 1.0 / det

	out := Mat4{}
	for i := range inv {
		out.Data[i] = inv[i] * det
	}
	return out
}

/**
 * @brief Compares all elements and ensures the difference is at most tolerance.
 */
func (mt Mat4) Compare(other Mat4, tolerance float32) bool {
	for i := range mt.Data {
		if Abs(mt.Data[i]-other.Data[i]) > tolerance {
			return false
		}
	}
	return true
}

/**
 * @brief Creates and returns a translation matrix from the given position.
 */
func NewMat4Translation(position Vec3) Mat4 {
	out := NewMat4Identity()
	out.Data[12] = position.X
	out.Data[13] = position.Y
	out.Data[14] = position.Z
	return out
}

func NewMat4Scale(scale Vec3) Mat4 {
	out := NewMat4Identity()
	out.Data[0] = scale.X
	out.Data[5] = scale.Y
	out.Data[10] = scale.Z
	return out
}

/**
 * @brief Rotation of angle_radians around the X axis.
 */
func NewMat4EulerX(angle_radians float32) Mat4 {
	out := NewMat4Identity()
	c := kcos(angle_radians)
	s := ksin(angle_radians)
	out.Set(1, 1, c)
	out.Set(1, 2, -s)
	out.Set(2, 1, s)
	out.Set(2, 2, c)
	return out
}

/**
 * @brief Rotation of angle_radians around the Y axis.
 */
func NewMat4EulerY(angle_radians float32) Mat4 {
	out := NewMat4Identity()
	c := kcos(angle_radians)
	s := ksin(angle_radians)
	out.Set(0, 0, c)
	out.Set(0, 2, s)
	out.Set(2, 0, -s)
	out.Set(2, 2, c)
	return out
}

/**
 * @brief Rotation of angle_radians around the Z axis.
 */
func NewMat4EulerZ(angle_radians float32) Mat4 {
	out := NewMat4Identity()
	c := kcos(angle_radians)
	s := ksin(angle_radians)
	out.Set(0, 0, c)
	out.Set(0, 1, -s)
	out.Set(1, 0, s)
	out.Set(1, 1, c)
	return out
}

/**
 * @brief Builds the rotation EulerY(yaw) * EulerX(pitch) * EulerZ(roll): roll is
 * applied first, yaw last.
 */
func NewMat4YawPitchRoll(yaw, pitch, roll float32) Mat4 {
	ch, sh := kcos(yaw), ksin(yaw)
	cp, sp := kcos(pitch), ksin(pitch)
	cb, sb := kcos(roll), ksin(roll)

	out := Mat4{}
	out.Data[0] = ch*cb + sh*sp*sb
	out.Data[1] = sb * cp
	out.Data[2] = -sh*cb + ch*sp*sb
	out.Data[4] = -ch*sb + sh*sp*cb
	out.Data[5] = cb * cp
	out.Data[6] = sb*sh + ch*sp*cb
	out.Data[8] = sh * cp
	out.Data[9] = -sp
	out.Data[10] = ch * cp
	out.Data[15] = 1
	return out
}

/**
 * @brief Left-handed perspective projection with depth mapped to [0, 1].
 *
 * @param fov_radians The vertical field of view in radians.
 * @param aspect_ratio Width divided by height.
 */
func NewMat4PerspectiveLH(fov_radians, aspect_ratio, near_clip, far_clip float32) Mat4 {
	half_tan_fov := ktan(fov_radians * 0.5)
	out := Mat4{}
	out.Data[0] = 1.0 / (aspect_ratio * half_tan_fov)
	out.Data[5] = 1.0 / half_tan_fov
	out.Data[10] = far_clip / (far_clip - near_clip)
	out.Data[11] = 1.0
	out.Data[14] = -(far_clip * near_clip) / (far_clip - near_clip)
	return out
}

/**
 * @brief Left-handed orthographic projection with depth mapped to [0, 1].
 */
func NewMat4OrthographicLH(left, right, bottom, top, near_clip, far_clip float32) Mat4 {
	out := NewMat4Identity()
	out.Data[0] = 2.0 / (right - left)
	out.Data[5] = 2.0 / (top - bottom)
	out.Data[10] = 1.0 / (far_clip - near_clip)
	out.Data[12] = -(right + left) / (right - left)
	out.Data[13] = -(top + bottom) / (top - bottom)
	out.Data[14] = -near_clip / (far_clip - near_clip)
	return out
}

/**
 * @brief Left-handed view matrix looking at target from position.
 */
func NewMat4LookAtLH(position, target, up Vec3) Mat4 {
	f := target.Sub(position).Normalized()
	s := up.Cross(f).Normalized()
	u := f.Cross(s)

	out := NewMat4Identity()
	out.Set(0, 0, s.X)
	out.Set(0, 1, s.Y)
	out.Set(0, 2, s.Z)
	out.Set(1, 0, u.X)
	out.Set(1, 1, u.Y)
	out.Set(1, 2, u.Z)
	out.Set(2, 0, f.X)
	out.Set(2, 1, f.Y)
	out.Set(2, 2, f.Z)
	out.Set(0, 3, -s.Dot(position))
	out.Set(1, 3, -u.Dot(position))
	out.Set(2, 3, -f.Dot(position))
	return out
}

// Forward is the +Z axis of the rotation part.
func (mt Mat4) Forward() Vec3 {
	return Vec3{X: mt.Data[8], Y: mt.Data[9], Z: mt.Data[10]}.Normalized()
}

func (mt Mat4) Right() Vec3 {
	return Vec3{X: mt.Data[0], Y: mt.Data[1], Z: mt.Data[2]}.Normalized()
}

func (mt Mat4) Up() Vec3 {
	return Vec3{X: mt.Data[4], Y: mt.Data[5], Z: mt.Data[6]}.Normalized()
}
