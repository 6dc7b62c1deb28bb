package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief a 4x4 matrix stored column-major, the layout GLSL expects for a mat4.
 * Data[col*4+row] is the element at (row, col); translation lives in Data[12..14].
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief Represents a single vertex in 2D space.
 */
type Vertex2D struct {
	/** @brief The position of the vertex */
	Position Vec2
	/** @brief The texture coordinate of the vertex. */
	Texcoord Vec2
}
