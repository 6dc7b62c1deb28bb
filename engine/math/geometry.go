package math

// QuadIndices is the index list for the two triangles of a quad built by
// QuadPositions or QuadVertices2D.
var QuadIndices = []uint32{0, 1, 2, 0, 2, 3}

// QuadPositions returns the four corners of a square of the given half extent
// centered on the origin in the XY plane: bottom-left, top-left, top-right,
// bottom-right.
func QuadPositions(half float32) []Vec3 {
	return []Vec3{
		{X: -half, Y: -half},
		{X: -half, Y: half},
		{X: half, Y: half},
		{X: half, Y: -half},
	}
}

// QuadVertices2D returns a textured rectangle from min to max with texture
// coordinates covering [0, 1], in the same winding as QuadPositions.
func QuadVertices2D(min, max Vec2) []Vertex2D {
	return []Vertex2D{
		{Position: Vec2{X: min.X, Y: min.Y}, Texcoord: Vec2{X: 0, Y: 0}},
		{Position: Vec2{X: min.X, Y: max.Y}, Texcoord: Vec2{X: 0, Y: 1}},
		{Position: Vec2{X: max.X, Y: max.Y}, Texcoord: Vec2{X: 1, Y: 1}},
		{Position: Vec2{X: max.X, Y: min.Y}, Texcoord: Vec2{X: 1, Y: 0}},
	}
}

// Flatten3 packs vectors as consecutive float32 triples.
func Flatten3(vs []Vec3) []float32 {
	out := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v.X, v.Y, v.Z)
	}
	return out
}

// FlattenVertex2D packs vertices as position.xy, texcoord.xy.
func FlattenVertex2D(vs []Vertex2D) []float32 {
	out := make([]float32, 0, len(vs)*4)
	for _, v := range vs {
		out = append(out, v.Position.X, v.Position.Y, v.Texcoord.X, v.Texcoord.Y)
	}
	return out
}
