package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

/**
 * @brief Indexed geometry held in host-visible buffers. Per-instance data is
 * bound separately at draw time.
 */
type Mesh struct {
	/** @brief Per-vertex data, bound at binding 0. */
	Vertices *Buffer
	/** @brief 32-bit indices. */
	Indices *Buffer
	/** @brief The index count. */
	IndexCount uint32
}

func NewMesh(ctx *Context, vertices []float32, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("create mesh: no vertices or indices")
	}
	m := &Mesh{IndexCount: uint32(len(indices))}

	var err error
	if m.Vertices, err = NewVertexBuffer(ctx, uint64(len(vertices)*4)); err != nil {
		return nil, err
	}
	if err := m.Vertices.UpdateFloat32(vertices); err != nil {
		m.Destroy()
		return nil, err
	}
	if m.Indices, err = NewIndexBuffer(ctx, uint64(len(indices)*4)); err != nil {
		m.Destroy()
		return nil, err
	}
	if err := m.Indices.UpdateUint32(indices); err != nil {
		m.Destroy()
		return nil, err
	}
	return m, nil
}

// Draw binds the mesh at binding 0, the instance buffers at the following
// bindings, and issues one indexed draw.
func (m *Mesh) Draw(cb *CommandBuffer, instanceCount uint32, instances ...*Buffer) {
	if instanceCount == 0 {
		return
	}
	buffers := []vk.Buffer{m.Vertices.Handle}
	offsets := []vk.DeviceSize{0}
	for _, b := range instances {
		buffers = append(buffers, b.Handle)
		offsets = append(offsets, 0)
	}
	vk.CmdBindVertexBuffers(cb.Handle, 0, uint32(len(buffers)), buffers, offsets)
	vk.CmdBindIndexBuffer(cb.Handle, m.Indices.Handle, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(cb.Handle, m.IndexCount, instanceCount, 0, 0, 0)
}

func (m *Mesh) Destroy() {
	if m.Vertices != nil {
		m.Vertices.Destroy()
		m.Vertices = nil
	}
	if m.Indices != nil {
		m.Indices.Destroy()
		m.Indices = nil
	}
}
