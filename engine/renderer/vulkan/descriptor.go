package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/math"
)

// GlobalUniformSize is the size of the per-frame uniform block: a projection
// and a view matrix.
const GlobalUniformSize = 2 * 16 * 4

// GlobalDescriptors is descriptor set 0, shared by every material. There is
// one set and one uniform buffer per frame slot so a slot can be written
// while the others are still in flight.
type GlobalDescriptors struct {
	Layout   vk.DescriptorSetLayout
	Pool     vk.DescriptorPool
	Sets     []vk.DescriptorSet
	Uniforms []*Buffer

	device vk.Device
}

func NewGlobalDescriptors(ctx *Context, slots int) (*GlobalDescriptors, error) {
	device := ctx.Device.LogicalDevice
	g := &GlobalDescriptors{device: device}

	layout, err := newSetLayout(device, []vk.DescriptorSetLayoutBinding{{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}})
	if err != nil {
		return nil, fmt.Errorf("global descriptor layout: %w", err)
	}
	g.Layout = layout

	pool, err := newDescriptorPool(device, vk.DescriptorTypeUniformBuffer, uint32(slots), uint32(slots))
	if err != nil {
		g.Destroy()
		return nil, fmt.Errorf("global descriptor pool: %w", err)
	}
	g.Pool = pool

	g.Sets, err = allocateSets(device, g.Pool, g.Layout, slots)
	if err != nil {
		g.Destroy()
		return nil, fmt.Errorf("global descriptor sets: %w", err)
	}

	for i := 0; i < slots; i++ {
		ubo, err := NewUniformBuffer(ctx, GlobalUniformSize)
		if err != nil {
			g.Destroy()
			return nil, err
		}
		g.Uniforms = append(g.Uniforms, ubo)

		bufferInfo := []vk.DescriptorBufferInfo{{
			Buffer: ubo.Handle,
			Offset: 0,
			Range:  vk.DeviceSize(GlobalUniformSize),
		}}
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          g.Sets[i],
			DstBinding:      0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     bufferInfo,
		}
		vk.UpdateDescriptorSets(device, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	}
	return g, nil
}

// Update writes the camera matrices into the uniform buffer of slot.
func (g *GlobalDescriptors) Update(slot int, projection, view math.Mat4) error {
	if slot < 0 || slot >= len(g.Uniforms) {
		return fmt.Errorf("global uniforms: slot %d out of range", slot)
	}
	data := make([]float32, 0, 32)
	data = append(data, projection.Data[:]...)
	data = append(data, view.Data[:]...)
	return g.Uniforms[slot].UpdateFloat32(data)
}

func (g *GlobalDescriptors) Destroy() {
	for _, ubo := range g.Uniforms {
		ubo.Destroy()
	}
	g.Uniforms = nil
	// Sets are released with the pool.
	g.Sets = nil
	if g.Pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(g.device, g.Pool, nil)
		g.Pool = vk.NullDescriptorPool
	}
	if g.Layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(g.device, g.Layout, nil)
		g.Layout = vk.NullDescriptorSetLayout
	}
}

// TextureDescriptors is descriptor set 1 of a material with count combined
// image samplers in the fragment stage.
type TextureDescriptors struct {
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
	Set    vk.DescriptorSet
	Count  uint32

	device vk.Device
}

func NewTextureDescriptors(device vk.Device, count uint32) (*TextureDescriptors, error) {
	t := &TextureDescriptors{Count: count, device: device}

	bindings := make([]vk.DescriptorSetLayoutBinding, count)
	for i := range bindings {
		bindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         uint32(i),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}
	}
	layout, err := newSetLayout(device, bindings)
	if err != nil {
		return nil, fmt.Errorf("texture descriptor layout: %w", err)
	}
	t.Layout = layout

	pool, err := newDescriptorPool(device, vk.DescriptorTypeCombinedImageSampler, count, 1)
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("texture descriptor pool: %w", err)
	}
	t.Pool = pool

	sets, err := allocateSets(device, t.Pool, t.Layout, 1)
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("texture descriptor set: %w", err)
	}
	t.Set = sets[0]
	return t, nil
}

// Write points binding at the texture. The set must not be in use by a
// pending command buffer.
func (t *TextureDescriptors) Write(binding uint32, texture *Texture) error {
	if binding >= t.Count {
		return fmt.Errorf("texture binding %d out of range (%d bindings)", binding, t.Count)
	}
	imageInfo := []vk.DescriptorImageInfo{{
		Sampler:     texture.Sampler,
		ImageView:   texture.Image.View,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          t.Set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      imageInfo,
	}
	vk.UpdateDescriptorSets(t.device, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	return nil
}

func (t *TextureDescriptors) Destroy() {
	if t.Pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(t.device, t.Pool, nil)
		t.Pool = vk.NullDescriptorPool
	}
	if t.Layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(t.device, t.Layout, nil)
		t.Layout = vk.NullDescriptorSetLayout
	}
}

func newSetLayout(device vk.Device, bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := Check(vk.CreateDescriptorSetLayout(device, &createInfo, nil, &layout)); err != nil {
		return vk.NullDescriptorSetLayout, err
	}
	return layout, nil
}

func newDescriptorPool(device vk.Device, kind vk.DescriptorType, descriptors, maxSets uint32) (vk.DescriptorPool, error) {
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            kind,
			DescriptorCount: descriptors,
		}},
	}
	var pool vk.DescriptorPool
	if err := Check(vk.CreateDescriptorPool(device, &createInfo, nil, &pool)); err != nil {
		return vk.NullDescriptorPool, err
	}
	return pool, nil
}

func allocateSets(device vk.Device, pool vk.DescriptorPool, layout vk.DescriptorSetLayout, count int) ([]vk.DescriptorSet, error) {
	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout
	}
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: uint32(count),
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, count)
	if err := Check(vk.AllocateDescriptorSets(device, &allocateInfo, &sets[0])); err != nil {
		return nil, err
	}
	return sets, nil
}
