package vulkan

import (
	"fmt"
	"strings"

	vk "github.com/goki/vulkan"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/loop/engine/core"
)

// AssetReader returns the bytes of a named asset, or nil when it is missing.
type AssetReader interface {
	Read(name string) []byte
}

type VertexBinding struct {
	Binding   uint32 `yaml:"binding"`
	Stride    uint32 `yaml:"stride"`
	Instanced bool   `yaml:"instanced"`
}

type VertexAttribute struct {
	Location uint32 `yaml:"location"`
	Binding  uint32 `yaml:"binding"`
	Offset   uint32 `yaml:"offset"`
	Format   string `yaml:"format"`
}

// MaterialDescription is the YAML form of a material.
type MaterialDescription struct {
	Vert       string            `yaml:"vert"`
	Frag       string            `yaml:"frag"`
	Bindings   []VertexBinding   `yaml:"bindings"`
	Attributes []VertexAttribute `yaml:"attributes"`
	DepthTest  *bool             `yaml:"depth_test,omitempty"`
	Blend      string            `yaml:"blend,omitempty"`
	Textures   uint32            `yaml:"textures,omitempty"`
}

var attributeFormats = map[string]vk.Format{
	"r32_sfloat":          vk.FormatR32Sfloat,
	"r32g32_sfloat":       vk.FormatR32g32Sfloat,
	"r32g32b32_sfloat":    vk.FormatR32g32b32Sfloat,
	"r32g32b32a32_sfloat": vk.FormatR32g32b32a32Sfloat,
	"r8g8b8a8_unorm":      vk.FormatR8g8b8a8Unorm,
	"r32_uint":            vk.FormatR32Uint,
}

const defaultAttributeFormat = "r32g32b32_sfloat"

// ParseMaterial decodes and validates a material description, filling in
// defaults.
func ParseMaterial(data []byte) (MaterialDescription, error) {
	var desc MaterialDescription
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return MaterialDescription{}, fmt.Errorf("parse material: %w", err)
	}
	if desc.Vert == "" || desc.Frag == "" {
		return MaterialDescription{}, fmt.Errorf("parse material: vert and frag are required")
	}
	if desc.DepthTest == nil {
		enabled := true
		desc.DepthTest = &enabled
	}
	if desc.Blend == "" {
		desc.Blend = "alpha"
	}
	if desc.Blend != "alpha" && desc.Blend != "none" {
		return MaterialDescription{}, fmt.Errorf("parse material: unknown blend mode %q", desc.Blend)
	}

	bound := make(map[uint32]bool, len(desc.Bindings))
	for _, b := range desc.Bindings {
		if bound[b.Binding] {
			return MaterialDescription{}, fmt.Errorf("parse material: binding %d declared twice", b.Binding)
		}
		bound[b.Binding] = true
	}
	for i := range desc.Attributes {
		a := &desc.Attributes[i]
		if a.Format == "" {
			a.Format = defaultAttributeFormat
		}
		a.Format = strings.ToLower(a.Format)
		if _, ok := attributeFormats[a.Format]; !ok {
			return MaterialDescription{}, fmt.Errorf("parse material: attribute %d has unknown format %q", a.Location, a.Format)
		}
		if !bound[a.Binding] {
			return MaterialDescription{}, fmt.Errorf("parse material: attribute %d reads undeclared binding %d", a.Location, a.Binding)
		}
	}
	return desc, nil
}

func (d MaterialDescription) vertexBindings() []vk.VertexInputBindingDescription {
	out := make([]vk.VertexInputBindingDescription, 0, len(d.Bindings))
	for _, b := range d.Bindings {
		rate := vk.VertexInputRateVertex
		if b.Instanced {
			rate = vk.VertexInputRateInstance
		}
		out = append(out, vk.VertexInputBindingDescription{
			Binding:   b.Binding,
			Stride:    b.Stride,
			InputRate: rate,
		})
	}
	return out
}

func (d MaterialDescription) vertexAttributes() []vk.VertexInputAttributeDescription {
	out := make([]vk.VertexInputAttributeDescription, 0, len(d.Attributes))
	for _, a := range d.Attributes {
		out = append(out, vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   attributeFormats[a.Format],
			Offset:   a.Offset,
		})
	}
	return out
}

// Material is a graphics pipeline built from a description, plus the texture
// set when the description asks for one.
type Material struct {
	Name        string
	Description MaterialDescription
	Pipeline    *Pipeline
	Textures    *TextureDescriptors

	graphics *Graphics
	bound    map[uint32]*Texture
}

// NewMaterial loads the description named name and its shaders from assets.
func NewMaterial(g *Graphics, assets AssetReader, name string) (*Material, error) {
	logger := core.SubLogger("material")
	raw := assets.Read(name)
	if raw == nil {
		logger.Error("material not found", "name", name)
		return nil, fmt.Errorf("material %q: %w", name, core.ErrAssetNotFound)
	}
	desc, err := ParseMaterial(raw)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", name, err)
	}

	device := g.device()
	m := &Material{Name: name, Description: desc, graphics: g}

	vert, err := loadStage(device, assets, desc.Vert, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", name, err)
	}
	defer vert.Destroy(device)
	frag, err := loadStage(device, assets, desc.Frag, vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", name, err)
	}
	defer frag.Destroy(device)

	layouts := []vk.DescriptorSetLayout{g.GlobalLayout()}
	if desc.Textures > 0 {
		m.Textures, err = NewTextureDescriptors(device, desc.Textures)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		layouts = append(layouts, m.Textures.Layout)
	}

	m.Pipeline, err = NewGraphicsPipeline(device, &PipelineConfig{
		RenderPass:           g.RenderPass(),
		Bindings:             desc.vertexBindings(),
		Attributes:           desc.vertexAttributes(),
		DescriptorSetLayouts: layouts,
		Stages:               []vk.PipelineShaderStageCreateInfo{vert.CreateInfo, frag.CreateInfo},
		DepthTest:            *desc.DepthTest,
		AlphaBlend:           desc.Blend == "alpha",
	})
	if err != nil {
		m.Destroy()
		return nil, fmt.Errorf("material %q: %w", name, err)
	}
	logger.Debug("material created", "name", name, "textures", desc.Textures)
	return m, nil
}

func loadStage(device vk.Device, assets AssetReader, name string, stage vk.ShaderStageFlagBits) (*ShaderStage, error) {
	code := assets.Read(name)
	if code == nil {
		return nil, fmt.Errorf("shader %q: %w", name, core.ErrAssetNotFound)
	}
	return NewShaderStage(device, code, stage)
}

// SetTexture points a texture binding of set 1 at t.
func (m *Material) SetTexture(binding uint32, t *Texture) error {
	if m.Textures == nil {
		return fmt.Errorf("material %q has no texture bindings", m.Name)
	}
	if err := m.Textures.Write(binding, t); err != nil {
		return err
	}
	if m.bound == nil {
		m.bound = make(map[uint32]*Texture)
	}
	m.bound[binding] = t
	return nil
}

// Reload rebuilds the material from the current bytes in assets and points
// the new texture set at the textures bound before. The Material keeps its
// identity; on error the previous pipeline stays in use.
func (m *Material) Reload(assets AssetReader) error {
	fresh, err := NewMaterial(m.graphics, assets, m.Name)
	if err != nil {
		return err
	}
	for binding, t := range m.bound {
		if err := fresh.SetTexture(binding, t); err != nil {
			fresh.Destroy()
			return fmt.Errorf("material %q: rebind texture %d: %w", m.Name, binding, err)
		}
	}
	// Frames in flight may still reference the old pipeline.
	if err := m.graphics.WaitIdle(); err != nil {
		fresh.Destroy()
		return err
	}
	m.Destroy()
	m.Description = fresh.Description
	m.Pipeline = fresh.Pipeline
	m.Textures = fresh.Textures
	m.bound = fresh.bound
	core.SubLogger("material").Info("material reloaded", "name", m.Name)
	return nil
}

// Bind binds the pipeline, the global set and the texture set if any.
func (m *Material) Bind(cb *CommandBuffer) {
	m.Pipeline.Bind(cb)
	m.graphics.BindGlobalDescriptorSets(cb, m.Pipeline.Layout, 0)
	if m.Textures != nil {
		vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, m.Pipeline.Layout, 1, 1,
			[]vk.DescriptorSet{m.Textures.Set}, 0, nil)
	}
}

func (m *Material) Destroy() {
	device := m.graphics.device()
	if m.Pipeline != nil {
		m.Pipeline.Destroy(device)
		m.Pipeline = nil
	}
	if m.Textures != nil {
		m.Textures.Destroy()
		m.Textures = nil
	}
}
