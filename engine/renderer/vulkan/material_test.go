package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const particleMaterial = `
vert: shaders/particle.vert.spv
frag: shaders/particle.frag.spv
bindings:
  - binding: 0
    stride: 12
  - binding: 1
    stride: 28
    instanced: true
attributes:
  - location: 0
    binding: 0
    offset: 0
  - location: 1
    binding: 1
    offset: 0
  - location: 2
    binding: 1
    offset: 12
    format: R32G32B32A32_SFLOAT
`

func TestParseMaterialDefaults(t *testing.T) {
	desc, err := ParseMaterial([]byte(particleMaterial))
	require.NoError(t, err)

	assert.Equal(t, "shaders/particle.vert.spv", desc.Vert)
	require.NotNil(t, desc.DepthTest)
	assert.True(t, *desc.DepthTest)
	assert.Equal(t, "alpha", desc.Blend)
	assert.Zero(t, desc.Textures)
	assert.Equal(t, defaultAttributeFormat, desc.Attributes[0].Format)
	assert.Equal(t, "r32g32b32a32_sfloat", desc.Attributes[2].Format)
}

func TestParseMaterialVertexInput(t *testing.T) {
	desc, err := ParseMaterial([]byte(particleMaterial))
	require.NoError(t, err)

	bindings := desc.vertexBindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, vk.VertexInputRateVertex, bindings[0].InputRate)
	assert.Equal(t, vk.VertexInputRateInstance, bindings[1].InputRate)
	assert.Equal(t, uint32(28), bindings[1].Stride)

	attributes := desc.vertexAttributes()
	require.Len(t, attributes, 3)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attributes[1].Format)
	assert.Equal(t, vk.FormatR32g32b32a32Sfloat, attributes[2].Format)
	assert.Equal(t, uint32(12), attributes[2].Offset)
}

func TestParseMaterialOverrides(t *testing.T) {
	desc, err := ParseMaterial([]byte(`
vert: hud.vert.spv
frag: hud.frag.spv
depth_test: false
blend: none
textures: 1
`))
	require.NoError(t, err)
	assert.False(t, *desc.DepthTest)
	assert.Equal(t, "none", desc.Blend)
	assert.Equal(t, uint32(1), desc.Textures)
}

func TestParseMaterialErrors(t *testing.T) {
	tests := map[string]string{
		"missing shaders": `bindings: []`,
		"bad yaml":        `vert: [`,
		"unknown blend":   "vert: a\nfrag: b\nblend: additive",
		"unknown format":  "vert: a\nfrag: b\nbindings: [{binding: 0, stride: 4}]\nattributes: [{location: 0, binding: 0, format: r64_sfloat}]",
		"unbound input":   "vert: a\nfrag: b\nattributes: [{location: 0, binding: 3}]",
		"duplicate":       "vert: a\nfrag: b\nbindings: [{binding: 0, stride: 4}, {binding: 0, stride: 8}]",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMaterial([]byte(src))
			assert.Error(t, err)
		})
	}
}
