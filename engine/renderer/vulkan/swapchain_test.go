package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	assert.Equal(t, preferred, chooseSurfaceFormat([]vk.SurfaceFormat{other, preferred}))
	assert.Equal(t, other, chooseSurfaceFormat([]vk.SurfaceFormat{other}))
	assert.Equal(t, preferred, chooseSurfaceFormat(nil))
}

func TestChoosePresentMode(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}

	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(modes, "fifo"))
	assert.Equal(t, vk.PresentModeMailbox, choosePresentMode(modes, "mailbox"))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{vk.PresentModeFifo}, "mailbox"))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(modes, ""))
}

func TestClampImageCount(t *testing.T) {
	tests := []struct {
		name      string
		requested uint32
		min, max  uint32
		want      uint32
	}{
		{"within limits", 3, 2, 8, 3},
		{"raised to minimum", 1, 2, 8, 2},
		{"capped at maximum", 3, 1, 2, 2},
		{"no upper limit", 5, 2, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
			assert.Equal(t, tt.want, clampImageCount(tt.requested, caps))
		})
	}
}

func TestSelectQueueFamilies(t *testing.T) {
	graphics := vk.QueueFlags(vk.QueueGraphicsBit)
	compute := vk.QueueFlags(vk.QueueComputeBit)

	t.Run("prefers a combined family", func(t *testing.T) {
		got, ok := selectQueueFamilies(
			[]vk.QueueFlags{graphics, compute, graphics | compute},
			[]bool{false, true, true})
		assert.True(t, ok)
		assert.Equal(t, queueFamilyInfo{graphics: 2, present: 2}, got)
	})

	t.Run("falls back to separate families", func(t *testing.T) {
		got, ok := selectQueueFamilies(
			[]vk.QueueFlags{graphics, compute},
			[]bool{false, true})
		assert.True(t, ok)
		assert.Equal(t, queueFamilyInfo{graphics: 0, present: 1}, got)
	})

	t.Run("no presentation", func(t *testing.T) {
		_, ok := selectQueueFamilies([]vk.QueueFlags{graphics}, []bool{false})
		assert.False(t, ok)
	})

	t.Run("no graphics", func(t *testing.T) {
		_, ok := selectQueueFamilies([]vk.QueueFlags{compute}, []bool{true})
		assert.False(t, ok)
	})
}
