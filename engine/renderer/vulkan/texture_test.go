package vulkan

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackedPixelsTightImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.Equal(t, img.Pix, packedPixels(img))
}

func TestPackedPixelsDropsStride(t *testing.T) {
	parent := image.NewRGBA(image.Rect(0, 0, 4, 4))
	parent.Set(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	parent.Set(2, 2, color.RGBA{R: 5, G: 6, B: 7, A: 8})
	sub := parent.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)

	got := packedPixels(sub)
	assert.Len(t, got, 2*2*4)
	assert.Equal(t, []byte{1, 2, 3, 4}, got[0:4])
	assert.Equal(t, []byte{5, 6, 7, 8}, got[12:16])
}
