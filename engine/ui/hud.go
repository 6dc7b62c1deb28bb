package ui

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/charmbracelet/log"
	vk "github.com/goki/vulkan"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/loop/engine/assets"
	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/math"
	"github.com/spaghettifunk/loop/engine/renderer/vulkan"
)

const (
	PanelWidth  = 256
	PanelHeight = 128

	// MaterialName is the HUD material inside the asset blob.
	MaterialName = "materials/hud.yaml"

	refreshInterval float32 = 0.25
	panelMargin             = 8
	textPadding             = 6
)

var panelBackground = color.RGBA{R: 0, G: 0, B: 0, A: 160}

// HUD draws a small text panel in the top left corner of the default render
// pass. Frame metrics are always shown; other lines are set with SetLine.
type HUD struct {
	graphics *vulkan.Graphics
	assets   vulkan.AssetReader
	metrics  *core.Metrics
	logger   *log.Logger

	lines   map[string]string
	elapsed float32

	material *vulkan.Material
	texture  *vulkan.Texture
	quad     *vulkan.Mesh
	extent   vk.Extent2D
	disabled bool
}

func NewHUD(g *vulkan.Graphics, assets vulkan.AssetReader, metrics *core.Metrics) *HUD {
	return &HUD{
		graphics: g,
		assets:   assets,
		metrics:  metrics,
		logger:   core.SubLogger("hud"),
		lines:    make(map[string]string),
	}
}

// SetLine shows text under key. An empty text removes the line.
func (h *HUD) SetLine(key, text string) {
	if text == "" {
		delete(h.lines, key)
		return
	}
	h.lines[key] = text
}

// Lines returns the text the next refresh will draw.
func (h *HUD) Lines() []string {
	fps, frameMS := h.metrics.Frame()
	out := []string{
		fmt.Sprintf("FPS: %.0f", fps),
		fmt.Sprintf("Frame: %.2f ms", frameMS),
	}
	keys := make([]string, 0, len(h.lines))
	for k := range h.lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %s", k, h.lines[k]))
	}
	return out
}

func (h *HUD) OnCreate() {
	if err := h.create(); err != nil {
		// The engine keeps running without an overlay.
		h.logger.Error("hud disabled", "err", err)
		h.release()
		h.disabled = true
	}
}

func (h *HUD) create() error {
	var err error
	if h.material, err = vulkan.NewMaterial(h.graphics, h.assets, MaterialName); err != nil {
		return err
	}
	if h.texture, err = vulkan.NewTexture(h.graphics, Rasterize(h.Lines())); err != nil {
		return err
	}
	if err := h.material.SetTexture(0, h.texture); err != nil {
		return err
	}
	return h.resize()
}

// resize rebuilds the quad when the surface changed size.
func (h *HUD) resize() error {
	extent := h.graphics.SurfaceExtent()
	if h.quad != nil && extent == h.extent {
		return nil
	}
	if h.quad != nil {
		if err := h.graphics.WaitIdle(); err != nil {
			return err
		}
		h.quad.Destroy()
		h.quad = nil
	}
	vertices := PanelVertices(extent.Width, extent.Height)
	quad, err := vulkan.NewMesh(h.graphics.Context, math.FlattenVertex2D(vertices), math.QuadIndices)
	if err != nil {
		return err
	}
	h.quad = quad
	h.extent = extent
	return nil
}

func (h *HUD) OnUpdate(dt float32) {
	if h.disabled {
		return
	}
	h.elapsed += dt
	if h.elapsed < refreshInterval {
		return
	}
	h.elapsed = 0

	if err := h.texture.Update(h.graphics, Rasterize(h.Lines())); err != nil {
		h.logger.Warn("hud refresh failed", "err", err)
	}
	if err := h.resize(); err != nil {
		h.logger.Warn("hud resize failed", "err", err)
	}
}

func (h *HUD) OnAfterDraw(cmd vk.CommandBuffer) {
	if h.disabled {
		return
	}
	cb := &vulkan.CommandBuffer{Handle: cmd, State: vulkan.CommandBufferInRenderPass}
	h.material.Bind(cb)
	h.quad.Draw(cb, 1)
}

// OnAssetsReloaded rebuilds the panel material from the new blob. A HUD that
// was disabled for a missing material tries again.
func (h *HUD) OnAssetsReloaded(ev assets.ReloadedEvent) {
	if h.graphics == nil {
		return
	}
	if h.disabled {
		h.disabled = false
		h.OnCreate()
		return
	}
	if h.material == nil {
		return
	}
	if err := h.material.Reload(h.assets); err != nil {
		h.logger.Warn("hud material reload failed", "build", ev.BuildID, "err", err)
	}
}

func (h *HUD) OnDestroy() {
	h.release()
}

func (h *HUD) release() {
	if h.quad != nil {
		h.quad.Destroy()
		h.quad = nil
	}
	if h.texture != nil {
		h.texture.Destroy(h.graphics.Context.Device.LogicalDevice)
		h.texture = nil
	}
	if h.material != nil {
		h.material.Destroy()
		h.material = nil
	}
}

// PanelVertices places the panel in the top left corner of a width x height
// surface, in clip space with y pointing down.
func PanelVertices(width, height uint32) []math.Vertex2D {
	if width == 0 || height == 0 {
		width, height = PanelWidth, PanelHeight
	}
	toClip := func(px, extent float32) float32 {
		return px/extent*2 - 1
	}
	w, hgt := float32(width), float32(height)
	topLeft := math.NewVec2(toClip(panelMargin, w), toClip(panelMargin, hgt))
	bottomRight := math.NewVec2(toClip(panelMargin+PanelWidth, w), toClip(panelMargin+PanelHeight, hgt))
	return math.QuadVertices2D(topLeft, bottomRight)
}

// Rasterize draws lines in white on a translucent PanelWidth x PanelHeight
// image. Lines that do not fit are clipped.
func Rasterize(lines []string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, PanelWidth, PanelHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(panelBackground), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
	}
	for i, line := range lines {
		baseline := textPadding + face.Ascent + i*lineHeight
		if baseline+face.Descent > PanelHeight {
			break
		}
		d.Dot = fixed.P(textPadding, baseline)
		d.DrawString(line)
	}
	return img
}
