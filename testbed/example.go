package testbed

import (
	"fmt"
	"strconv"

	"github.com/spaghettifunk/loop/engine"
	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/math"
	"github.com/spaghettifunk/loop/engine/ui"
)

var startPosition = math.NewVec3(0, 0, -50)

// Example is the fireworks demo: particles, a fly camera and the HUD.
type Example struct {
	app        *engine.Application
	fireworks  *Fireworks
	controller *CameraController
	hud        *ui.HUD
}

// NewExample builds the demo modules and attaches them to app.
func NewExample(app *engine.Application, seed uint64) *Example {
	e := &Example{
		app:        app,
		fireworks:  NewFireworks(app.Graphics(), app.Assets(), seed),
		controller: NewCameraController(app.Events(), app.Camera(), app.Input(), app.Window()),
		hud:        ui.NewHUD(app.Graphics(), app.Assets(), app.Metrics()),
	}
	app.Attach(e)
	app.Attach(e.fireworks)
	app.Attach(e.controller)
	app.Attach(e.hud)
	return e
}

func (e *Example) OnCreate() {
	core.LogInfo("fireworks example starting")
	e.app.Camera().SetTransform(startPosition, math.NewVec3Zero())
	e.hud.SetLine("controls", "C lock mouse, WASD fly")
}

func (e *Example) OnUpdate(float32) {
	e.hud.SetLine("particles", strconv.Itoa(e.fireworks.Count()))
	p := e.app.Camera().Position()
	e.hud.SetLine("camera", fmt.Sprintf("%.1f %.1f %.1f", p.X, p.Y, p.Z))
}
