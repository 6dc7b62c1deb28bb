package input

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/events"
	"github.com/spaghettifunk/loop/engine/math"
)

// axisRampPerSecond is how fast an axis side moves towards its target.
const axisRampPerSecond = 10.0

// Source is the raw device state polled once per update.
type Source interface {
	KeyPressed(key int) bool
	CursorPosition() (float64, float64)
}

type ButtonPressEvent struct {
	Name string
}

type ButtonReleaseEvent struct {
	Name string
}

// AxisEvent carries positive minus negative, in [-1, 1].
type AxisEvent struct {
	Name  string
	Value float32
}

type axisBinding struct {
	positive Key
	negative Key

	positiveValue float32
	negativeValue float32
}

func (a *axisBinding) value() float32 {
	return a.positiveValue - a.negativeValue
}

// System maps named buttons and axes to keys and publishes edge events on
// the engine queue.
type System struct {
	queue  *events.EventQueue
	source Source
	logger *log.Logger

	buttons map[string]Key
	axes    map[string]*axisBinding
	pressed map[string]bool

	mousePosition math.Vec2
	mouseDelta    math.Vec2
	primed        bool
}

func New(q *events.EventQueue, source Source) *System {
	return &System{
		queue:   q,
		source:  source,
		logger:  core.SubLogger("input"),
		buttons: make(map[string]Key),
		axes:    make(map[string]*axisBinding),
		pressed: make(map[string]bool),
	}
}

func (s *System) BindButton(name string, key Key) {
	s.buttons[name] = key
	delete(s.pressed, name)
}

func (s *System) BindAxis(name string, positive, negative Key) {
	s.axes[name] = &axisBinding{positive: positive, negative: negative}
}

func (s *System) Unbind(name string) {
	delete(s.buttons, name)
	delete(s.axes, name)
	delete(s.pressed, name)
}

// Update polls the source. Buttons publish press and release edges; an axis
// publishes its value whenever either side moved.
func (s *System) Update(dt float32) {
	x, y := s.source.CursorPosition()
	position := math.NewVec2(float32(x), float32(y))
	if s.primed {
		s.mouseDelta = position.Sub(s.mousePosition)
	} else {
		// The first sample has no previous position to diff against.
		s.mouseDelta = math.Vec2{}
		s.primed = true
	}
	s.mousePosition = position

	for _, name := range sortedKeys(s.buttons) {
		key := s.buttons[name]
		down := s.source.KeyPressed(int(key))
		switch {
		case down && !s.pressed[name]:
			s.pressed[name] = true
			events.Send(s.queue, ButtonPressEvent{Name: name})
		case !down && s.pressed[name]:
			s.pressed[name] = false
			events.Send(s.queue, ButtonReleaseEvent{Name: name})
		}
	}

	step := dt * axisRampPerSecond
	for _, name := range sortedKeys(s.axes) {
		axis := s.axes[name]
		changed := ramp(&axis.positiveValue, s.source.KeyPressed(int(axis.positive)), step)
		changed = ramp(&axis.negativeValue, s.source.KeyPressed(int(axis.negative)), step) || changed
		if changed {
			events.Send(s.queue, AxisEvent{Name: name, Value: axis.value()})
		}
	}
}

// ramp moves v towards 1 while down and towards 0 otherwise. A held key
// always counts as a change so listeners keep receiving the value.
func ramp(v *float32, down bool, step float32) bool {
	if down {
		if *v < 1 {
			*v = math.Clamp(*v+step, 0, 1)
		}
		return true
	}
	if *v > 0 {
		*v = math.Clamp(*v-step, 0, 1)
		return true
	}
	return false
}

// Axis returns the current value of a bound axis, or 0.
func (s *System) Axis(name string) float32 {
	if axis, ok := s.axes[name]; ok {
		return axis.value()
	}
	return 0
}

// Button reports whether a bound button is held.
func (s *System) Button(name string) bool {
	return s.pressed[name]
}

// MouseDelta is the cursor movement since the previous Update.
func (s *System) MouseDelta() math.Vec2 {
	return s.mouseDelta
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
