package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/loop/engine/events"
	"github.com/spaghettifunk/loop/engine/math"
)

type fakeSource struct {
	keys map[int]bool
	x, y float64
}

func newFakeSource() *fakeSource {
	return &fakeSource{keys: make(map[int]bool)}
}

func (f *fakeSource) KeyPressed(key int) bool {
	return f.keys[key]
}

func (f *fakeSource) CursorPosition() (float64, float64) {
	return f.x, f.y
}

type recorder struct {
	presses  []string
	releases []string
	axes     []AxisEvent
}

func record(q *events.EventQueue) *recorder {
	r := &recorder{}
	events.Subscribe(q, func(e ButtonPressEvent) { r.presses = append(r.presses, e.Name) })
	events.Subscribe(q, func(e ButtonReleaseEvent) { r.releases = append(r.releases, e.Name) })
	events.Subscribe(q, func(e AxisEvent) { r.axes = append(r.axes, e) })
	return r
}

func TestButtonEdges(t *testing.T) {
	q := events.NewEventQueue()
	src := newFakeSource()
	s := New(q, src)
	r := record(q)
	s.BindButton("sprint", KEY_LEFT_SHIFT)

	s.Update(0.016)
	assert.Empty(t, r.presses)

	src.keys[int(KEY_LEFT_SHIFT)] = true
	s.Update(0.016)
	s.Update(0.016)
	assert.Equal(t, []string{"sprint"}, r.presses)
	assert.True(t, s.Button("sprint"))

	src.keys[int(KEY_LEFT_SHIFT)] = false
	s.Update(0.016)
	s.Update(0.016)
	assert.Equal(t, []string{"sprint"}, r.releases)
	assert.False(t, s.Button("sprint"))
	assert.False(t, s.Button("unbound"))
}

func TestButtonsSharingAKeyBothFire(t *testing.T) {
	q := events.NewEventQueue()
	src := newFakeSource()
	s := New(q, src)
	r := record(q)
	s.BindButton("jump", KEY_SPACE)
	s.BindButton("confirm", KEY_SPACE)

	src.keys[int(KEY_SPACE)] = true
	s.Update(0.016)
	assert.Equal(t, []string{"confirm", "jump"}, r.presses)
}

func TestAxisRamps(t *testing.T) {
	q := events.NewEventQueue()
	src := newFakeSource()
	s := New(q, src)
	r := record(q)
	s.BindAxis("move", KEY_W, KEY_S)

	s.Update(0.05)
	assert.Empty(t, r.axes, "idle axis publishes nothing")

	src.keys[int(KEY_W)] = true
	s.Update(0.05)
	assert.InDelta(t, 0.5, s.Axis("move"), 1e-6)
	s.Update(0.05)
	assert.InDelta(t, 1.0, s.Axis("move"), 1e-6)
	s.Update(0.05)
	assert.InDelta(t, 1.0, s.Axis("move"), 1e-6, "clamped at one")
	require.Len(t, r.axes, 3)
	assert.Equal(t, "move", r.axes[0].Name)

	src.keys[int(KEY_W)] = false
	src.keys[int(KEY_S)] = true
	s.Update(0.05)
	assert.InDelta(t, 0.0, s.Axis("move"), 1e-6)
	s.Update(0.2)
	assert.InDelta(t, -1.0, s.Axis("move"), 1e-6)

	src.keys[int(KEY_S)] = false
	for i := 0; i < 5; i++ {
		s.Update(0.05)
	}
	assert.InDelta(t, 0.0, s.Axis("move"), 1e-6)
	published := len(r.axes)
	s.Update(0.05)
	assert.Len(t, r.axes, published, "settled axis stops publishing")
	assert.Zero(t, s.Axis("unbound"))
}

func TestMouseDelta(t *testing.T) {
	src := newFakeSource()
	s := New(events.NewEventQueue(), src)

	src.x, src.y = 100, 50
	s.Update(0)
	assert.Equal(t, math.Vec2{}, s.MouseDelta())

	src.x, src.y = 110, 45
	s.Update(0.016)
	assert.Equal(t, math.NewVec2(10, -5), s.MouseDelta())

	s.Update(0.016)
	assert.Equal(t, math.Vec2{}, s.MouseDelta())
}

func TestLoadBindings(t *testing.T) {
	s := New(events.NewEventQueue(), newFakeSource())
	err := s.LoadBindingsData([]byte(`
- type: button
  name: camera
  keycode: 67
- type: button
  name: sprint
  keycode: LEFT_SHIFT
- type: axis
  name: move
  positive: W
  negative: S
- type: joystick
  name: ignored
- type: axis
  name: broken
  positive: A
`))
	require.NoError(t, err)
	assert.Equal(t, KEY_C, s.buttons["camera"])
	assert.Equal(t, KEY_LEFT_SHIFT, s.buttons["sprint"])
	require.Contains(t, s.axes, "move")
	assert.Equal(t, KEY_W, s.axes["move"].positive)
	assert.NotContains(t, s.axes, "broken")
	assert.NotContains(t, s.buttons, "ignored")
}

func TestLoadBindingsRejectsBadKeys(t *testing.T) {
	s := New(events.NewEventQueue(), newFakeSource())
	assert.Error(t, s.LoadBindingsData([]byte("- {type: button, name: x, keycode: NOPE}")))
	assert.Error(t, s.LoadBindingsData([]byte("not: [a sequence")))
}

func TestSaveAndLoadBindings(t *testing.T) {
	s := New(events.NewEventQueue(), newFakeSource())
	s.BindButton("camera", KEY_C)
	s.BindAxis("strafe", KEY_D, KEY_A)

	path := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, s.SaveBindings(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "keycode: 67")
	assert.Contains(t, string(data), "positive: 68")

	loaded := New(events.NewEventQueue(), newFakeSource())
	require.NoError(t, loaded.LoadBindings(path))
	assert.Equal(t, s.buttons, loaded.buttons)
	assert.Equal(t, KEY_D, loaded.axes["strafe"].positive)
	assert.Equal(t, KEY_A, loaded.axes["strafe"].negative)
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"W", KEY_W},
		{"w", KEY_W},
		{"KEY_W", KEY_W},
		{"left_shift", KEY_LEFT_SHIFT},
		{"F5", KEY_F5},
		{"KEY_1", KEY_1},
		{"49", KEY_1},
		{"NUMPAD3", KEY_NUMPAD3},
		{"256", KEY_ESCAPE},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKey("HYPER")
	assert.Error(t, err)
	_, err = ParseKey("9999")
	assert.Error(t, err)
}

func TestKeyStringRoundTrips(t *testing.T) {
	for _, k := range []Key{KEY_A, KEY_1, KEY_F12, KEY_LEFT_SHIFT, KEY_NUMPAD0} {
		parsed, err := ParseKey(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.Equal(t, "7", Key(7).String())
}
