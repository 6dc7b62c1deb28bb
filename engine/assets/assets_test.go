package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/loop/engine/events"
)

func fakeCompiler(path string) ([]byte, error) {
	return []byte("spirv:" + filepath.Base(path)), nil
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestBuildAndOpen(t *testing.T) {
	src := writeTree(t, map[string]string{
		"shaders/particle.vert":   "void main() {}",
		"shaders/particle.frag":   "void main() {}",
		"materials/particle.yaml": "vert: shaders/particle.vert.spv\n",
		"input.yaml":              "[]\n",
		".cache/skip.txt":         "hidden",
	})
	out := t.TempDir()

	manifest, err := Build(src, out, BuildOptions{Compiler: fakeCompiler})
	require.NoError(t, err)
	assert.NotEmpty(t, manifest.BuildID)
	assert.Len(t, manifest.Entries, 4)

	s, err := Open(out, DefaultBlob, DefaultIndex)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{
		"input.yaml",
		"materials/particle.yaml",
		"shaders/particle.frag.spv",
		"shaders/particle.vert.spv",
	}, s.Names())
	assert.Equal(t, "spirv:particle.vert", s.ReadString("shaders/particle.vert.spv"))
	assert.Equal(t, "vert: shaders/particle.vert.spv\n", s.ReadString("materials/particle.yaml"))
	assert.Equal(t, manifest.BuildID, s.BuildID())
	assert.False(t, s.Has(BuildKey))
	assert.False(t, s.Has(".cache/skip.txt"))
}

func TestReadReturnsCopy(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "abc"})
	out := t.TempDir()
	_, err := Build(src, out, BuildOptions{Compiler: fakeCompiler})
	require.NoError(t, err)

	s, err := Open(out, DefaultBlob, DefaultIndex)
	require.NoError(t, err)

	data := s.Read("a.txt")
	data[0] = 'z'
	assert.Equal(t, "abc", s.ReadString("a.txt"))
}

func TestReadMissing(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "abc"})
	out := t.TempDir()
	_, err := Build(src, out, BuildOptions{Compiler: fakeCompiler})
	require.NoError(t, err)

	s, err := Open(out, DefaultBlob, DefaultIndex)
	require.NoError(t, err)
	assert.Nil(t, s.Read("missing"))
	assert.Empty(t, s.ReadString("missing"))
}

func TestOpenRejectsOutOfRangeEntries(t *testing.T) {
	dir := writeTree(t, map[string]string{
		DefaultBlob:  "1234",
		DefaultIndex: "a: {offset: 2, size: 8}\n",
	})
	_, err := Open(dir, DefaultBlob, DefaultIndex)
	assert.Error(t, err)

	_, err = Open(t.TempDir(), DefaultBlob, DefaultIndex)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildPropagatesCompilerErrors(t *testing.T) {
	src := writeTree(t, map[string]string{"broken.frag": "nope"})
	boom := errors.New("boom")
	_, err := Build(src, t.TempDir(), BuildOptions{Compiler: func(string) ([]byte, error) { return nil, boom }})
	assert.ErrorIs(t, err, boom)
}

func TestHotReload(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "first"})
	out := t.TempDir()
	_, err := Build(src, out, BuildOptions{Compiler: fakeCompiler})
	require.NoError(t, err)

	s, err := Open(out, DefaultBlob, DefaultIndex)
	require.NoError(t, err)
	defer s.Close()

	q := events.NewEventQueue()
	var reloaded []ReloadedEvent
	events.Subscribe(q, func(e ReloadedEvent) { reloaded = append(reloaded, e) })

	require.NoError(t, s.EnableHotReload(q))
	assert.Error(t, s.EnableHotReload(q))
	assert.False(t, s.Poll(), "nothing changed yet")

	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("second"), 0o644))
	manifest, err := Build(src, out, BuildOptions{Compiler: fakeCompiler})
	require.NoError(t, err)

	// The blob and the index land as separate events.
	require.Eventually(t, func() bool {
		s.Poll()
		return s.BuildID() == manifest.BuildID
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "second", s.ReadString("a.txt"))
	require.NotEmpty(t, reloaded)
	assert.Equal(t, manifest.BuildID, reloaded[len(reloaded)-1].BuildID)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
