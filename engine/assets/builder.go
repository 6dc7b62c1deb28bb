package assets

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/magefile/mage/sh"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/loop/engine/core"
)

const (
	DefaultBlob  = "assets.bin"
	DefaultIndex = "assets.yaml"
)

// Compiler turns a GLSL source file into SPIR-V.
type Compiler func(path string) ([]byte, error)

// Glslc runs `glslc <path> -o -` and returns its stdout.
func Glslc(path string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	if _, err := sh.Exec(nil, &stdout, &stderr, "glslc", path, "-o", "-"); err != nil {
		return nil, fmt.Errorf("glslc %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

type BuildOptions struct {
	// Compiler defaults to Glslc.
	Compiler Compiler
	Blob     string
	Index    string
}

// Manifest describes one build.
type Manifest struct {
	BuildID string
	Entries map[string]Entry
	Size    uint64
}

// Build packs every file under src into out/<blob> and writes the matching
// index. Shader stages are compiled and stored as "<path>.spv"; every other
// file is copied verbatim under its slash separated relative path.
func Build(src, out string, opts BuildOptions) (*Manifest, error) {
	if opts.Compiler == nil {
		opts.Compiler = Glslc
	}
	if opts.Blob == "" {
		opts.Blob = DefaultBlob
	}
	if opts.Index == "" {
		opts.Index = DefaultIndex
	}
	logger := core.SubLogger("assetbuilder")

	var blob bytes.Buffer
	manifest := &Manifest{
		BuildID: uuid.NewString(),
		Entries: make(map[string]Entry),
	}

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != src {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		var data []byte
		switch filepath.Ext(path) {
		case ".vert", ".frag", ".comp":
			data, err = opts.Compiler(path)
			name += ".spv"
			logger.Info("compiled shader", "name", name, "size", len(data))
		default:
			data, err = os.ReadFile(path)
			logger.Debug("packed file", "name", name, "size", len(data))
		}
		if err != nil {
			return err
		}
		if name == BuildKey {
			return fmt.Errorf("asset name %q is reserved", name)
		}

		manifest.Entries[name] = Entry{Offset: uint64(blob.Len()), Size: uint64(len(data))}
		blob.Write(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build assets from %s: %w", src, err)
	}
	manifest.Size = uint64(blob.Len())

	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(out, opts.Blob), blob.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}
	index, err := manifest.MarshalIndex()
	if err != nil {
		return nil, err
	}
	// The index goes last so a watcher reloading on it sees the new blob.
	if err := os.WriteFile(filepath.Join(out, opts.Index), index, 0o644); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}

	logger.Info("assets built", "count", len(manifest.Entries), "bytes", manifest.Size, "build", manifest.BuildID)
	return manifest, nil
}

// MarshalIndex encodes the manifest in the format Open reads.
func (m *Manifest) MarshalIndex() ([]byte, error) {
	index := make(map[string]indexEntry, len(m.Entries)+1)
	for name, e := range m.Entries {
		index[name] = indexEntry{Offset: e.Offset, Size: e.Size}
	}
	index[BuildKey] = indexEntry{ID: m.BuildID}
	data, err := yaml.Marshal(index)
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return data, nil
}
