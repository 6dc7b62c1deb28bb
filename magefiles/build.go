//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const (
	assetsDir = "assets"
	buildDir  = "build"
)

type Build mg.Namespace

// Compiles every shader stage under assets/shaders to check it builds.
func (Build) Shaders() error {
	out := filepath.Join(buildDir, "shaders")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	shaders, err := shaderSources(filepath.Join(assetsDir, "shaders"))
	if err != nil {
		return err
	}
	for _, src := range shaders {
		dst := filepath.Join(out, filepath.Base(src)+".spv")
		if _, err := executeCmd("glslc", withArgs(src, "-o", dst), withStream()); err != nil {
			return err
		}
	}
	fmt.Printf("compiled %d shaders into %s\n", len(shaders), out)
	return nil
}

// Packs the assets directory into build/assets.bin and build/assets.yaml.
func (Build) Assets() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("run", "./cmd/assetbuilder", "-src", assetsDir, "-out", buildDir), withStream())
	return err
}

// Builds the engine binary.
func (Build) Engine() error {
	_, err := executeCmd("go", withArgs("build", "-o", filepath.Join(buildDir, "loop"), "."), withStream())
	return err
}

func shaderSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || !(strings.EqualFold(ext, ".vert") || strings.EqualFold(ext, ".frag")) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
