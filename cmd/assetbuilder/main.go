/*
Packs an asset source tree into the blob and index the engine loads.

	assetbuilder -src assets -out build
*/
package main

import (
	"flag"

	"github.com/spaghettifunk/loop/engine/assets"
	"github.com/spaghettifunk/loop/engine/core"
)

func main() {
	src := flag.String("src", "assets", "asset source directory")
	out := flag.String("out", "build", "output directory for the blob and index")
	blob := flag.String("blob", assets.DefaultBlob, "blob file name")
	index := flag.String("index", assets.DefaultIndex, "index file name")
	level := flag.String("log", "info", "log level")
	flag.Parse()

	core.SetLogLevel(*level)

	manifest, err := assets.Build(*src, *out, assets.BuildOptions{
		Blob:  *blob,
		Index: *index,
	})
	if err != nil {
		core.LogFatal("asset build failed: %s", err)
	}
	core.LogInfo("packed %d assets (%d bytes) into %s", len(manifest.Entries), manifest.Size, *out)
}
