/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spaghettifunk/loop/engine"
	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/testbed"
)

const configPath = "engine.toml"

// usage: loop [title] [width] [height]
func main() {
	cfg, err := core.LoadEngineConfig(configPath)
	if err != nil {
		core.LogFatal("failed to load %s: %s", configPath, err)
	}
	applyArgs(&cfg, os.Args[1:])

	app, err := engine.New(cfg)
	if err != nil {
		core.LogFatal("failed to start engine: %s", err)
	}

	testbed.NewExample(app, uint64(os.Getpid()))

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		app.Quit()
	}()

	err = app.Run()
	app.Close()
	if err != nil {
		core.LogFatal("engine stopped: %s", err)
	}
}

func applyArgs(cfg *core.EngineConfig, args []string) {
	if len(args) > 0 {
		cfg.Window.Title = args[0]
	}
	if len(args) > 1 {
		if w, err := strconv.ParseUint(args[1], 10, 32); err == nil && w > 0 {
			cfg.Window.Width = uint32(w)
		}
	}
	if len(args) > 2 {
		if h, err := strconv.ParseUint(args[2], 10, 32); err == nil && h > 0 {
			cfg.Window.Height = uint32(h)
		}
	}
}
