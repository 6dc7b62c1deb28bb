//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Packs the assets and runs the fireworks example.
func (Run) Engine() error {
	mg.Deps(Build.Assets)
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", "."), withStream()); err != nil {
		return err
	}
	return nil
}
