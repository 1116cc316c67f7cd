//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts every source in sources/ into
// Colab_Notebooks/.
func Convert() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "convert", sourcesDir, notebooksDir)
}

// Repair builds the CLI and repairs the notebooks in Colab_Notebooks/.
func Repair() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "repair", notebooksDir)
}

// Check validates the notebooks in Colab_Notebooks/.
func Check() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "check", notebooksDir)
}
