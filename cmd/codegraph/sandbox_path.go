package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// exePathSibling returns the path to name if it exists alongside this executable, so a built
// release (codegraph + codegraph-sandbox copied into the same bin directory) needs no PATH setup.
func exePathSibling(name string) (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", err
	}
	candidate := filepath.Join(filepath.Dir(self), name)
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("%s not found next to executable: %w", name, err)
	}
	return candidate, nil
}
