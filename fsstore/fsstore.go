// Package fsstore stores assets as individual files under a root directory,
// with asset paths like "sprites/hero.png" mapped to "<root>/sprites/hero.png".
package fsstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-libatlas/store"
)

func filePath(rootDir, assetPath string) (string, error) {
	p, err := store.CleanPath(assetPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(rootDir, filepath.FromSlash(p)), nil
}

func checkRoot(rootDir string) error {
	info, err := os.Stat(rootDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("libatlas: %s is not a directory", rootDir)
	}
	return nil
}
