// Package filex prepares the on-disk locations the client writes to: the
// wallet directory and the parent directory of sqlite files.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) with owner-only permissions and
// returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// EnsureParent creates the directory that will hold the file at path.
func EnsureParent(path string) error {
	_, err := EnsureDir(filepath.Dir(path))
	return err
}
