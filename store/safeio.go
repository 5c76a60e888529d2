package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o700)
}

// readFileFromDir rejects any name that could escape dir via traversal,
// ported from the teacher's node.readFileFromDir.
func readFileFromDir(dir, name string) ([]byte, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("store: invalid file name %q", name)
	}
	return fs.ReadFile(os.DirFS(dir), name)
}
