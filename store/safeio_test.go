package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFileFromDir_ReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := readFileFromDir(dir, "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Fatalf("got=%q, want %q", got, "hi")
	}
}

func TestReadFileFromDir_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"../secret", "..", ".", "", "a/../b", "/etc/passwd"} {
		if _, err := readFileFromDir(dir, name); err == nil {
			t.Fatalf("expected readFileFromDir to reject name %q", name)
		}
	}
}

func TestReadFileFromDir_RejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := readFileFromDir(dir, "missing.txt"); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
