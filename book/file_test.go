package book

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestLoadFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "openings.yaml")
	err := os.WriteFile(path, []byte(`lines:
  - "1. e4 e5 2. Nf3"
  - "1. d4 Nf6 2. c4 e6"
`), 0644)
	is.NoErr(err)

	lines, err := LoadFile(path)
	is.NoErr(err)
	is.Equal(len(lines), 2)
	is.Equal(len(lines[0]), 2)
	is.Equal(len(lines[1]), 2)
}

func TestLoadFileBadLine(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "openings.yaml")
	err := os.WriteFile(path, []byte("lines:\n  - \"1. e9\"\n"), 0644)
	is.NoErr(err)

	_, err = LoadFile(path)
	if err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
