package box

import (
	"os"
	"path/filepath"

	"github.com/magnetik/box/internal/box/boxerr"
)

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, boxerr.Wrap(boxerr.UnreadableSource, err, "reading %q", path)
	}
	return data, nil
}

func relativeBundlePath(basePath, absPath string) (string, error) {
	rel, err := filepath.Rel(basePath, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
