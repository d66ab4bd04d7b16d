package browser

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFile stores a screenshot, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to save screenshot to %s", path)
	}
	return nil
}

// AttributeMatches checks a resolved attribute value; a nil want only
// requires the attribute to be present.
func AttributeMatches(got, want *string) (bool, error) {
	switch {
	case got == nil:
		return false, errors.New("attribute is missing")
	case want != nil && *got != *want:
		return false, errors.Errorf("attribute was %q", *got)
	}
	return true, nil
}
