// Package security validates file paths supplied on the command line.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbiddenChars are shell metacharacters never accepted in a path.
const forbiddenChars = ";&|$`(){}<>!\n\r"

// ErrEmptyPath is returned for an empty path.
var ErrEmptyPath = errors.New("file path cannot be empty")

// ValidateFilePath returns the absolute, symlink-resolved form of path.
// A path that does not exist yet is returned cleaned but unresolved.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if i := strings.IndexAny(path, forbiddenChars); i >= 0 {
		return "", fmt.Errorf("file path contains forbidden character %q: %s", path[i], path)
	}

	clean, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(clean)
	if errors.Is(err, os.ErrNotExist) {
		return clean, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	return resolved, nil
}

// SafeReadFile reads path after validating it.
func SafeReadFile(path string) ([]byte, error) {
	clean, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	return os.ReadFile(clean)
}
