package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteNotFound saves the unmatched query descriptions, one per line, for
// manual follow-up.
func WriteNotFound(path string, misses []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	body := strings.Join(misses, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
