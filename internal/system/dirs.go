package system

import (
	"fmt"
	"os"
)

// EnsureDirs creates every directory that does not exist yet.
func EnsureDirs(dirs ...string) error {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("не удалось создать папку %s: %w", d, err)
		}
	}
	return nil
}
