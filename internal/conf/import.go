package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Import copies external .conf files into the resolved config directory.
// Files without a .conf suffix are skipped. When the destination already
// exists, the caller-supplied overwrite policy decides; a nil policy
// never overwrites. Returns the number of files imported plus one error
// per file that failed, so a single bad file does not abort the batch.
func (s *Store) Import(sourcePaths []string, overwrite func(name string) bool) (int, []error) {
	dir, err := s.ResolveDir()
	if err != nil {
		return 0, []error{err}
	}
	if err := writable(dir); err != nil {
		return 0, []error{err}
	}

	var failures []error
	count := 0

	for _, src := range sourcePaths {
		base := filepath.Base(src)
		if !strings.HasSuffix(base, ".conf") {
			continue
		}

		dst := filepath.Join(dir, base)
		if _, err := os.Stat(dst); err == nil {
			if overwrite == nil || !overwrite(base) {
				continue
			}
		}

		data, err := os.ReadFile(src)
		if err != nil {
			failures = append(failures, fmt.Errorf("import %s: %w", src, err))
			continue
		}
		if err := os.WriteFile(dst, data, 0600); err != nil {
			failures = append(failures, fmt.Errorf("import %s: %w", src, err))
			continue
		}

		count++
	}

	if count > 0 {
		s.logger.Info("configs_imported", "count", count, "dir", dir)
	}
	return count, failures
}
