package wg

import (
	"os"
	"strings"
)

// ListConfigNames returns the tunnel names backed by a `<name>.conf` file
// in any of the candidate directories, in directory order. Unreadable
// directories are skipped; no tunnels yields an empty slice, never an
// error. Names are not deduplicated across directories: uniqueness is a
// per-directory property.
func ListConfigNames(dirs []string) []string {
	names := make([]string, 0)

	for _, dir := range dirs {
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, file := range files {
			if !file.IsDir() && strings.HasSuffix(file.Name(), ".conf") {
				names = append(names, strings.TrimSuffix(file.Name(), ".conf"))
			}
		}
	}

	return names
}
