package conf

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
)

// ExportZip writes the named tunnels' config files into a single zip
// archive at dst. Entries are flattened to their base filenames, no
// directory prefix, so the archive imports cleanly anywhere.
func (s *Store) ExportZip(dst string, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("export %s: no config files to archive", dst)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", dst, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	for _, name := range names {
		path, err := s.Path(name)
		if err != nil {
			return fmt.Errorf("export %s: %w", dst, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("export %s: read %s: %w", dst, path, err)
		}

		entry, err := zw.Create(filepath.Base(path))
		if err != nil {
			return fmt.Errorf("export %s: add entry %s: %w", dst, filepath.Base(path), err)
		}
		if _, err := entry.Write(data); err != nil {
			return fmt.Errorf("export %s: write entry %s: %w", dst, filepath.Base(path), err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("export %s: finalize archive: %w", dst, err)
	}

	s.logger.Info("configs_exported", "count", len(names), "archive", dst)
	return nil
}

// ExportAll archives every config file in the resolved directory.
// Returns the number of files exported.
func (s *Store) ExportAll(dst string) (int, error) {
	names, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, fmt.Errorf("export %s: no config files exist", dst)
	}
	if err := s.ExportZip(dst, names); err != nil {
		return 0, err
	}
	return len(names), nil
}
