// Package conf is the repository of wg-quick configuration files. It
// resolves the effective config directory from an ordered candidate list
// and performs validated create/read/write/rename/delete/import/export
// operations against it. File bodies are treated as opaque text: whole
// files are read and written so untouched lines survive a round trip.
package conf

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Sentinel errors returned by Store operations. Wrapped errors always
// name the concrete resource (directory path, tunnel name) involved.
var (
	ErrEmptyName   = errors.New("tunnel name is empty")
	ErrInvalidName = errors.New("invalid tunnel name")
	ErrNoConfigDir = errors.New("no config directory exists")
	ErrNotWritable = errors.New("no write permission")
	ErrExists      = errors.New("config file already exists")
	ErrNotFound    = errors.New("config file not found")
)

// Store performs file operations against the active WireGuard config
// directory. The candidate directory order is fixed at construction:
// the first candidate that exists as a directory wins, always.
type Store struct {
	dirs   []string
	logger *slog.Logger
}

// NewStore creates a Store over the given ordered candidate directories.
func NewStore(dirs []string, logger *slog.Logger) (*Store, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("new store: at least one config directory is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("new store: logger is required")
	}
	return &Store{
		dirs:   dirs,
		logger: logger.With("component", "conf"),
	}, nil
}

// Dirs returns the candidate directory list in probe order.
func (s *Store) Dirs() []string {
	return s.dirs
}

// ResolveDir returns the first candidate that exists as a directory.
// The order is significant: a later candidate is never chosen while an
// earlier one exists, regardless of permissions.
func (s *Store) ResolveDir() (string, error) {
	for _, dir := range s.dirs {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrNoConfigDir, strings.Join(s.dirs, ", "))
}

// Path returns the full path of the tunnel's config file, probing every
// candidate directory in order and returning the first match. The name
// is validated first so a crafted name cannot resolve to a file outside
// the candidate directories.
func (s *Store) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	for _, dir := range s.dirs {
		path := filepath.Join(dir, name+".conf")
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Create validates the name and writes a new config file. Checks run in
// a fixed order so the surfaced failure is deterministic: empty name,
// name pattern, directory resolution, directory writability, existence.
// Nothing is written until every check passes.
func (s *Store) Create(name, content string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	dir, err := s.ResolveDir()
	if err != nil {
		return err
	}
	if err := writable(dir); err != nil {
		return err
	}

	path := filepath.Join(dir, name+".conf")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	s.logger.Info("config_created", "tunnel", name, "path", path)
	return nil
}

// Read returns the full text of the tunnel's config file.
func (s *Store) Read(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// Write overwrites the tunnel's existing config file with content,
// in place, wherever the file currently lives.
func (s *Store) Write(name, content string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := writable(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	s.logger.Info("config_written", "tunnel", name, "path", path)
	return nil
}

// Rename moves the tunnel's config file to a new name inside the
// resolved directory. The new name is validated and checked for
// collision before the filesystem is touched. Callers must deactivate
// an active tunnel before renaming it; the Store does not sequence that.
func (s *Store) Rename(oldName, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}

	dir, err := s.ResolveDir()
	if err != nil {
		return err
	}
	if err := writable(dir); err != nil {
		return err
	}

	newPath := filepath.Join(dir, newName+".conf")
	if newName != oldName {
		if _, err := os.Stat(newPath); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, newPath)
		}
	}

	oldPath, err := s.Path(oldName)
	if err != nil {
		return err
	}
	if oldPath == newPath {
		return nil
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldPath, newPath, err)
	}

	s.logger.Info("config_renamed", "from", oldPath, "to", newPath)
	return nil
}

// Delete removes the tunnel's config file after checking write
// permission on the specific file. Callers must deactivate an active
// tunnel first; a tunnel that cannot be stopped keeps its file.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := writable(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}

	s.logger.Info("config_deleted", "tunnel", name, "path", path)
	return nil
}

// List returns the tunnel names present in the resolved config
// directory, in directory order.
func (s *Store) List() ([]string, error) {
	dir, err := s.ResolveDir()
	if err != nil {
		return nil, err
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".conf") {
			names = append(names, strings.TrimSuffix(file.Name(), ".conf"))
		}
	}
	return names, nil
}

// writable checks write access on a path the way the privileged tools
// do, through access(2), so permission failures surface before any
// mutation instead of halfway through one.
func writable(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return fmt.Errorf("%w: %s", ErrNotWritable, path)
	}
	return nil
}
