package conf_test

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestImport(t *testing.T) {
	src := t.TempDir()
	dir := t.TempDir()
	s := newStore(t, dir)

	paths := []string{
		filepath.Join(src, "wg0.conf"),
		filepath.Join(src, "wg1.conf"),
		filepath.Join(src, "notes.txt"),
	}
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("content of "+filepath.Base(p)), 0600); err != nil {
			t.Fatal(err)
		}
	}

	count, failures := s.Import(paths, nil)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if count != 2 {
		t.Fatalf("expected 2 imports, got %d", count)
	}

	got, err := s.Read("wg0")
	if err != nil {
		t.Fatal(err)
	}
	if got != "content of wg0.conf" {
		t.Fatalf("imported content mismatch: %q", got)
	}
}

func TestImport_OverwritePolicy(t *testing.T) {
	src := t.TempDir()
	dir := t.TempDir()
	s := newStore(t, dir)

	if err := s.Create("wg0", "original"); err != nil {
		t.Fatal(err)
	}
	srcPath := filepath.Join(src, "wg0.conf")
	if err := os.WriteFile(srcPath, []byte("imported"), 0600); err != nil {
		t.Fatal(err)
	}

	// Declined: the existing file survives.
	count, failures := s.Import([]string{srcPath}, func(string) bool { return false })
	if count != 0 || len(failures) != 0 {
		t.Fatalf("expected 0 imports and 0 failures, got %d / %v", count, failures)
	}
	got, _ := s.Read("wg0")
	if got != "original" {
		t.Fatalf("declined overwrite still replaced content: %q", got)
	}

	// Accepted: the file is replaced.
	count, _ = s.Import([]string{srcPath}, func(string) bool { return true })
	if count != 1 {
		t.Fatalf("expected 1 import, got %d", count)
	}
	got, _ = s.Read("wg0")
	if got != "imported" {
		t.Fatalf("accepted overwrite did not replace content: %q", got)
	}
}

func TestImport_UnreadableSourceReported(t *testing.T) {
	dir := t.TempDir()
	s := newStore(t, dir)

	count, failures := s.Import([]string{"/nonexistent/x.conf"}, nil)
	if count != 0 {
		t.Fatalf("expected 0 imports, got %d", count)
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %v", failures)
	}
}

func TestExportAll(t *testing.T) {
	dir := t.TempDir()
	s := newStore(t, dir)

	contents := map[string]string{
		"wg0": "[Interface]\nPrivateKey = A\n",
		"wg1": "[Interface]\nPrivateKey = B\n",
	}
	for name, content := range contents {
		if err := s.Create(name, content); err != nil {
			t.Fatal(err)
		}
	}

	archive := filepath.Join(t.TempDir(), "tunnels.zip")
	count, err := s.ExportAll(archive)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 exported files, got %d", count)
	}

	// Entries are flattened base names with intact content.
	zr, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	for _, f := range zr.File {
		if filepath.Dir(f.Name) != "." {
			t.Errorf("entry %q carries a path prefix", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		name := f.Name[:len(f.Name)-len(".conf")]
		if string(data) != contents[name] {
			t.Errorf("entry %q content mismatch: %q", f.Name, data)
		}
	}
}

func TestExportAll_EmptyDir(t *testing.T) {
	s := newStore(t, t.TempDir())
	if _, err := s.ExportAll(filepath.Join(t.TempDir(), "empty.zip")); err == nil {
		t.Fatal("expected error exporting an empty directory")
	}
}
