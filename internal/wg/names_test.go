package wg_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/heycatch/wirewizard/internal/wg"
)

func writeConf(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("[Interface]\n"), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestListConfigNames_Empty(t *testing.T) {
	names := wg.ListConfigNames([]string{t.TempDir()})
	if len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
}

func TestListConfigNames_MissingDirSkipped(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "wg0.conf")

	names := wg.ListConfigNames([]string{"/nonexistent/wireguard", dir})
	if !reflect.DeepEqual(names, []string{"wg0"}) {
		t.Fatalf("expected [wg0], got %v", names)
	}
}

func TestListConfigNames_DirectoryOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeConf(t, first, "alpha.conf")
	writeConf(t, second, "beta.conf")

	names := wg.ListConfigNames([]string{first, second})
	if !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Fatalf("expected [alpha beta], got %v", names)
	}
}

func TestListConfigNames_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "wg0.conf")
	writeConf(t, dir, "notes.txt")
	if err := os.Mkdir(filepath.Join(dir, "sub.conf"), 0700); err != nil {
		t.Fatal(err)
	}

	names := wg.ListConfigNames([]string{dir})
	if !reflect.DeepEqual(names, []string{"wg0"}) {
		t.Fatalf("expected [wg0], got %v", names)
	}
}
