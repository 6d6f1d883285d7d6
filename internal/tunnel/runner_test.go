package tunnel_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/heycatch/wirewizard/internal/tunnel"
)

// fakeWGQuick writes an executable shell script standing in for
// wg-quick and returns its path.
func fakeWGQuick(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	path := filepath.Join(t.TempDir(), "wg-quick")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunner_Success(t *testing.T) {
	path := fakeWGQuick(t, `echo "interface up: $1 $2"`)
	r, err := tunnel.NewRunner(path, time.Minute, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(context.Background(), "up", "home")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{path, "up", "home"}; !reflect.DeepEqual(res.Command, want) {
		t.Fatalf("expected command %v, got %v", want, res.Command)
	}
	if !strings.Contains(res.Stdout, "interface up: up home") {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
	if res.Stderr != "" {
		t.Fatalf("expected empty stderr, got %q", res.Stderr)
	}
}

func TestRunner_FailureKeepsOutput(t *testing.T) {
	path := fakeWGQuick(t, `echo "partial" ; echo "resolvconf: command not found" >&2 ; exit 1`)
	r, err := tunnel.NewRunner(path, time.Minute, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(context.Background(), "up", "home")
	if err == nil {
		t.Fatal("expected error for exit status 1")
	}
	// Captured output survives the failure for the activity log.
	if !strings.Contains(res.Stdout, "partial") {
		t.Fatalf("stdout lost on failure: %q", res.Stdout)
	}
	if !strings.Contains(res.Stderr, "resolvconf") {
		t.Fatalf("stderr lost on failure: %q", res.Stderr)
	}
}

func TestRunner_Timeout(t *testing.T) {
	path := fakeWGQuick(t, `sleep 10`)
	r, err := tunnel.NewRunner(path, 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	_, err = r.Run(context.Background(), "up", "home")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout not enforced, took %v", elapsed)
	}
}

func TestNewRunner_Validation(t *testing.T) {
	if _, err := tunnel.NewRunner("", time.Minute, testLogger()); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := tunnel.NewRunner("wg-quick", time.Minute, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestNewRunner_ZeroTimeoutDefaults(t *testing.T) {
	// A zero timeout must not produce an immediately-expired context.
	path := fakeWGQuick(t, `exit 0`)
	r, err := tunnel.NewRunner(path, 0, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), "down", "home"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
