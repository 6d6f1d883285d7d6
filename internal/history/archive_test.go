package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/heycatch/wirewizard/internal/activity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testArchive(t *testing.T) *Archive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	a, err := Open(context.Background(), path, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRecord_List(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	entries := []struct {
		cmd []string
		ok  bool
	}{
		{[]string{"wg-quick", "up", "home"}, true},
		{[]string{"wg-quick", "down", "home"}, true},
		{[]string{"wg-quick", "up", "office"}, false},
	}
	for _, e := range entries {
		err := a.Record(ctx, activity.Entry{
			Time:    time.Now(),
			Command: e.cmd,
			Stderr:  "some output",
		}, e.ok)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := a.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}

	// Newest first.
	if got[0].Command != "wg-quick up office" {
		t.Errorf("expected newest record first, got %q", got[0].Command)
	}
	if got[0].ExitOK {
		t.Error("failed command should have exit_ok false")
	}
	if got[2].Command != "wg-quick up home" {
		t.Errorf("expected oldest record last, got %q", got[2].Command)
	}
	if !got[2].ExitOK {
		t.Error("successful command should have exit_ok true")
	}
}

func TestList_Limit(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := a.Record(ctx, activity.Entry{Command: []string{"wg-quick", "up", "home"}}, true); err != nil {
			t.Fatal(err)
		}
	}

	got, err := a.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}

func TestPrune(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	if err := a.Record(ctx, activity.Entry{Time: old, Command: []string{"wg-quick", "up", "home"}}, true); err != nil {
		t.Fatal(err)
	}
	if err := a.Record(ctx, activity.Entry{Time: time.Now(), Command: []string{"wg-quick", "down", "home"}}, true); err != nil {
		t.Fatal(err)
	}

	n, err := a.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned record, got %d", n)
	}

	got, err := a.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Command != "wg-quick down home" {
		t.Fatalf("unexpected surviving records: %+v", got)
	}
}

func TestOpen_Validation(t *testing.T) {
	if _, err := Open(context.Background(), "", testLogger()); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open(context.Background(), "x.db", nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
