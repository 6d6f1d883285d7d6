package errors

import (
	"context"
	"fmt"
	"io/fs"
	"testing"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, ErrCommandTimeout},
		{"wrapped deadline", fmt.Errorf("run wg-quick up home: %w", context.DeadlineExceeded), ErrCommandTimeout},
		{"not exist", fs.ErrNotExist, ErrTunnelNotFound},
		{"exist", fs.ErrExist, ErrTunnelExists},
		{"permission", fs.ErrPermission, ErrCapabilityMissing},
		{"unknown", fmt.Errorf("boom"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
