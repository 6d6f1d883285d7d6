package errors

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// Error code constants attached to log records and exit status.
const (
	// Tunnel errors
	ErrTunnelNotFound   = "TUNNEL_NOT_FOUND"
	ErrTunnelExists     = "TUNNEL_ALREADY_EXISTS"
	ErrTunnelUpFailed   = "TUNNEL_UP_FAILED"
	ErrTunnelDownFailed = "TUNNEL_DOWN_FAILED"
	ErrCommandTimeout   = "COMMAND_TIMEOUT"

	// Config file errors
	ErrEmptyName     = "EMPTY_NAME"
	ErrInvalidName   = "INVALID_NAME"
	ErrNoConfigDir   = "NO_CONFIG_DIR"
	ErrNotWritable   = "NOT_WRITABLE"
	ErrConfigCorrupt = "CONFIG_CORRUPT"

	// System errors
	ErrWGModuleNotLoaded = "WG_MODULE_NOT_LOADED"
	ErrCapabilityMissing = "CAPABILITY_MISSING"
	ErrControlSocket     = "CONTROL_SOCKET_UNAVAILABLE"
	ErrWGQuickMissing    = "WG_QUICK_NOT_FOUND"

	// General
	ErrValidation = "VALIDATION_ERROR"
	ErrIO         = "IO_ERROR"
	ErrInternal   = "INTERNAL_ERROR"
)

// CodeOf maps an error to its code for structured logging. Errors that
// carry no recognizable cause fall through to ErrInternal.
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCommandTimeout
	case errors.Is(err, fs.ErrNotExist):
		return ErrTunnelNotFound
	case errors.Is(err, fs.ErrExist):
		return ErrTunnelExists
	case os.IsPermission(err):
		return ErrCapabilityMissing
	default:
		return ErrInternal
	}
}
