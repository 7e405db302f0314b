package service

import (
	"context"
	"errors"
	"fmt"
)

// Request errors, reported to the client as 400/403
var (
	ErrMissingURL     = errors.New("missing url")
	ErrInvalidFormat  = errors.New("invalid format")
	ErrUnsupportedURL = errors.New("unsupported url")
	ErrPolicyDenied   = errors.New("denied by policy")
)

// Pipeline errors, reported to the client as a generic 500
var (
	ErrWorkspace           = errors.New("workspace unavailable")
	ErrExternalTool        = errors.New("external tool failed")
	ErrToolTimeout         = fmt.Errorf("%w: deadline exceeded", ErrExternalTool)
	ErrMissingIntermediate = errors.New("missing intermediate mp3")
	ErrArtifactNotFound    = errors.New("artifact not found")
)

// Error kinds as recorded in history and logs
const (
	KindBadRequest          = "bad_request"
	KindPolicyDenied        = "policy_denied"
	KindWorkspaceIO         = "workspace_io"
	KindExternalTool        = "external_tool"
	KindToolTimeout         = "tool_timeout"
	KindMissingIntermediate = "missing_intermediate"
	KindArtifactNotFound    = "artifact_not_found"
	KindInternal            = "internal"
)

// IsBadRequest reports whether err was caused by the request itself
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrMissingURL) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrUnsupportedURL)
}

// ErrorKind classifies err. ErrToolTimeout is checked before ErrExternalTool
// because it wraps it.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsBadRequest(err):
		return KindBadRequest
	case errors.Is(err, ErrPolicyDenied):
		return KindPolicyDenied
	case errors.Is(err, ErrWorkspace):
		return KindWorkspaceIO
	case errors.Is(err, ErrToolTimeout):
		return KindToolTimeout
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	case errors.Is(err, ErrMissingIntermediate):
		return KindMissingIntermediate
	case errors.Is(err, ErrArtifactNotFound):
		return KindArtifactNotFound
	default:
		return KindInternal
	}
}

// toolError folds an extraction or transcode failure into ErrExternalTool,
// or ErrToolTimeout when the stage deadline fired.
func toolError(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", stage, ErrToolTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", stage, ErrExternalTool, err)
}
