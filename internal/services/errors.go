package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool     = errors.New("external tool error")
	ErrValidation       = errors.New("validation error")
	ErrConfiguration    = errors.New("configuration error")
	ErrUnsupportedInput = errors.New("unsupported input")
	ErrPartialArtifact  = errors.New("partial artifact")
	ErrTransient        = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureDetails carries the user-facing summary extracted from a stage error.
type FailureDetails struct {
	Kind    string
	Message string
	Cause   error
}

// Details classifies a stage error against the sentinel markers and returns the
// message the job runner should surface. The full wrapped chain stays available
// through Cause for log output.
func Details(err error) FailureDetails {
	if err == nil {
		return FailureDetails{}
	}
	details := FailureDetails{Message: strings.TrimSpace(err.Error()), Cause: err}
	switch {
	case errors.Is(err, ErrConfiguration):
		details.Kind = "configuration"
	case errors.Is(err, ErrUnsupportedInput):
		details.Kind = "unsupported_input"
	case errors.Is(err, ErrValidation):
		details.Kind = "validation"
	case errors.Is(err, ErrPartialArtifact):
		details.Kind = "partial_artifact"
	case errors.Is(err, ErrExternalTool):
		details.Kind = "external_tool"
	default:
		details.Kind = "transient"
	}
	return details
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
