package registry

import (
	"errors"
	"fmt"

	modelxerrors "kubegems.io/modelsrv/pkg/errors"
)

type Reason string

const (
	ReasonNotFound       Reason = "not_found"
	ReasonDecodeFailed   Reason = "decode_failed"
	ReasonOptionalAbsent Reason = "optional_absent"
	ReasonUnknownModel   Reason = "unknown_model"
)

// UnavailableError is returned by Get when a model cannot be served.
type UnavailableError struct {
	Name     string
	Reason   Reason
	Optional bool
	Cause    error
}

func (e *UnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model %s unavailable (%s): %v", e.Name, e.Reason, e.Cause)
	}
	return fmt.Sprintf("model %s unavailable (%s)", e.Name, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Degradable reports whether a caller may continue without the model.
func (e *UnavailableError) Degradable() bool {
	return e.Optional
}

// ErrorInfo converts the error for api responses.
func (e *UnavailableError) ErrorInfo() modelxerrors.ErrorInfo {
	if e.Reason == ReasonUnknownModel {
		return modelxerrors.NewModelUnknownError(e.Name)
	}
	return modelxerrors.NewModelUnavailableError(e.Name, string(e.Reason))
}

func AsUnavailable(err error) (*UnavailableError, bool) {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

func IsUnavailable(err error) bool {
	_, ok := AsUnavailable(err)
	return ok
}
