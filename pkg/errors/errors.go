package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrCodeDownloadFailed   ErrCode = "DOWNLOAD_FAILED"
	ErrCodeArtifactNotFound ErrCode = "ARTIFACT_NOT_FOUND"
	ErrCodeVerifyFailed     ErrCode = "VERIFY_FAILED"
	ErrCodeDecodeFailed     ErrCode = "DECODE_FAILED"
	ErrCodeModelUnavailable ErrCode = "MODEL_UNAVAILABLE"
	ErrCodeModelUnknown     ErrCode = "MODEL_UNKNOWN"
	ErrCodeUnauthorized     ErrCode = "UNAUTHORIZED"
	ErrCodeUnsupported      ErrCode = "UNSUPPORTED"
	ErrCodeConfigInvalid    ErrCode = "CONFIG_INVALID"
	ErrCodeInvalidParameter ErrCode = "INVALID_PARAMETER"
	ErrCodeUnknow           ErrCode = "UNKNOWN"
	ErrCodeInternal         ErrCode = "INTERNAL"
)

type ErrCode string

type ErrorInfo struct {
	HttpStatus int     `json:"-"`
	Code       ErrCode `json:"code"`
	Message    string  `json:"message"`
	Detail     string  `json:"detail,omitempty"`
}

func (e ErrorInfo) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func IsErrCode(err error, code ErrCode) bool {
	if err == nil {
		return false
	}
	info := ErrorInfo{}
	if errors.As(err, &info) {
		return info.Code == code
	}
	return false
}

// IsNotFound reports whether err is an ARTIFACT_NOT_FOUND error.
func IsNotFound(err error) bool {
	return IsErrCode(err, ErrCodeArtifactNotFound)
}

func NewDownloadFailedError(entry string, cause error) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusBadGateway, Code: ErrCodeDownloadFailed, Message: fmt.Sprintf("download %s: %v", entry, cause)}
}

func NewArtifactNotFoundError(entry string, location string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusNotFound, Code: ErrCodeArtifactNotFound, Message: fmt.Sprintf("artifact: %s not found", entry), Detail: location}
}

func NewVerifyFailedError(entry string, cause error) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusUnprocessableEntity, Code: ErrCodeVerifyFailed, Message: fmt.Sprintf("verify %s: %v", entry, cause)}
}

func NewDecodeFailedError(name string, cause error) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusInternalServerError, Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("decode %s: %v", name, cause)}
}

func NewModelUnavailableError(name string, reason string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusServiceUnavailable, Code: ErrCodeModelUnavailable, Message: fmt.Sprintf("model %s unavailable", name), Detail: reason}
}

func NewModelUnknownError(name string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusNotFound, Code: ErrCodeModelUnknown, Message: fmt.Sprintf("model: %s not in manifest", name)}
}

func NewUnauthorizedError(msg string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: msg}
}

func NewUnsupportedError(msg string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusNotImplemented, Code: ErrCodeUnsupported, Message: msg}
}

func NewInternalError(err error) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusInternalServerError, Code: ErrCodeInternal, Message: err.Error()}
}

func NewConfigInvalidError(msg string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusBadRequest, Code: ErrCodeConfigInvalid, Message: msg}
}

func NewParameterInvalidError(msg string) ErrorInfo {
	return ErrorInfo{HttpStatus: http.StatusBadRequest, Code: ErrCodeInvalidParameter, Message: msg}
}
