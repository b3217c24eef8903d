package errors

import (
	"fmt"
	"io"
	"testing"
)

func TestIsErrCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrCode
		want bool
	}{
		{
			name: "nil",
			err:  nil,
			code: ErrCodeArtifactNotFound,
			want: false,
		},
		{
			name: "direct",
			err:  NewArtifactNotFoundError("model.pkl", "https://example.com/model.pkl"),
			code: ErrCodeArtifactNotFound,
			want: true,
		},
		{
			name: "wrapped",
			err:  fmt.Errorf("attempt 1: %w", NewDownloadFailedError("model.pkl", io.ErrUnexpectedEOF)),
			code: ErrCodeDownloadFailed,
			want: true,
		},
		{
			name: "other code",
			err:  NewDownloadFailedError("model.pkl", io.ErrUnexpectedEOF),
			code: ErrCodeArtifactNotFound,
			want: false,
		},
		{
			name: "plain error",
			err:  io.EOF,
			code: ErrCodeInternal,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsErrCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsErrCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorInfo_Error(t *testing.T) {
	err := NewModelUnavailableError("diabetes_model", "not_found")
	want := "MODEL_UNAVAILABLE: model diabetes_model unavailable"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.HttpStatus != 503 {
		t.Errorf("HttpStatus = %d, want 503", err.HttpStatus)
	}
}
