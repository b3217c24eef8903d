package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apierr "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/registry"
)

func ResponseError(w http.ResponseWriter, err error) {
	if ue, ok := registry.AsUnavailable(err); ok {
		err = ue.ErrorInfo()
	}
	info := apierr.ErrorInfo{}
	if !errors.As(err, &info) {
		info = apierr.ErrorInfo{
			HttpStatus: http.StatusBadRequest,
			Code:       apierr.ErrCodeUnknow,
			Message:    err.Error(),
			Detail:     err.Error(),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(info.HttpStatus)
	json.NewEncoder(w).Encode(info)
}

func ResponseOK(w http.ResponseWriter, data any) {
	ResponseJSON(w, http.StatusOK, data)
}

func ResponseJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
