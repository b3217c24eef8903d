package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apierr "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/provision"
)

const NameRegexp = `[a-z0-9]+(?:[._-][a-z0-9]+)*`

func (s *Server) route() http.Handler {
	mux := mux.NewRouter()
	mux = mux.StrictSlash(true)
	// healthy
	mux.Methods("GET").Path("/healthz").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Methods("GET").Path("/readyz").HandlerFunc(s.Ready)
	mux.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	protect := func(h http.HandlerFunc) http.Handler {
		if s.Verifier == nil {
			return h
		}
		return NewAuthFilter(s.Verifier)(h)
	}
	mux.Methods("GET").Path("/models").Handler(protect(s.ListModels))
	mux.Methods("GET").Path("/models/{name:" + NameRegexp + "}").Handler(protect(s.GetModel))
	mux.Methods("POST").Path("/models/{name:" + NameRegexp + "}/invalidate").Handler(protect(s.InvalidateModel))
	return mux
}

type readiness struct {
	Ready   bool     `json:"ready"`
	Missing []string `json:"missing,omitempty"`
}

// Ready succeeds once every required artifact is on disk.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	missing := provision.Missing(s.Registry.Dir(), s.Registry.Manifest())
	if len(missing) == 0 {
		ResponseOK(w, readiness{Ready: true})
		return
	}
	ret := readiness{}
	for _, e := range missing {
		ret.Missing = append(ret.Missing, e.Name)
	}
	ResponseJSON(w, http.StatusServiceUnavailable, ret)
}

func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	ResponseOK(w, s.Registry.Status())
}

func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	model, err := s.Registry.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		ResponseError(w, err)
		return
	}
	ResponseOK(w, model)
}

func (s *Server) InvalidateModel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := s.Registry.Manifest().Lookup(name); !ok {
		ResponseError(w, apierr.NewModelUnknownError(name))
		return
	}
	ResponseOK(w, map[string]any{"name": name, "invalidated": s.Registry.Invalidate(name)})
}
