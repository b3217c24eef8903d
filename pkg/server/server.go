// Package server exposes model status and metrics over http for operators.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/go-logr/logr"
	"github.com/gorilla/handlers"
	"kubegems.io/modelsrv/pkg/registry"
)

type Server struct {
	Registry  *registry.Registry
	Verifier  TokenVerifier // optional
	AccessLog io.Writer
}

func (s *Server) Handler() http.Handler {
	accesslog := s.AccessLog
	if accesslog == nil {
		accesslog = os.Stdout
	}
	return handlers.CombinedLoggingHandler(accesslog, s.route())
}

func Run(ctx context.Context, opts *Options, reg *registry.Registry) error {
	log := logr.FromContextOrDiscard(ctx)

	s := &Server{Registry: reg}
	if opts.OIDC != nil && opts.OIDC.Issuer != "" {
		verifier, err := NewOIDCVerifier(ctx, opts.OIDC.Issuer)
		if err != nil {
			return err
		}
		s.Verifier = verifier
	}

	server := http.Server{
		Addr:    opts.Listen,
		Handler: s.Handler(),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	var err error
	if opts.TLS != nil && opts.TLS.CertFile != "" && opts.TLS.KeyFile != "" {
		log.Info("admin server listening", "https", opts.Listen)
		err = server.ListenAndServeTLS(opts.TLS.CertFile, opts.TLS.KeyFile)
	} else {
		log.Info("admin server listening", "http", opts.Listen)
		err = server.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
