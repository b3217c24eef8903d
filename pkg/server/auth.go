package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-logr/logr"
	apierr "kubegems.io/modelsrv/pkg/errors"
)

// TokenVerifier is satisfied by *oidc.IDTokenVerifier.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

func NewOIDCVerifier(ctx context.Context, issuer string) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return provider.Verifier(&oidc.Config{SkipClientIDCheck: true}), nil
}

// NewAuthFilter rejects requests without a bearer token accepted by verifier.
func NewAuthFilter(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if !strings.HasPrefix(token, "Bearer ") {
				ResponseError(w, apierr.NewUnauthorizedError("missing bearer token"))
				return
			}
			idtoken, err := verifier.Verify(r.Context(), strings.TrimPrefix(token, "Bearer "))
			if err != nil {
				ResponseError(w, apierr.NewUnauthorizedError(err.Error()))
				return
			}
			logr.FromContextOrDiscard(r.Context()).V(1).Info("authenticated", "subject", idtoken.Subject)
			next.ServeHTTP(w, r)
		})
	}
}
