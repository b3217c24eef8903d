// Package source fetches artifact bytes from the location a strategy resolved.
package source

import (
	"context"
	"io"

	"github.com/go-logr/logr"
	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/location"
)

const UserAgent = "modelsrv"

// Fetcher streams the content at loc into w and returns the number of bytes written.
//
// A missing object is reported as an ARTIFACT_NOT_FOUND error, which is never
// retried. Every other failure is a DOWNLOAD_FAILED error and may be retried.
type Fetcher interface {
	Fetch(ctx context.Context, loc location.Location, into io.Writer) (int64, error)
}

type FetcherFunc func(ctx context.Context, loc location.Location, into io.Writer) (int64, error)

func (f FetcherFunc) Fetch(ctx context.Context, loc location.Location, into io.Writer) (int64, error) {
	return f(ctx, loc, into)
}

// Delegate dispatches to the fetcher registered for the location provider.
type Delegate struct {
	Fetchers map[string]Fetcher
}

// NewDelegate returns a delegate serving http(s) and file locations.
func NewDelegate() *Delegate {
	return &Delegate{
		Fetchers: map[string]Fetcher{
			location.ProviderHTTP: &HTTPFetcher{},
			location.ProviderFile: FileFetcher{},
		},
	}
}

func (d *Delegate) Register(provider string, f Fetcher) {
	d.Fetchers[provider] = f
}

func (d *Delegate) Fetch(ctx context.Context, loc location.Location, into io.Writer) (int64, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("provider", loc.Provider, "url", loc.URL)
	log.V(1).Info("fetching artifact")

	if f, ok := d.Fetchers[loc.Provider]; ok {
		return f.Fetch(ctx, loc, into)
	}
	return 0, modelxerrors.NewUnsupportedError("provider: " + loc.Provider)
}
