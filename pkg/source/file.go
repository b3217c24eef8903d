package source

import (
	"context"
	"io"
	"net/url"
	"os"

	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/location"
)

// FileFetcher reads from a local mirror directory addressed by file:// urls.
type FileFetcher struct{}

func (FileFetcher) Fetch(ctx context.Context, loc location.Location, into io.Writer) (int64, error) {
	u, err := url.Parse(loc.URL)
	if err != nil {
		return 0, modelxerrors.NewParameterInvalidError(err.Error())
	}
	f, err := os.Open(u.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, modelxerrors.NewArtifactNotFoundError(loc.URL, u.Path)
		}
		return 0, modelxerrors.NewDownloadFailedError(loc.URL, err)
	}
	defer f.Close()

	n, err := io.Copy(into, readerCtx{ctx: ctx, r: f})
	if err != nil {
		return n, modelxerrors.NewDownloadFailedError(loc.URL, err)
	}
	return n, nil
}

type readerCtx struct {
	ctx context.Context
	r   io.Reader
}

func (r readerCtx) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
