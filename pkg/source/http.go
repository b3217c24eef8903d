package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/location"
)

type HTTPFetcher struct {
	// Client defaults to http.DefaultClient. Per attempt deadlines come from ctx.
	Client *http.Client
	// Token is sent as a bearer token when set.
	Token string
}

func (h *HTTPFetcher) Fetch(ctx context.Context, loc location.Location, into io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URL, nil)
	if err != nil {
		return 0, modelxerrors.NewParameterInvalidError(err.Error())
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/octet-stream")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	cli := h.Client
	if cli == nil {
		cli = http.DefaultClient
	}
	resp, err := cli.Do(req)
	if err != nil {
		return 0, modelxerrors.NewDownloadFailedError(loc.URL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, modelxerrors.NewArtifactNotFoundError(loc.URL, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, modelxerrors.NewDownloadFailedError(loc.URL, fmt.Errorf("unexpected status: %s %s", resp.Status, body))
	}

	n, err := io.Copy(into, resp.Body)
	if err != nil {
		return n, modelxerrors.NewDownloadFailedError(loc.URL, err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return n, modelxerrors.NewDownloadFailedError(loc.URL, fmt.Errorf("short body: %d/%d bytes: %w", n, resp.ContentLength, io.ErrUnexpectedEOF))
	}
	return n, nil
}
