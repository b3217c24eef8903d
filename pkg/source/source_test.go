package source

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/location"
	"kubegems.io/modelsrv/pkg/types"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.pkl":
			if r.Header.Get("Authorization") != "Bearer secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte("content"))
		case "/broken.pkl":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		path     string
		want     string
		wantCode modelxerrors.ErrCode
	}{
		{name: "ok", path: "/ok.pkl", want: "content"},
		{name: "not found", path: "/missing.pkl", wantCode: modelxerrors.ErrCodeArtifactNotFound},
		{name: "server error", path: "/broken.pkl", wantCode: modelxerrors.ErrCodeDownloadFailed},
	}
	fetcher := &HTTPFetcher{Client: srv.Client(), Token: "secret"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			n, err := fetcher.Fetch(context.Background(), location.Location{Provider: location.ProviderHTTP, URL: srv.URL + tt.path}, buf)
			if tt.wantCode != "" {
				if !modelxerrors.IsErrCode(err, tt.wantCode) {
					t.Errorf("Fetch() error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if buf.String() != tt.want || n != int64(len(tt.want)) {
				t.Errorf("Fetch() = %d %q, want %q", n, buf.String(), tt.want)
			}
		})
	}
}

func TestHTTPFetcher_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := (&HTTPFetcher{}).Fetch(context.Background(), location.Location{Provider: location.ProviderHTTP, URL: addr + "/a.pkl"}, &bytes.Buffer{})
	if !modelxerrors.IsErrCode(err, modelxerrors.ErrCodeDownloadFailed) {
		t.Errorf("Fetch() error = %v, want DOWNLOAD_FAILED", err)
	}
}

func TestFileFetcher_Fetch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.pkl"), []byte("mirror"), 0o644); err != nil {
		t.Fatal(err)
	}
	strategy := location.DirectURL{Base: "file://" + dir}

	buf := &bytes.Buffer{}
	loc, _ := strategy.Locate(entryNamed("a.pkl"))
	if _, err := (FileFetcher{}).Fetch(context.Background(), loc, buf); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if buf.String() != "mirror" {
		t.Errorf("Fetch() = %q, want mirror", buf.String())
	}

	loc, _ = strategy.Locate(entryNamed("b.pkl"))
	if _, err := (FileFetcher{}).Fetch(context.Background(), loc, buf); !modelxerrors.IsNotFound(err) {
		t.Errorf("Fetch(missing) error = %v, want ARTIFACT_NOT_FOUND", err)
	}
}

func TestDelegate_Unsupported(t *testing.T) {
	_, err := NewDelegate().Fetch(context.Background(), location.Location{Provider: "ftp", URL: "ftp://x/y"}, &bytes.Buffer{})
	if !modelxerrors.IsErrCode(err, modelxerrors.ErrCodeUnsupported) {
		t.Errorf("Fetch() error = %v, want UNSUPPORTED", err)
	}
}

func entryNamed(remote string) types.Entry {
	return types.Entry{Name: remote, RemoteName: remote, Format: types.FormatPickle}
}
