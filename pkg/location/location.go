// Package location resolves manifest entries to the remote place they are fetched from.
//
// Exactly one Strategy is active per deployment. It is chosen once at startup
// by FromOptions and never re-evaluated per entry.
package location

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/types"
)

const DefaultReleaseStore = "https://github.com"

const (
	ProviderHTTP = "http"
	ProviderS3   = "s3"
	ProviderFile = "file"
)

// Location is the resolved source of a single manifest entry.
type Location struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

func (l Location) String() string {
	return l.URL
}

type Strategy interface {
	Locate(entry types.Entry) (Location, error)
	String() string
}

// ReleaseTag resolves entries to release assets: {store}/{repo}/releases/download/{tag}/{file}.
type ReleaseTag struct {
	Store string
	Repo  string
	Tag   string
}

func (s ReleaseTag) Locate(entry types.Entry) (Location, error) {
	store := s.Store
	if store == "" {
		store = DefaultReleaseStore
	}
	u, err := url.Parse(strings.TrimRight(store, "/"))
	if err != nil {
		return Location{}, fmt.Errorf("invalid release store %q: %w", store, err)
	}
	u.Path = path.Join("/", u.Path, s.Repo, "releases", "download", s.Tag, entry.RemoteName)
	return Location{Provider: ProviderHTTP, URL: u.String()}, nil
}

func (s ReleaseTag) String() string {
	return fmt.Sprintf("release %s@%s", s.Repo, s.Tag)
}

// DirectURL resolves entries relative to a base url: {base}/{file}.
// A file:// base reads from a local mirror directory.
type DirectURL struct {
	Base string
}

func (s DirectURL) Locate(entry types.Entry) (Location, error) {
	u, err := url.Parse(strings.TrimRight(s.Base, "/"))
	if err != nil {
		return Location{}, fmt.Errorf("invalid base url %q: %w", s.Base, err)
	}
	provider := ProviderHTTP
	switch u.Scheme {
	case "http", "https":
	case "file":
		provider = ProviderFile
	default:
		return Location{}, modelxerrors.NewUnsupportedError("url scheme: " + u.Scheme)
	}
	u.Path = u.Path + "/" + entry.RemoteName
	return Location{Provider: provider, URL: u.String()}, nil
}

func (s DirectURL) String() string {
	return "direct " + s.Base
}

// S3Bucket resolves entries to objects: s3://{bucket}/{prefix}/{file}.
type S3Bucket struct {
	Bucket string
	Prefix string
}

func (s S3Bucket) Locate(entry types.Entry) (Location, error) {
	if s.Bucket == "" {
		return Location{}, modelxerrors.NewConfigInvalidError("s3 bucket is empty")
	}
	u := url.URL{Scheme: "s3", Host: s.Bucket, Path: "/" + path.Join(s.Prefix, entry.RemoteName)}
	return Location{Provider: ProviderS3, URL: u.String()}, nil
}

func (s S3Bucket) String() string {
	return "s3 " + path.Join(s.Bucket, s.Prefix)
}

// SplitS3URL returns bucket and key of an s3:// url.
func SplitS3URL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 url: %s", raw)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

type Options struct {
	BaseURL     string `json:"baseURL,omitempty"`
	S3Bucket    string `json:"s3Bucket,omitempty"`
	S3Prefix    string `json:"s3Prefix,omitempty"`
	Repo        string `json:"repo,omitempty"`
	Tag         string `json:"tag,omitempty"`
	ReleaseHost string `json:"releaseHost,omitempty"`
}

// FromOptions selects the active strategy. Precedence: direct url, s3 bucket, release tag.
func FromOptions(opts Options) (Strategy, error) {
	switch {
	case opts.BaseURL != "":
		if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
			return nil, modelxerrors.NewConfigInvalidError(fmt.Sprintf("invalid base url: %s", opts.BaseURL))
		}
		return DirectURL{Base: opts.BaseURL}, nil
	case opts.S3Bucket != "":
		return S3Bucket{Bucket: opts.S3Bucket, Prefix: opts.S3Prefix}, nil
	case opts.Repo != "" && opts.Tag != "":
		return ReleaseTag{Store: opts.ReleaseHost, Repo: opts.Repo, Tag: opts.Tag}, nil
	case opts.Repo != "" || opts.Tag != "":
		return nil, modelxerrors.NewConfigInvalidError("release strategy requires both repository and tag")
	default:
		return nil, modelxerrors.NewConfigInvalidError("no artifact location configured")
	}
}
