package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/location"
)

func TestLoad_Layering(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "modelsrv.yaml")
	content := `
location:
  repo: acme/diagnostics
  tag: v1.2.0
provision:
  dir: /var/lib/models
  workers: 5
  retryDelay: 2s
disabled:
- support_embeddings
`
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MODELS_RELEASE_TAG", "v1.3.0")
	t.Setenv("MODELS_WORKERS", "2")
	t.Setenv("MODELS_DOWNLOAD_TIMEOUT", "30s")

	options, err := Load(filename)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if options.Location.Repo != "acme/diagnostics" || options.Location.Tag != "v1.3.0" {
		t.Errorf("Location = %+v", options.Location)
	}
	if options.Provision.Dir != "/var/lib/models" || options.Provision.Workers != 2 {
		t.Errorf("Provision = %+v", options.Provision)
	}
	if options.Provision.RetryDelay.Duration != 2*time.Second {
		t.Errorf("RetryDelay = %s, want 2s", options.Provision.RetryDelay.Duration)
	}
	if options.Provision.AttemptTimeout.Duration != 30*time.Second {
		t.Errorf("AttemptTimeout = %s, want 30s", options.Provision.AttemptTimeout.Duration)
	}
	// untouched defaults survive the file
	if options.Provision.Attempts != 3 || options.Server.Listen != ":8080" {
		t.Errorf("defaults lost: attempts %d listen %s", options.Provision.Attempts, options.Server.Listen)
	}
	if !reflect.DeepEqual(options.Disabled, []string{"support_embeddings"}) {
		t.Errorf("Disabled = %v", options.Disabled)
	}
	if err := options.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestOptions_Strategy(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    location.Strategy
		wantErr bool
	}{
		{
			name: "release",
			env:  map[string]string{"GITHUB_REPO": "acme/diagnostics", "MODELS_RELEASE_TAG": "v1"},
			want: location.ReleaseTag{Store: location.DefaultReleaseStore, Repo: "acme/diagnostics", Tag: "v1"},
		},
		{
			name: "direct wins",
			env:  map[string]string{"GITHUB_REPO": "acme/diagnostics", "MODELS_RELEASE_TAG": "v1", "MODEL_STORAGE_URL": "https://cdn.example.com/models"},
			want: location.DirectURL{Base: "https://cdn.example.com/models"},
		},
		{
			name: "s3",
			env:  map[string]string{"MODELS_S3_BUCKET": "models", "MODELS_S3_PREFIX": "v1"},
			want: location.S3Bucket{Bucket: "models", Prefix: "v1"},
		},
		{
			name:    "nothing configured",
			env:     map[string]string{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			options, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			got, err := options.Strategy()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Strategy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !modelxerrors.IsErrCode(err, modelxerrors.ErrCodeConfigInvalid) {
					t.Errorf("Strategy() error = %v, want CONFIG_INVALID", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Strategy() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("MODELS_WORKERS", "many")
	if _, err := Load(""); !modelxerrors.IsErrCode(err, modelxerrors.ErrCodeConfigInvalid) {
		t.Errorf("Load() error = %v, want CONFIG_INVALID", err)
	}
}

func TestOptions_Validate(t *testing.T) {
	options := DefaultOptions()
	options.Location.BaseURL = "file:///srv/models"
	options.Provision.Workers = 0
	if err := options.Validate(); !modelxerrors.IsErrCode(err, modelxerrors.ErrCodeConfigInvalid) {
		t.Errorf("Validate() error = %v, want CONFIG_INVALID", err)
	}
}

func TestApplyFlags(t *testing.T) {
	t.Setenv("MODELS_WORKERS", "2")
	t.Setenv("GITHUB_REPO", "acme/diagnostics")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, DefaultOptions())
	if err := fs.Parse([]string{"--workers=7", "--disable=a,b", "--retry-delay=1s"}); err != nil {
		t.Fatal(err)
	}

	options, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := ApplyFlags(fs, options); err != nil {
		t.Fatalf("ApplyFlags() error = %v", err)
	}
	if options.Provision.Workers != 7 {
		t.Errorf("Workers = %d, want flag value 7", options.Provision.Workers)
	}
	if options.Location.Repo != "acme/diagnostics" {
		t.Errorf("Repo = %s, env value lost", options.Location.Repo)
	}
	if !reflect.DeepEqual(options.Disabled, []string{"a", "b"}) {
		t.Errorf("Disabled = %v", options.Disabled)
	}
	if options.Provision.RetryDelay.Duration != time.Second {
		t.Errorf("RetryDelay = %s, want 1s", options.Provision.RetryDelay.Duration)
	}
}
