// Package config assembles the runtime options from defaults, an optional
// options file and the environment. Command line flags are bound on top by the cli.
package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/location"
	"kubegems.io/modelsrv/pkg/provision"
	"kubegems.io/modelsrv/pkg/server"
	"kubegems.io/modelsrv/pkg/source"
	"sigs.k8s.io/yaml"
)

type Options struct {
	Location  *location.Options  `json:"location,omitempty"`
	S3        *source.S3Options  `json:"s3,omitempty"`
	Provision *provision.Options `json:"provision,omitempty"`
	Server    *server.Options    `json:"server,omitempty"`
	// Token is sent as bearer token on http downloads, private release assets need it.
	Token string `json:"token,omitempty"`
	// Disabled lists optional models turned off for this deployment.
	Disabled []string `json:"disabled,omitempty"`
	Preload  bool     `json:"preload,omitempty"`
}

func DefaultOptions() *Options {
	return &Options{
		Location:  &location.Options{ReleaseHost: location.DefaultReleaseStore},
		S3:        source.NewDefaultS3Options(),
		Provision: provision.DefaultOptions(),
		Server:    server.DefaultOptions(),
	}
}

// Env is the flat environment of a deployment, unset variables keep the current value.
type Env struct {
	Repo        string         `envconfig:"GITHUB_REPO"`
	Tag         string         `envconfig:"MODELS_RELEASE_TAG"`
	ReleaseHost string         `envconfig:"MODELS_RELEASE_HOST"`
	BaseURL     string         `envconfig:"MODEL_STORAGE_URL"`
	Token       string         `envconfig:"GITHUB_TOKEN"`
	S3Bucket    string         `envconfig:"MODELS_S3_BUCKET"`
	S3Prefix    string         `envconfig:"MODELS_S3_PREFIX"`
	S3URL       string         `envconfig:"MODELS_S3_URL"`
	S3Region    string         `envconfig:"MODELS_S3_REGION"`
	S3AccessKey string         `envconfig:"MODELS_S3_ACCESS_KEY"`
	S3SecretKey string         `envconfig:"MODELS_S3_SECRET_KEY"`
	S3PathStyle *bool          `envconfig:"MODELS_S3_PATH_STYLE"`
	Dir         string         `envconfig:"MODELS_DIR"`
	Workers     *int           `envconfig:"MODELS_WORKERS"`
	Attempts    *int           `envconfig:"MODELS_DOWNLOAD_ATTEMPTS"`
	RetryDelay  *time.Duration `envconfig:"MODELS_RETRY_DELAY"`
	Timeout     *time.Duration `envconfig:"MODELS_DOWNLOAD_TIMEOUT"`
	Disabled    []string       `envconfig:"MODELS_DISABLED"`
	Listen      string         `envconfig:"MODELS_LISTEN"`
	OIDCIssuer  string         `envconfig:"MODELS_OIDC_ISSUER"`
}

// Load returns the defaults overridden by filename, when set, and then by the environment.
func Load(filename string) (*Options, error) {
	options := DefaultOptions()
	if filename != "" {
		if err := LoadFile(filename, options); err != nil {
			return nil, err
		}
	}
	if err := options.ApplyEnv(); err != nil {
		return nil, err
	}
	return options, nil
}

// LoadFile merges a yaml or json options file into options.
func LoadFile(filename string, options *Options) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(content, options); err != nil {
		return modelxerrors.NewConfigInvalidError(fmt.Sprintf("options file %s: %v", filename, err))
	}
	return nil
}

func (o *Options) ApplyEnv() error {
	env := Env{}
	if err := envconfig.Process("", &env); err != nil {
		return modelxerrors.NewConfigInvalidError(err.Error())
	}
	setString(&o.Location.Repo, env.Repo)
	setString(&o.Location.Tag, env.Tag)
	setString(&o.Location.ReleaseHost, env.ReleaseHost)
	setString(&o.Location.BaseURL, env.BaseURL)
	setString(&o.Location.S3Bucket, env.S3Bucket)
	setString(&o.Location.S3Prefix, env.S3Prefix)
	setString(&o.Token, env.Token)
	setString(&o.S3.URL, env.S3URL)
	setString(&o.S3.Region, env.S3Region)
	setString(&o.S3.AccessKey, env.S3AccessKey)
	setString(&o.S3.SecretKey, env.S3SecretKey)
	setString(&o.Provision.Dir, env.Dir)
	setString(&o.Server.Listen, env.Listen)
	setString(&o.Server.OIDC.Issuer, env.OIDCIssuer)
	if env.S3PathStyle != nil {
		o.S3.PathStyle = *env.S3PathStyle
	}
	if env.Workers != nil {
		o.Provision.Workers = *env.Workers
	}
	if env.Attempts != nil {
		o.Provision.Attempts = *env.Attempts
	}
	if env.RetryDelay != nil {
		o.Provision.RetryDelay.Duration = *env.RetryDelay
	}
	if env.Timeout != nil {
		o.Provision.AttemptTimeout.Duration = *env.Timeout
	}
	if len(env.Disabled) > 0 {
		o.Disabled = env.Disabled
	}
	return nil
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func (o *Options) Validate() error {
	if o.Provision.Dir == "" {
		return modelxerrors.NewConfigInvalidError("artifact directory is empty")
	}
	if o.Provision.Workers < 1 {
		return modelxerrors.NewConfigInvalidError(fmt.Sprintf("workers must be positive, got %d", o.Provision.Workers))
	}
	if o.Provision.Attempts < 1 {
		return modelxerrors.NewConfigInvalidError(fmt.Sprintf("attempts must be positive, got %d", o.Provision.Attempts))
	}
	_, err := o.Strategy()
	return err
}

// Strategy selects the artifact location strategy, see location.FromOptions.
func (o *Options) Strategy() (location.Strategy, error) {
	return location.FromOptions(*o.Location)
}

// Fetcher builds the source for the configured strategy. The s3 client is
// only created when a bucket is configured.
func (o *Options) Fetcher(ctx context.Context) (source.Fetcher, error) {
	delegate := source.NewDelegate()
	delegate.Register(location.ProviderHTTP, &source.HTTPFetcher{Token: o.Token})
	if o.Location.S3Bucket != "" {
		client, err := source.NewS3Client(ctx, o.S3)
		if err != nil {
			return nil, err
		}
		delegate.Register(location.ProviderS3, &source.S3Fetcher{Client: client})
	}
	return delegate, nil
}
