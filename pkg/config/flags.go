package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers a flag for every option, defaults are taken from options.
func BindFlags(flags *pflag.FlagSet, options *Options) {
	flags.StringVar(&options.Location.Repo, "repo", options.Location.Repo, "release repository, owner/name")
	flags.StringVar(&options.Location.Tag, "tag", options.Location.Tag, "release tag holding the model assets")
	flags.StringVar(&options.Location.ReleaseHost, "release-host", options.Location.ReleaseHost, "release store base url")
	flags.StringVar(&options.Location.BaseURL, "base-url", options.Location.BaseURL, "direct artifact base url, http(s):// or file://, takes precedence over s3 and release")
	flags.StringVar(&options.Location.S3Bucket, "s3-bucket", options.Location.S3Bucket, "s3 bucket holding the artifacts, takes precedence over release")
	flags.StringVar(&options.Location.S3Prefix, "s3-prefix", options.Location.S3Prefix, "s3 key prefix")
	flags.StringVar(&options.S3.URL, "s3-url", options.S3.URL, "s3 endpoint url")
	flags.StringVar(&options.S3.Region, "s3-region", options.S3.Region, "s3 region")
	flags.StringVar(&options.S3.AccessKey, "s3-access-key", options.S3.AccessKey, "s3 access key")
	flags.StringVar(&options.S3.SecretKey, "s3-secret-key", options.S3.SecretKey, "s3 secret key")
	flags.BoolVar(&options.S3.PathStyle, "s3-path-style", options.S3.PathStyle, "use path style s3 addressing")
	flags.StringVar(&options.Token, "token", options.Token, "bearer token for http downloads")

	flags.StringVar(&options.Provision.Dir, "dir", options.Provision.Dir, "artifact directory")
	flags.IntVar(&options.Provision.Workers, "workers", options.Provision.Workers, "concurrent downloads")
	flags.IntVar(&options.Provision.Attempts, "attempts", options.Provision.Attempts, "download attempts per artifact")
	flags.DurationVar(&options.Provision.RetryDelay.Duration, "retry-delay", options.Provision.RetryDelay.Duration, "initial delay between download attempts")
	flags.DurationVar(&options.Provision.AttemptTimeout.Duration, "attempt-timeout", options.Provision.AttemptTimeout.Duration, "timeout of a single download attempt")
	flags.StringSliceVar(&options.Disabled, "disable", options.Disabled, "optional models to disable")

	flags.StringVar(&options.Server.Listen, "listen", options.Server.Listen, "admin server listen address")
	flags.StringVar(&options.Server.TLS.CertFile, "tls-cert", options.Server.TLS.CertFile, "tls cert file")
	flags.StringVar(&options.Server.TLS.KeyFile, "tls-key", options.Server.TLS.KeyFile, "tls key file")
	flags.StringVar(&options.Server.OIDC.Issuer, "oidc-issuer", options.Server.OIDC.Issuer, "oidc issuer, enables bearer token checks on /models")
	flags.BoolVar(&options.Preload, "preload", options.Preload, "load every model before serving")
}

// ApplyFlags copies the flags explicitly set on changed into options. Flags
// unknown to BindFlags are ignored.
func ApplyFlags(changed *pflag.FlagSet, options *Options) error {
	target := pflag.NewFlagSet("options", pflag.ContinueOnError)
	BindFlags(target, options)

	var ferr error
	changed.Visit(func(f *pflag.Flag) {
		dst := target.Lookup(f.Name)
		if dst == nil || ferr != nil {
			return
		}
		if src, ok := f.Value.(pflag.SliceValue); ok {
			ferr = dst.Value.(pflag.SliceValue).Replace(src.GetSlice())
			return
		}
		ferr = dst.Value.Set(f.Value.String())
	})
	return ferr
}
