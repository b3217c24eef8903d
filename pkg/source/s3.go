package source

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/transport/http"
	"github.com/go-logr/logr"
	"k8s.io/utils/pointer"
	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/location"
)

type S3Options struct {
	URL       string `json:"url,omitempty"`
	Region    string `json:"region,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty"`
}

func NewDefaultS3Options() *S3Options {
	return &S3Options{
		Region:    "us-east-1",
		PathStyle: true,
	}
}

// NewS3Client builds a client for an s3 compatible endpoint. Without static
// keys the default aws credential chain is used.
func NewS3Client(ctx context.Context, options *S3Options) (*s3.Client, error) {
	loadopts := []func(*config.LoadOptions) error{
		config.WithRegion(options.Region),
	}
	if options.AccessKey != "" {
		loadopts = append(loadopts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKey, options.SecretKey, ""),
		))
	}
	if options.URL != "" {
		loadopts = append(loadopts, config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{URL: options.URL, HostnameImmutable: options.PathStyle}, nil
				},
			),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadopts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = options.PathStyle
	}), nil
}

type S3Fetcher struct {
	Client *s3.Client
}

func (f *S3Fetcher) Fetch(ctx context.Context, loc location.Location, into io.Writer) (int64, error) {
	bucket, key, err := location.SplitS3URL(loc.URL)
	if err != nil {
		return 0, modelxerrors.NewParameterInvalidError(err.Error())
	}
	out, err := f.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if IsS3StorageNotFound(err) {
			return 0, modelxerrors.NewArtifactNotFoundError(loc.URL, key)
		}
		return 0, modelxerrors.NewDownloadFailedError(loc.URL, err)
	}
	defer out.Body.Close()

	n, err := io.Copy(into, out.Body)
	if err != nil {
		return n, modelxerrors.NewDownloadFailedError(loc.URL, err)
	}
	if out.ContentLength > 0 && n != out.ContentLength {
		return n, modelxerrors.NewDownloadFailedError(loc.URL, io.ErrUnexpectedEOF)
	}
	return n, nil
}

func IsS3StorageNotFound(err error) bool {
	var nosuchkey *s3types.NoSuchKey
	if errors.As(err, &nosuchkey) {
		return true
	}
	var apie *http.ResponseError
	if errors.As(err, &apie) {
		return apie.HTTPStatusCode() == 404
	}
	return false
}

// S3Uploader publishes local artifacts into a bucket, the reverse of S3Fetcher.
type S3Uploader struct {
	Client *s3.Client
	Bucket string
	Prefix string
}

func (u *S3Uploader) Key(name string) string {
	return path.Join(u.Prefix, name)
}

func (u *S3Uploader) Exists(ctx context.Context, name string) (bool, error) {
	_, err := u.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key(name)),
	})
	if err != nil {
		if IsS3StorageNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (u *S3Uploader) Upload(ctx context.Context, name string, content io.Reader, size int64) error {
	out, err := manager.NewUploader(u.Client).Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.Bucket),
		Key:           aws.String(u.Key(name)),
		Body:          content,
		ContentLength: size,
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return modelxerrors.NewInternalError(err)
	}
	logr.FromContextOrDiscard(ctx).Info("uploaded artifact", "key", u.Key(name), "etag", pointer.StringDeref(out.ETag, ""))
	return nil
}
