package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"kubegems.io/modelsrv/pkg/config"
	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/progress"
	"kubegems.io/modelsrv/pkg/source"
	"kubegems.io/modelsrv/pkg/types"
	"kubegems.io/modelsrv/pkg/verify"
)

func NewPublishCmd(global *GlobalOptions) *cobra.Command {
	force := false
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "upload the artifacts of the artifact directory to an s3 bucket",
		Example: `
  modelsrv publish --dir ./models --s3-bucket models --s3-prefix v1.2.0 --s3-url https://minio.example.com
		`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := global.BaseContext()
			defer cancel()

			options, err := global.Load(cmd)
			if err != nil {
				return err
			}
			return Publish(ctx, options, force)
		},
	}
	config.BindFlags(cmd.Flags(), config.DefaultOptions())
	cmd.Flags().BoolVar(&force, "force", force, "overwrite objects already in the bucket")
	return cmd
}

// Publish uploads every verified local artifact under its remote name, so an
// s3 strategy with the same bucket and prefix provisions them back.
func Publish(ctx context.Context, options *config.Options, force bool) error {
	log := logr.FromContextOrDiscard(ctx)
	if options.Location.S3Bucket == "" {
		return modelxerrors.NewConfigInvalidError("publish requires an s3 bucket")
	}
	client, err := source.NewS3Client(ctx, options.S3)
	if err != nil {
		return err
	}
	uploader := &source.S3Uploader{Client: client, Bucket: options.Location.S3Bucket, Prefix: options.Location.S3Prefix}

	mb := progress.NewMultiBar(os.Stdout, 40)
	pctx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		mb.Run(pctx)
		close(done)
	}()
	defer func() {
		stop()
		<-done
	}()

	workers := options.Provision.Workers
	if workers < 1 {
		workers = 1
	}
	eg := errgroup.Group{}
	eg.SetLimit(workers)
	for _, entry := range types.DefaultManifest().Entries() {
		entry := entry
		eg.Go(func() error {
			bar := mb.Add(entry.RemoteName, "pending")
			filename := filepath.Join(options.Provision.Dir, entry.Filename())
			if _, err := os.Stat(filename); os.IsNotExist(err) && entry.Optional {
				log.Info("optional artifact not present, skipping", "entry", entry.Name)
				bar.Finish("skipped")
				return nil
			}
			if err := verify.File(ctx, filename, entry); err != nil {
				bar.Finish("invalid")
				return fmt.Errorf("%s: %w", entry.Name, err)
			}
			if !force {
				exists, err := uploader.Exists(ctx, entry.RemoteName)
				if err != nil {
					return err
				}
				if exists {
					bar.Finish("exists")
					return nil
				}
			}
			f, err := os.Open(filename)
			if err != nil {
				return err
			}
			defer f.Close()
			fi, err := f.Stat()
			if err != nil {
				return err
			}
			bar.SetTotal(fi.Size())
			bar.SetStatus("uploading")
			if err := uploader.Upload(ctx, entry.RemoteName, f, fi.Size()); err != nil {
				bar.Finish("failed")
				return err
			}
			bar.Increment(fi.Size())
			bar.Finish("done")
			return nil
		})
	}
	return eg.Wait()
}
