package command

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"kubegems.io/modelsrv/pkg/config"
	"kubegems.io/modelsrv/pkg/registry"
	"kubegems.io/modelsrv/pkg/server"
	"kubegems.io/modelsrv/pkg/types"
)

func NewServeCmd(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "provision artifacts, then serve model status and metrics",
		Long:  "serve exits before listening when a required artifact cannot be provisioned.",
		Example: `
  modelsrv serve --repo acme/diagnostics --tag v1.2.0 --listen :8080 --preload
		`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := global.BaseContext()
			defer cancel()

			options, err := global.Load(cmd)
			if err != nil {
				return err
			}
			if _, err := Provision(ctx, options, nil); err != nil {
				return err
			}
			reg := registry.New(types.DefaultManifest(), options.Provision.Dir, registry.WithDisabled(options.Disabled...))
			if options.Preload {
				if err := reg.Warm(ctx); err != nil {
					return err
				}
				logr.FromContextOrDiscard(ctx).Info("models preloaded")
			}
			return server.Run(ctx, options.Server, reg)
		},
	}
	config.BindFlags(cmd.Flags(), config.DefaultOptions())
	return cmd
}
