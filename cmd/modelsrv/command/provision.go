package command

import (
	"context"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"kubegems.io/modelsrv/pkg/config"
	"kubegems.io/modelsrv/pkg/progress"
	"kubegems.io/modelsrv/pkg/provision"
	"kubegems.io/modelsrv/pkg/types"
	"kubegems.io/modelsrv/pkg/units"
)

func NewProvisionCmd(global *GlobalOptions) *cobra.Command {
	showProgress := true
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "download missing model artifacts into the artifact directory",
		Example: `
  modelsrv provision --repo acme/diagnostics --tag v1.2.0 --dir /var/lib/models
  modelsrv provision --base-url file:///mnt/mirror --dir ./models
  MODELS_S3_BUCKET=models modelsrv provision
		`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := global.BaseContext()
			defer cancel()

			options, err := global.Load(cmd)
			if err != nil {
				return err
			}
			var display io.Writer
			if showProgress {
				display = os.Stdout
			}
			report, err := Provision(ctx, options, display)
			if report != nil {
				PrintReport(os.Stdout, report)
			}
			return err
		},
	}
	config.BindFlags(cmd.Flags(), config.DefaultOptions())
	cmd.Flags().BoolVar(&showProgress, "progress", showProgress, "show download progress")
	return cmd
}

// Provision runs the provisioner for the default manifest. Progress is drawn on display when set.
func Provision(ctx context.Context, options *config.Options, display io.Writer) (*provision.Report, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	strategy, err := options.Strategy()
	if err != nil {
		return nil, err
	}
	fetcher, err := options.Fetcher(ctx)
	if err != nil {
		return nil, err
	}
	p := provision.New(options.Provision, fetcher)

	if display != nil {
		p.Progress = progress.NewMultiBar(display, 40)
		pctx, stop := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			p.Progress.Run(pctx)
			close(done)
		}()
		defer func() {
			stop()
			<-done
		}()
	}
	return p.EnsureAllPresent(ctx, types.DefaultManifest(), strategy)
}

func PrintReport(w io.Writer, report *provision.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Name", "File", "Optional", "Outcome", "Reason", "Size", "Attempts"})
	for _, res := range report.Results {
		size := ""
		if res.Bytes > 0 {
			size = units.HumanSize(float64(res.Bytes))
		}
		t.AppendRow(table.Row{
			res.Entry.Name,
			res.Entry.Filename(),
			res.Entry.Optional,
			res.Outcome,
			res.Reason,
			size,
			res.Attempts,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", report.Duration.String()})
	t.Render()
}
