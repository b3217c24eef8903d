package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
	"kubegems.io/modelsrv/pkg/config"
	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/registry"
	"kubegems.io/modelsrv/pkg/types"
	"kubegems.io/modelsrv/pkg/units"
	"kubegems.io/modelsrv/pkg/verify"
	"sigs.k8s.io/yaml"
)

type StatusOptions struct {
	Output string
	Sort   string
	Verify bool
}

// ArtifactStatus is the on-disk view of one manifest entry.
type ArtifactStatus struct {
	registry.ModelStatus
	Verified    *bool  `json:"verified,omitempty"`
	VerifyError string `json:"verifyError,omitempty"`
}

func NewStatusCmd(global *GlobalOptions) *cobra.Command {
	statusopts := &StatusOptions{Output: "table", Sort: "manifest"}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "show the artifacts of the artifact directory",
		Example: `
  modelsrv status --dir /var/lib/models
  modelsrv status --verify -o yaml
		`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := global.BaseContext()
			defer cancel()

			options, err := global.Load(cmd)
			if err != nil {
				return err
			}
			items, err := Status(ctx, options, statusopts)
			if err != nil {
				return err
			}
			return PrintStatus(os.Stdout, items, statusopts)
		},
	}
	config.BindFlags(cmd.Flags(), config.DefaultOptions())
	cmd.Flags().StringVarP(&statusopts.Output, "output", "o", statusopts.Output, "output format, table, json or yaml")
	cmd.Flags().StringVar(&statusopts.Sort, "sort", statusopts.Sort, "sort by manifest, name or size")
	cmd.Flags().BoolVar(&statusopts.Verify, "verify", statusopts.Verify, "verify content of present artifacts")
	return cmd
}

func Status(ctx context.Context, options *config.Options, statusopts *StatusOptions) ([]ArtifactStatus, error) {
	manifest := types.DefaultManifest()
	reg := registry.New(manifest, options.Provision.Dir, registry.WithDisabled(options.Disabled...))

	items := []ArtifactStatus{}
	for _, s := range reg.Status() {
		item := ArtifactStatus{ModelStatus: s}
		if statusopts.Verify && s.OnDisk {
			entry, _ := manifest.Lookup(s.Name)
			err := verify.File(ctx, filepath.Join(options.Provision.Dir, entry.Filename()), entry)
			ok := err == nil
			item.Verified = &ok
			if err != nil {
				item.VerifyError = err.Error()
			}
		}
		items = append(items, item)
	}

	switch statusopts.Sort {
	case "", "manifest":
	case "name":
		slices.SortFunc(items, func(a, b ArtifactStatus) bool { return a.Name < b.Name })
	case "size":
		slices.SortFunc(items, func(a, b ArtifactStatus) bool { return a.FileSize > b.FileSize })
	default:
		return nil, modelxerrors.NewParameterInvalidError("unknown sort: " + statusopts.Sort)
	}
	return items, nil
}

func PrintStatus(w io.Writer, items []ArtifactStatus, statusopts *StatusOptions) error {
	switch strings.ToLower(statusopts.Output) {
	case "json":
		raw, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(raw))
	case "yaml":
		raw, err := yaml.Marshal(items)
		if err != nil {
			return err
		}
		fmt.Fprint(w, string(raw))
	case "", "table":
		t := table.NewWriter()
		t.SetOutputMirror(w)
		header := table.Row{"Name", "File", "Format", "Optional", "On Disk", "Size"}
		if statusopts.Verify {
			header = append(header, "Verified")
		}
		t.AppendHeader(header)
		for _, item := range items {
			size := ""
			if item.OnDisk {
				size = units.HumanSize(float64(item.FileSize))
			}
			optional := fmt.Sprint(item.Optional)
			if item.Disabled {
				optional = "disabled"
			}
			row := table.Row{item.Name, item.File, item.Format, optional, item.OnDisk, size}
			if statusopts.Verify {
				switch {
				case item.Verified == nil:
					row = append(row, "-")
				case *item.Verified:
					row = append(row, "ok")
				default:
					row = append(row, item.VerifyError)
				}
			}
			t.AppendRow(row)
		}
		t.Render()
	default:
		return modelxerrors.NewParameterInvalidError("unknown output: " + statusopts.Output)
	}
	return nil
}
