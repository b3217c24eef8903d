package command

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"kubegems.io/modelsrv/pkg/config"
	"kubegems.io/modelsrv/pkg/version"
)

type GlobalOptions struct {
	ConfigFile string
	Verbosity  int
	Insecure   bool
}

func NewModelsrvCmd() *cobra.Command {
	global := &GlobalOptions{}
	cmd := &cobra.Command{
		Use:           "modelsrv",
		Short:         "provision and serve prediction model artifacts",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if global.Insecure {
			http.DefaultTransport.(*http.Transport).TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true,
			}
		}
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&global.ConfigFile, "config", "c", global.ConfigFile, "options file, yaml or json")
	flags.IntVarP(&global.Verbosity, "verbose", "v", global.Verbosity, "log verbosity")
	flags.BoolVarP(&global.Insecure, "insecure", "", global.Insecure, "tls insecure skip verify")

	cmd.AddCommand(
		NewProvisionCmd(global),
		NewServeCmd(global),
		NewStatusCmd(global),
		NewPublishCmd(global),
		NewVersionCmd(),
	)
	return cmd
}

func (g *GlobalOptions) BaseContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	stdr.SetVerbosity(g.Verbosity)
	ctx = logr.NewContext(ctx, stdr.NewWithOptions(log.Default(), stdr.Options{LogCaller: stdr.Error}))
	return ctx, cancel
}

// Load layers the options file, the environment and the flags set on cmd.
func (g *GlobalOptions) Load(cmd *cobra.Command) (*config.Options, error) {
	options, err := config.Load(g.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyFlags(cmd.Flags(), options); err != nil {
		return nil, err
	}
	return options, nil
}
