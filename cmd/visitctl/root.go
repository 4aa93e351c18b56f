package main

import (
	"os"

	"github.com/sifan077/VisitAudit/internal/dashboard"
	"github.com/sifan077/VisitAudit/internal/infra/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultServer = "http://localhost:8080"

type globalOptions struct {
	server    string
	tokenFile string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "visitctl",
		Short:         "Admin console for VisitAudit unsubscribe logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("VISITAUDIT_URL")
	if server == "" {
		server = defaultServer
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", server, "base URL of the VisitAudit server")
	cmd.PersistentFlags().StringVar(&opts.tokenFile, "token-file", "", "where the admin token is kept (default: user config dir)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newStatusCmd(opts),
		newLogsCmd(opts),
		newStatsCmd(opts),
		newAnalyticsCmd(opts),
		newExportCmd(opts),
		newProbeCmd(opts),
		newHashPasswordCmd(),
	)
	return cmd
}

func (o *globalOptions) logger() *zap.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	l, err := logger.New(logger.Config{Development: true, Level: level, Encoding: "console"})
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func (o *globalOptions) client() *dashboard.Client {
	return dashboard.NewClient(o.server, nil)
}

func (o *globalOptions) session() (*dashboard.Session, error) {
	path := o.tokenFile
	if path == "" {
		var err error
		if path, err = dashboard.DefaultTokenPath(); err != nil {
			return nil, err
		}
	}
	return dashboard.NewSession(o.client(), dashboard.NewFileTokenStore(path)), nil
}
