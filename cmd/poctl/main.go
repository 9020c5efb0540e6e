// cmd/poctl/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/app"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/config"
	"github.com/holt-ace/DASHBOARDV3-sub001/internal/logging"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cmd := newRootCommand(out)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	return cmd.ExecuteContext(ctx)
}

type cli struct {
	configFile string
	out        io.Writer
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "poctl",
		Short:         "Administer the purchase order tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "path to a config file")
	root.AddCommand(
		c.migrateCommand(),
		c.importCommand(),
		c.metricsCommand(),
		c.eventsCommand(),
		c.hashKeyCommand(),
	)
	return root
}

// open loads configuration and builds the application. The returned
// function releases it.
func (c *cli) open(ctx context.Context) (*app.App, *zap.Logger, func(), error) {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize logging: %w", err)
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	return a, logger, func() {
		_ = a.Close()
		_ = logger.Sync()
	}, nil
}
