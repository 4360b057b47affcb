package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/xjanova/smschecker-sub001/internal/config"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/logger"
	"github.com/xjanova/smschecker-sub001/internal/syncclient"
)

const (
	ClientConfigEnv   = "SMSCHECKER_CLIENT_CONFIG"
	defaultConfigPath = "client.yaml"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	logger *slog.Logger
	fleet  *syncclient.Fleet
}

// NewRootCmd builds the sync client command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "smschecker-sync",
		Short:         "Push bank SMS notifications to payment servers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	defaultPath := os.Getenv(ClientConfigEnv)
	if defaultPath == "" {
		defaultPath = defaultConfigPath
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultPath, "Client config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(pushCmd(a))
	root.AddCommand(statusCmd(a))
	root.AddCommand(approvalsCmd(a))
	return root
}

func (a *app) load(stderr io.Writer) error {
	cfg, err := config.LoadClient(a.configPath)
	if err != nil {
		return err
	}
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.logger = logger.NewLoggerTo(config.LogConfig{LogLevel: level, LogFormat: "text"}, stderr)

	fleet, err := syncclient.NewFleet(cfg, nil, a.logger)
	if err != nil {
		return fmt.Errorf("%s: %w", a.configPath, err)
	}
	a.fleet = fleet
	return nil
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context, version string) error {
	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
