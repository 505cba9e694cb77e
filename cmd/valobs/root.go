package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"alma.local/valobs/config"
	"alma.local/valobs/internal/logging"
)

// app carries state shared by all subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "valobs",
		Short:         "Inspect and exercise value observers",
		Long:          `valobs runs a demo harness through the in-process fuzzer and hashes transported observer snapshots.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	flags.String("log-level", "", "log level: debug, info, warn or error (default info)")
	flags.String("log-format", "", "log format: text or json (default text)")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(newRunCmd(a), newHashCmd(a))
	return root
}

// initConfig loads the config file through config.Load, then layers
// VALOBS_* environment variables and flags on top, and builds the logger.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.cfg = config.DefaultConfig()
	if a.cfgFile != "" {
		loaded, err := config.Load(a.cfgFile)
		if err != nil {
			return err
		}
		a.cfg = *loaded
	}

	a.v.SetEnvPrefix("VALOBS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	var overrides config.Config
	if err := a.v.Unmarshal(&overrides); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	a.cfg.Merge(&overrides)
	// Merge reads a zero seed as unset; an explicit one still wins.
	if a.v.IsSet("run.seed") {
		a.cfg.Run.Seed = a.v.GetInt64("run.seed")
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger, err = logging.New(cmd.ErrOrStderr(), level, a.cfg.Log.Format)
	return err
}
