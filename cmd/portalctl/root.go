package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"campus-portal/backend/internal/session"
)

// app carries what every subcommand shares. The provider is built lazily, after flags are parsed.
type app struct {
	v        *viper.Viper
	fs       afero.Fs
	logger   *zap.Logger
	provider *session.HTTPProvider
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), fs: afero.NewOsFs()}

	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Command line client for the campus portal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	home, _ := os.UserHomeDir()
	flags := root.PersistentFlags()
	flags.String("server", "http://localhost:8080/api/v1", "API base URL")
	flags.String("session-file", filepath.Join(home, ".portalctl", "session.json"), "where the session is kept")
	flags.Duration("timeout", 30*time.Second, "per request timeout")
	flags.BoolP("verbose", "v", false, "debug logging")
	_ = a.v.BindPFlags(flags)

	a.v.SetEnvPrefix("PORTALCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newLoginCmd(a),
		newSignupCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRoleCmd(a),
		newEventsCmd(a),
		newResearchCmd(a),
	)
	return root
}

func (a *app) init() error {
	level := zapcore.WarnLevel
	if a.v.GetBool("verbose") {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	a.logger = logger

	a.provider = session.NewHTTPProvider(a.v.GetString("server"), logger,
		session.WithSessionFile(a.fs, a.v.GetString("session-file")),
		session.WithTimeout(a.v.GetDuration("timeout")),
	)
	return nil
}
