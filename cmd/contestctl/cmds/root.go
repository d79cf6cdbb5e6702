package cmds

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/quillfight/contest-api/internal/config"
	"github.com/quillfight/contest-api/internal/exitcode"
	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/models"
)

var tracer = otel.Tracer("github.com/quillfight/contest-api/contestctl/cmds")

var (
	configDir string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "contestctl",
	Short:         "Operator commands for the contest api database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		paths := []string{"/etc/contestapi/", "."}
		if configDir != "" {
			paths = []string{configDir}
		}

		loaded, err := config.Load(paths...)
		if err != nil {
			return exitcode.Wrap(exitcode.Config, err)
		}
		cfg = loaded

		logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configDir,
		"config",
		"c",
		"",
		"Directory holding contestapi.yaml (default /etc/contestapi/ then the working directory)",
	)
}

func Execute(ctx context.Context, args ...string) error {
	if args != nil {
		rootCmd.SetArgs(args)
	}
	return rootCmd.ExecuteContext(ctx)
}

// openDB connects with the loaded config. The caller closes it.
func openDB(ctx context.Context) (*gorm.DB, func(), error) {
	db, err := models.Open(ctx, cfg)
	if err != nil {
		return nil, nil, exitcode.Wrap(exitcode.Database, err)
	}

	closer := func() {
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			logger.Logger.Warn("failed to close database", "error", err)
		}
	}
	return db, closer, nil
}
