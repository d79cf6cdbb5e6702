package cmds

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/exitcode"
	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/models"
)

var sweepAt string

// Runs a single pass of the server's expiry sweeper. Results publishing and
// AI collaborators stay disabled here.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Move open contests past their end date into evaluation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "sweepCmd")
		defer span.End()

		now := time.Now().UTC()
		if sweepAt != "" {
			at, err := time.Parse(time.RFC3339, sweepAt)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "invalid --at")
				return exitcode.Wrap(exitcode.Config, fmt.Errorf("invalid --at: %w", err))
			}
			now = at.UTC()
		}

		db, closeDB, err := openDB(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open database")
			return err
		}
		defer closeDB()

		service := contest.NewService(models.NewStore(db, cfg.Postgres.TxRetries), nil, nil, nil, contest.Costs{})
		advanced, err := service.AdvanceExpired(ctx, now)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sweep failed")
			return exitcode.Wrap(exitcode.Database, err)
		}

		span.SetAttributes(attribute.Int("advanced", len(advanced)))
		logger.Logger.InfoContext(ctx, "swept expired contests", "count", len(advanced))
		for _, id := range advanced {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepAt, "at", "", "Sweep as of this RFC 3339 time instead of now")
}
