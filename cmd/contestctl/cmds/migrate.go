package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/quillfight/contest-api/internal/exitcode"
	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/migrations"
)

var downTo int64

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateUpCmd")
		defer span.End()

		db, closeDB, err := openDB(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open database")
			return err
		}
		defer closeDB()

		if err := migrations.Up(ctx, db); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to migrate up")
			return exitcode.Wrap(exitcode.Database, err)
		}

		version, err := migrations.Version(ctx, db)
		if err != nil {
			return exitcode.Wrap(exitcode.Database, err)
		}

		logger.Logger.InfoContext(ctx, "migrated up", "version", version)
		fmt.Fprintln(cmd.OutOrStdout(), version)

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll the schema back to a version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateDownCmd")
		defer span.End()

		span.SetAttributes(attribute.Int64("to", downTo))

		db, closeDB, err := openDB(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open database")
			return err
		}
		defer closeDB()

		if err := migrations.Down(ctx, db, downTo); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to migrate down")
			return exitcode.Wrap(exitcode.Database, err)
		}

		logger.Logger.InfoContext(ctx, "migrated down", "version", downTo)
		fmt.Fprintln(cmd.OutOrStdout(), downTo)

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "migrateVersionCmd")
		defer span.End()

		db, closeDB, err := openDB(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open database")
			return err
		}
		defer closeDB()

		version, err := migrations.Version(ctx, db)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read version")
			return exitcode.Wrap(exitcode.Database, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), version)

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)

	migrateDownCmd.Flags().Int64VarP(&downTo, "to", "t", 0, "Target version, 0 drops everything")
	if err := migrateDownCmd.MarkFlagRequired("to"); err != nil {
		panic(err)
	}
}
