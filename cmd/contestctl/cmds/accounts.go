package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/quillfight/contest-api/internal/exitcode"
	"github.com/quillfight/contest-api/internal/models"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage api accounts",
}

var accountsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upsert the accounts of the config and deactivate the rest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "accountsSyncCmd")
		defer span.End()

		span.SetAttributes(attribute.Int("accounts", len(cfg.Accounts)))

		db, closeDB, err := openDB(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to open database")
			return err
		}
		defer closeDB()

		if err := models.SyncAccounts(ctx, db, cfg.Accounts); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to sync accounts")
			return exitcode.Wrap(exitcode.Database, err)
		}

		for _, a := range cfg.Accounts {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tactive=%t\n", a.ID, a.Role, a.Note, *a.Active)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsSyncCmd)
}
