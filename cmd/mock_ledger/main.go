package main

import (
	"os"

	slogecho "github.com/samber/slog-echo"
	"github.com/spf13/cobra"

	routesv1 "github.com/quillfight/contest-api/cmd/mock_ledger/routes/v1"
	"github.com/quillfight/contest-api/internal/logger"
)

// Stand-in for the credit ledger during local development
func main() {
	var (
		listen  string
		initial int64
		token   string
	)

	cmd := &cobra.Command{
		Use:          "mock_ledger",
		Short:        "In-memory credit ledger",
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			logger.InitSlog()

			e := routesv1.BuildEcho(routesv1.NewLedger(initial), token)
			e.Use(slogecho.New(logger.Logger))

			return e.Start(listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8081", "listen address")
	cmd.Flags().Int64Var(&initial, "initial", 100, "credits of an actor the ledger has not seen, 0 makes them unknown")
	cmd.Flags().StringVar(&token, "token", "", "bearer token clients must send")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
