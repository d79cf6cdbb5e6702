package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/quillfight/contest-api/cmd/contestctl/cmds"
	"github.com/quillfight/contest-api/internal/exitcode"
	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/otel"
)

const serviceName = "contestctl"

func runApp(ctx context.Context) int {
	useOTLP, err := strconv.ParseBool(os.Getenv("USE_OTLP"))
	if err != nil {
		useOTLP = false
	}

	shutdown, err := otel.SetupOTelSDK(ctx, serviceName, useOTLP)
	if err != nil {
		logger.Logger.Warn("failed to setup otel sdk", "error", err)
	}
	defer func() {
		if fail := shutdown(context.WithoutCancel(ctx)); fail != nil {
			logger.Logger.Warn("no clean shutdown for otel", "error", fail)
		}
	}()

	err = cmds.Execute(ctx)
	if err != nil {
		logger.Logger.Error("error executing subcommands", "error", err)
	}
	return exitcode.From(err)
}

func main() {
	logger.InitSlog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	code := runApp(ctx)
	cancel()

	os.Exit(code)
}
