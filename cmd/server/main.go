package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	servermiddleware "github.com/quillfight/contest-api/cmd/server/internal/middleware"
	"github.com/quillfight/contest-api/cmd/server/internal/routes"
	routesv1 "github.com/quillfight/contest-api/cmd/server/internal/routes/v1"
	"github.com/quillfight/contest-api/internal/aijobs"
	"github.com/quillfight/contest-api/internal/config"
	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/credit"
	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/migrations"
	"github.com/quillfight/contest-api/internal/models"
	"github.com/quillfight/contest-api/internal/otel"
	"github.com/quillfight/contest-api/internal/queue"
	"github.com/quillfight/contest-api/internal/results"
	"github.com/quillfight/contest-api/internal/taskrunner"
	"github.com/quillfight/contest-api/internal/upload"
)

const name string = "github.com/quillfight/contest-api/server"

var tracer = otellib.Tracer(name)

type server struct {
	router       *echo.Echo
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	service      *contest.Service
	taskRunner   *taskrunner.Client
	sweeper      *sweeper
	otelShutdown func(context.Context) error
}

func initServer(ctx context.Context) (*server, error) {
	server := new(server)

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server config: %w", err)
	}
	server.config = cfg

	shutdownOTel, err := otel.SetupOTelSDK(ctx, routes.ServiceName, cfg.Logging.UseOTLP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	defer func() {
		// Something failed to initialize, make sure everything gets flushed to the server
		if server.otelShutdown == nil {
			otelShutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Second*time.Duration(cfg.GracefulShutdownSecs),
			)
			defer cancel()

			if err = shutdownOTel(otelShutdownCtx); err != nil {
				logger.Logger.Error("failed to flush otel data", "error", err)
			}
		}
	}()

	ctx, span := tracer.Start(ctx, "initServer")
	defer span.End()

	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	db, err := models.Open(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize database")
		return nil, err
	}

	err = migrations.Up(ctx, db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to preform database migrations")
		return nil, fmt.Errorf("failed to perform database migrations: %w", err)
	}

	span.AddEvent("migrated database to latest version")

	if err = models.SyncAccounts(ctx, db, cfg.Accounts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to sync accounts from config")
		return nil, fmt.Errorf("failed to sync accounts from config: %w", err)
	}

	span.AddEvent("synced accounts from config")

	queues := cfg.Azure.StorageAccount.Queues
	jobQueue, err := queue.NewAzureQueuer(
		cfg.Azure.StorageAccount.Name,
		cfg.Azure.StorageAccount.Key,
		queues.URL,
		queues.AIJobs,
		queue.AzureOptions{MessageTTL: time.Duration(queues.MessageTTLSecs) * time.Second},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize ai job queue")
		return nil, fmt.Errorf("failed to initialize ai job queue: %w", err)
	}
	if cfg.Azure.Dev {
		if err = jobQueue.EnsureQueue(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create ai job queue")
			return nil, fmt.Errorf("failed to create ai job queue: %w", err)
		}
	}

	span.AddEvent("initialized ai job queue")

	ledger, err := credit.NewLedger(credit.Options{
		BaseURL:  cfg.Credits.URL,
		Token:    cfg.Credits.Token,
		RetryMax: cfg.Credits.RetryMax,
		Timeout:  cfg.Credits.Timeout,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize credit ledger client")
		return nil, fmt.Errorf("failed to initialize credit ledger client: %w", err)
	}

	taskRunnerClient := taskrunner.Create()

	var publisher contest.ResultsPublisher
	resultsStore, err := newResultsStore(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize results store")
		return nil, fmt.Errorf("failed to initialize results store: %w", err)
	}
	if resultsStore != nil {
		backoff := func() retry.Backoff {
			b := retry.NewFibonacci(time.Millisecond * 25)
			b = retry.WithMaxRetries(3, b)
			return b
		}
		publisher = results.NewPublisher(
			upload.NewRetryStore(resultsStore, backoff),
			taskRunnerClient,
			cfg.Results.LinkExpiry,
		)
		span.AddEvent("initialized results publishing")
	} else {
		logger.Logger.Warn("results publishing is disabled")
	}

	service := contest.NewService(
		models.NewStore(db, cfg.Postgres.TxRetries),
		ledger,
		aijobs.NewDispatcher(jobQueue),
		publisher,
		contest.Costs{
			AIJudge:  contest.Cost(cfg.Credits.AIJudgeCost),
			AIWriter: contest.Cost(cfg.Credits.AIWriterCost),
		},
	)

	var redisClient *redis.Client
	if cfg.RateLimit != nil && cfg.RateLimit.RedisHost != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RateLimit.RedisHost + ":6379",
		})
		span.AddEvent("initialized redis client")
	}

	e, err := routes.BuildEcho(logger.Logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error building router")
		return nil, fmt.Errorf("error building router: %w", err)
	}

	span.AddEvent("created echo router")

	middlewareHandler := servermiddleware.Handler{DB: db}
	v1Handler := routesv1.NewHandler(service, cfg, redisClient)
	v1Handler.AddRoutes(e, &middlewareHandler)

	server.otelShutdown = shutdownOTel
	server.router = e
	server.db = db
	server.redis = redisClient
	server.service = service
	server.taskRunner = taskRunnerClient

	return server, nil
}

// newResultsStore returns nil when publishing is switched off.
func newResultsStore(ctx context.Context, cfg *config.Config) (upload.Store, error) {
	switch cfg.Results.Backend {
	case config.ResultsBackendMinio:
		s3 := cfg.Results.S3
		store, err := upload.NewMinioStore(
			s3.Endpoint,
			s3.AccessKeyID,
			s3.SecretAccessKey,
			s3.SSLEnabled,
			s3.BucketName,
		)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.ResultsBackendAzure:
		account := cfg.Azure.StorageAccount
		cred, err := azblob.NewSharedKeyCredential(account.Name, account.Key)
		if err != nil {
			return nil, err
		}
		client, err := azblob.NewClientWithSharedKeyCredential(account.Containers.URL, cred, nil)
		if err != nil {
			return nil, err
		}
		if cfg.Azure.Dev {
			if err := setupContainers(ctx, client, account.Containers); err != nil {
				return nil, fmt.Errorf("error setting up containers for dev environment: %w", err)
			}
		}
		return upload.NewAzureStoreFromClient(client, account.Containers.Results), nil
	default:
		return nil, nil
	}
}

func (s *server) Start(ctx context.Context) error {
	s.sweeper = startSweeper(ctx, s.service, s.config.Sweeper.Interval)

	logger.Logger.Info("Starting services...")

	err := s.router.Start(s.config.ListenAddress)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *server) Shutdown() error {
	var errs error

	ctx, cancelTimeout := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(s.config.GracefulShutdownSecs),
	)
	defer cancelTimeout()

	if err := s.router.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	if s.sweeper != nil {
		if err := s.sweeper.Stop(ctx); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to stop sweeper: %w", err))
		}
	}

	// results uploads run here, so it goes after the router
	if err := s.taskRunner.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to shutdown taskRunner gracefully: %w", err))
	}

	if s.redis != nil {
		errs = errors.Join(errs, s.redis.Close())
	}

	if sqlDB, err := s.db.DB(); err == nil {
		errs = errors.Join(errs, sqlDB.Close())
	}

	if s.otelShutdown != nil {
		errs = errors.Join(errs, s.otelShutdown(ctx))
	}

	return errs
}

func main() {
	ctx, cancelSignal := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	logger.InitSlog()

	server, err := initServer(ctx)
	if err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	errch := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Got shutdown signal!")
		errch <- server.Shutdown()
		close(errch)
	}()

	if err := server.Start(ctx); err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	if err := <-errch; err != nil {
		logger.Logger.Error("Error shutting down server", "error", err)
	}

	cancelSignal()
}

// setupContainers creates the results container in a dev storage account.
func setupContainers(
	ctx context.Context,
	azureClient *azblob.Client,
	containers *config.AzureStorageAccountContainerConfig,
) error {
	_, err := azureClient.CreateContainer(ctx, containers.Results, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return err
	}

	return nil
}
