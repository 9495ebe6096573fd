package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	"trust-multisig/internal/app"
	"trust-multisig/internal/config"
	"trust-multisig/internal/executor"
	"trust-multisig/internal/identity"
	"trust-multisig/internal/model"
	"trust-multisig/internal/ports/http"
	"trust-multisig/internal/quorum"
	"trust-multisig/internal/repository/mongodb"
	"trust-multisig/internal/repository/sqlite"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := getLogger()
	if err != nil {
		log.Fatalln("setting up the logger failed: ", err)
		return
	}
	defer logger.Sync()

	logger.Info("application started")

	if err := run(logger); err != nil {
		logger.Error("application failed: " + err.Error())
		os.Exit(1)
	}

	logger.Info("application finished")
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	genesis, err := config.LoadGenesis()
	if err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}

	store, closeStore, err := openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []app.Option{
		app.WithEligibility(identity.NewContractRegistry(logger, genesis.ContractAddresses()...)),
		app.WithName(config.GetEngineName()),
	}
	if store != nil {
		opts = append(opts, app.WithStore(store))
	}

	settings := app.Settings{
		Owners:      genesis.OwnerAddresses(),
		Quorum:      genesis.Quorum,
		Rule:        quorum.RevocationRule(genesis.RevocationRule),
		AutoExecute: genesis.AutoExecute,
	}
	engine, err := app.Open(ctx, logger, settings, getExecutor(logger), opts...)
	if err != nil {
		return err
	}
	engine.Subscribe(func(event model.Event) error {
		logger.Info("event", zap.String("type", event.Type.String()), zap.Uint64("sequence", event.Sequence), zap.String("id", event.ID))
		return nil
	})

	ser := http.NewServer(logger, engine, config.GetPort(), http.Options{
		AuthSecret:         config.GetAuthSecret(),
		RateLimitPerMinute: config.GetRateLimitPerMinute(),
		TrustProxy:         config.GetTrustProxy(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(ser.Run)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down the server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return ser.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore returns a nil store for the in-memory backend.
func openStore(logger *zap.Logger) (app.Store, func(), error) {
	switch backend := config.GetStoreBackend(); backend {
	case config.StoreMemory:
		logger.Warn("state is kept in memory only")
		return nil, func() {}, nil

	case config.StoreSQLite:
		store, err := sqlite.Open(logger, config.GetSqlitePath())
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close the sqlite store: " + err.Error())
			}
		}, nil

	case config.StoreMongoDB:
		repo, err := mongodb.NewConnection(logger, config.GetDbConnectionURI(), config.GetDatabaseName())
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Disconnect, nil

	default:
		return nil, nil, errors.New("unknown store backend: " + backend)
	}
}

func getExecutor(logger *zap.Logger) executor.Executor {
	if url := config.GetExecutorURL(); url != "" {
		logger.Info("actions are forwarded", zap.String("url", url))
		return executor.NewHTTPExecutor(logger, url)
	}
	return executor.NewBook(logger, config.GetTreasury())
}

func getLogger() (*zap.Logger, error) {
	options := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.FatalLevel),
	}

	level, err := zapcore.ParseLevel(config.GetLogLevel())
	if err != nil {
		level = zap.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	cfg.Development = true
	cfg.Level.SetLevel(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.WithOptions(options...), nil
}
