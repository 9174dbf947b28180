package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/Dosada05/pingpong-league/config"
	"github.com/Dosada05/pingpong-league/db"
	"github.com/Dosada05/pingpong-league/handlers"
	"github.com/Dosada05/pingpong-league/metrics"
	"github.com/Dosada05/pingpong-league/repositories"
	api "github.com/Dosada05/pingpong-league/routes"
	"github.com/Dosada05/pingpong-league/scheduler"
	"github.com/Dosada05/pingpong-league/services"
	"github.com/Dosada05/pingpong-league/storage"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info().Int("port", cfg.ServerPort).Msg("configuration loaded")

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("application stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("application exited")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.SetGlobalLevel(cfg.LogLevel)
	if cfg.LogPretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Str("service", "pingpong-league").Logger()
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close database connection")
		} else {
			logger.Info().Msg("database connection closed")
		}
	}()
	logger.Info().Msg("database connection established")

	if err := db.MigrateUp(dbConn); err != nil {
		return err
	}
	logger.Info().Msg("migrations applied")

	repos := services.Repositories{
		Rooms:        repositories.NewPostgresRoomRepository(dbConn),
		Participants: repositories.NewPostgresParticipantRepository(dbConn),
		Teams:        repositories.NewPostgresTeamRepository(dbConn),
		Groups:       repositories.NewPostgresGroupRepository(dbConn),
		Matches:      repositories.NewPostgresMatchRepository(dbConn),
	}
	txRunner := db.NewTxRunner(dbConn)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheus(registry)

	roomService := services.NewRoomService(txRunner, repos, services.RoomDefaults{
		PlayersPerGroup:   cfg.DefaultGroupSize,
		AdvancingPerGroup: cfg.DefaultAdvancingPerGroup,
	}, seededRand(cfg.ShuffleSeed), logger)
	tournamentService := services.NewTournamentService(txRunner, repos, recorder, logger, services.TournamentServiceConfig{
		AllowSimulation: cfg.AllowSimulation,
		Rand:            seededRand(cfg.ShuffleSeed),
	})
	logger.Info().Bool("simulation", cfg.AllowSimulation).Msg("services initialized")

	// Фоновая выгрузка итогов в R2
	var sched *scheduler.Service
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewR2Uploader(context.Background(), cfg.R2)
		if err != nil {
			return fmt.Errorf("failed to initialize R2 uploader: %w", err)
		}
		archiveService := services.NewArchiveService(repos, uploader, recorder, logger)

		sched, err = scheduler.New(logger)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		if err := scheduler.RegisterArchiveJob(sched, archiveService, cfg.ArchiveCron); err != nil {
			return fmt.Errorf("failed to register archive job: %w", err)
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				logger.Error().Err(err).Msg("failed to stop scheduler")
			}
		}()
	} else {
		logger.Info().Msg("result archiving disabled")
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		Gatherer:    registry,
	},
		handlers.NewRoomHandler(roomService),
		handlers.NewTournamentHandler(tournamentService),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("address", server.Addr).Msg("starting server")
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to force close server")
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info().Msg("server shutdown complete")
	return nil
}

// seededRand returns nil for seed 0 so the services pick a random source.
func seededRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, seed))
}
