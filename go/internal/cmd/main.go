package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gridiron/go/internal/draft"
	"github.com/mcdev12/gridiron/go/internal/leagues"
	"github.com/mcdev12/gridiron/go/internal/ledger"
	"github.com/mcdev12/gridiron/go/internal/notify"
	"github.com/mcdev12/gridiron/go/internal/players"
	"github.com/mcdev12/gridiron/go/internal/roster"
	"github.com/mcdev12/gridiron/go/internal/scheduler"
	"github.com/mcdev12/gridiron/go/internal/sqlutil"
	"github.com/mcdev12/gridiron/go/internal/sync"
	"github.com/mcdev12/gridiron/go/internal/teams"
	"github.com/mcdev12/gridiron/go/internal/trades"
	"github.com/mcdev12/gridiron/go/internal/transition"
	"github.com/mcdev12/gridiron/go/internal/waivers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/mcdev12/gridiron/go/internal/platforms/espn"
	_ "github.com/mcdev12/gridiron/go/internal/platforms/mfl"
	_ "github.com/mcdev12/gridiron/go/internal/platforms/sleeper"
	_ "github.com/mcdev12/gridiron/go/internal/platforms/yahoo"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := openDatabase(getEnv("MIGRATIONS_PATH", "migrations"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	natsCfg := notify.DefaultNATSConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
	dispatcher, err := notify.NewNATSDispatcher(natsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer dispatcher.Close()

	clock := clockwork.NewRealClock()

	// Stores
	playersRepo := players.NewRepository(db)
	teamsRepo := teams.NewRepository(db)
	leaguesRepo := leagues.NewRepository(db)
	rosterRepo := roster.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	waiversRepo := waivers.NewRepository(db)
	transitionRepo := transition.NewRepository(db)
	tradesRepo := trades.NewRepository(db)
	draftRepo := draft.NewRepository(db)
	formatsRepo := sync.NewRepository(db)

	// Apps
	txn := sqlutil.NewRunner(db)
	ledgerApp := ledger.NewApp(ledgerRepo, clock)
	rosterApp := roster.NewApp(rosterRepo, playersRepo, leaguesRepo, ledgerApp)
	waiverSettlement := waivers.NewSettlement(txn, waiversRepo, rosterRepo, leaguesRepo,
		teamsRepo, playersRepo, ledgerApp, dispatcher, clock)
	transitionSettlement := transition.NewSettlement(txn, transitionRepo, rosterRepo,
		leaguesRepo, ledgerApp, dispatcher, clock)
	tradesApp := trades.NewApp(txn, tradesRepo, rosterRepo, leaguesRepo, draftRepo,
		ledgerApp, dispatcher, clock)
	syncOrch := sync.NewOrchestrator(leaguesRepo, teamsRepo, playersRepo, rosterRepo,
		ledgerApp, formatsRepo, sync.NewValidator(sync.NewSchemaCache()), clock)

	sched := scheduler.New(leaguesRepo, waiverSettlement, transitionSettlement,
		clock, cfg.Scheduler.Interval, cfg.Scheduler.NumWorkers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduler failed")
		}
	}()

	api := &apiServer{
		sync:      syncOrch,
		trades:    tradesApp,
		roster:    rosterApp,
		scheduler: sched,
	}
	mux := http.NewServeMux()
	api.routes(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health check server shutdown failed")
	}

	cancel()
	time.Sleep(2 * time.Second)
	log.Info().Msg("settlement service shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
