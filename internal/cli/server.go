package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classquiz-engine/internal/config"
	"classquiz-engine/internal/engine"
	"classquiz-engine/internal/infra/memory"
	pgstore "classquiz-engine/internal/infra/postgres"
	redisinfra "classquiz-engine/internal/infra/redis"
	transport "classquiz-engine/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz engine server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	eng, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := transport.NewHandler(eng)
	wsHandler := transport.NewWSHandler(eng)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildEngine wires the store, caches, and live state from config. Without
// postgres/redis the engine runs entirely in memory, which is enough for
// demos and local development.
func buildEngine(ctx context.Context, cfg config.Config) (*engine.Engine, func(), error) {
	cleanup := func() {}

	var store engine.Store = memory.NewStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		store = pgstore.NewStore(pool)
		cleanup = pool.Close
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	keyTTL := config.TTLDuration(cfg.Quiz.AnswerKeyTTL, 10*time.Minute)
	var keys engine.AnswerKeys
	if redisClient != nil {
		keys = redisinfra.NewAnswerKeyCache(redisClient, store, keyTTL)
	} else {
		keys = memory.NewAnswerKeyCache(store, keyTTL)
	}

	var live engine.LiveRepository
	if redisClient != nil {
		live = redisinfra.NewLiveStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		live = memory.NewLiveStore()
	}

	opts := engine.Options{
		BasePoints: cfg.Quiz.BasePoints,
		Simulator: engine.SimulatorOptions{
			CohortSize:     cfg.Simulator.CohortSize,
			OffsetStep:     config.TTLDuration(cfg.Simulator.OffsetStep, 0),
			MinAnswerDelay: config.TTLDuration(cfg.Simulator.MinAnswerDelay, 0),
			MaxAnswerDelay: config.TTLDuration(cfg.Simulator.MaxAnswerDelay, 0),
			Names:          cfg.Simulator.Names,
		},
	}
	return engine.New(store, keys, live, opts), cleanup, nil
}
