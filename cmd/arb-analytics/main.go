package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/config"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/dedup"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/engine"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/hub"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/logger"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/sink"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/internal/writer"
)

func main() {
	fmt.Println("=== Fortuna Arbitrage Analytics v0 ===")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional output sinks
	var sinks []sink.Named

	if cfg.Holocron.DSN != "" {
		holocronDB, err := connectDB(cfg.Holocron.DSN)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Holocron: %v", err)
		}
		defer holocronDB.Close()

		w := writer.NewHolocronWriter(holocronDB)
		if err := w.EnsureSchema(ctx); err != nil {
			log.Fatalf("❌ Failed to prepare Holocron schema: %v", err)
		}
		sinks = append(sinks, sink.Named{Name: "holocron", Sink: w})
		log.Info("✓ Connected to Holocron DB")
	}

	if cfg.Redis.URL != "" {
		redisClient, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		var d publisher.Deduper
		if cfg.Redis.DedupTTL > 0 {
			d = dedup.NewDeduplicator(redisClient, cfg.Redis.DedupTTL)
		}
		p := publisher.NewStreamPublisher(redisClient, cfg.Redis.OpportunitiesStream, d, log)
		sinks = append(sinks, sink.Named{Name: "redis", Sink: p})
		log.WithField("stream", cfg.Redis.OpportunitiesStream).Info("✓ Connected to Redis")
	}

	var feed *handlers.FeedHandler
	if cfg.Feed.Enabled {
		h := hub.NewHub(log)
		go h.Run(ctx)
		feed = handlers.NewFeedHandler(ctx, h, log, cfg.Server.CORSOrigins)
		sinks = append(sinks, sink.Named{Name: "feed", Sink: h})
	}

	// Analytics engine
	e := engine.New(engine.Config{
		Trials:       cfg.Engine.SimTrials,
		Workers:      cfg.Engine.SimWorkers,
		Seed:         cfg.Engine.SimSeed,
		RiskFreeRate: cfg.Engine.RiskFreeRate,
	}, log)

	outputs := sink.NewMulti(log, sinks...)
	handler := handlers.NewHandler(e, outputs, log, cfg.Engine.DefaultBankroll, cfg.Engine.MinEdge)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.Timeout))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers.Routes(r, handler, feed)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"port":             cfg.Server.Port,
			"default_bankroll": cfg.Engine.DefaultBankroll,
			"min_edge":         cfg.Engine.MinEdge,
			"sim_trials":       cfg.Engine.SimTrials,
			"sim_workers":      cfg.Engine.SimWorkers,
			"sinks":            outputs.Len(),
		}).Info("✓ Arbitrage Analytics started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("✓ Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("❌ Shutdown error: %v", err)
	}
	cancel()

	log.Info("✓ Arbitrage Analytics stopped")
}

func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// connectRedis accepts either a redis:// URL or a host:port address
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
