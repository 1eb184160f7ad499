package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/livetally/internal/adapters/broadcast"
	"github.com/vncsmyrnk/livetally/internal/adapters/handler/http"
	"github.com/vncsmyrnk/livetally/internal/adapters/handler/ws"
	"github.com/vncsmyrnk/livetally/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livetally/internal/adapters/repository/postgres"
	redistally "github.com/vncsmyrnk/livetally/internal/adapters/repository/redis"
	"github.com/vncsmyrnk/livetally/internal/config"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
	"github.com/vncsmyrnk/livetally/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	var tally ports.TallyStore
	if cfg.TallyBackend == config.TallyBackendRedis {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		tally = redistally.NewTallyStore(client)
	} else {
		tally = memory.NewTallyStore()
	}

	pollRepo := postgres.NewPollRepository(db)
	resultRepo := postgres.NewPollResultRepository(db)

	hub := broadcast.NewHub()

	voteSvc := services.NewVoteService(pollRepo, resultRepo, tally, hub, logger)
	finalizeSvc := services.NewFinalizeService(pollRepo, resultRepo, tally, logger)
	tokenSvc := services.NewTokenService(pollRepo, tally, logger)

	pollHandler := http.NewPollHandler(pollRepo, finalizeSvc)
	voteHandler := http.NewVoteHandler(voteSvc)
	tokenHandler := http.NewTokenHandler(tokenSvc)
	liveHandler := ws.NewLiveHandler(pollRepo, hub, logger)

	handler := http.NewHandler(pollHandler, voteHandler, tokenHandler, liveHandler, []byte(cfg.JWTSecret))
	server := &stdhttp.Server{Addr: cfg.ServerAddr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Lifecycle observer: polls whose window ended get finalized even
	// if nobody calls the explicit endpoint.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := finalizeSvc.FinalizeClosedPolls(ctx); err != nil {
					logger.Error().Err(err).Msg("finalize sweep failed")
				}
			}
		}
	}()

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
