package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/livetally/internal/adapters/repository/postgres"
	redistally "github.com/vncsmyrnk/livetally/internal/adapters/repository/redis"
	"github.com/vncsmyrnk/livetally/internal/config"
	"github.com/vncsmyrnk/livetally/internal/core/services"
)

// One-shot finalization sweep, meant to run from cron as a safety net
// behind the in-server sweeper. Only useful with the shared Redis
// tally backend; an in-process tally is not reachable from here.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.TallyBackend != config.TallyBackendRedis {
		log.Fatal("the finalizer job requires TALLY_BACKEND=redis")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	defer client.Close()

	pollRepo := postgres.NewPollRepository(db)
	resultRepo := postgres.NewPollResultRepository(db)
	finalizeSvc := services.NewFinalizeService(pollRepo, resultRepo, redistally.NewTallyStore(client), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logger.Info().Msg("starting finalization sweep")

	if err := finalizeSvc.FinalizeClosedPolls(ctx); err != nil {
		log.Fatalf("Error finalizing polls: %v", err)
	}

	logger.Info().Msg("finalization sweep completed")
}
