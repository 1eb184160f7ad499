package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/livetally/internal/adapters/repository/postgres"
	redistally "github.com/vncsmyrnk/livetally/internal/adapters/repository/redis"
	"github.com/vncsmyrnk/livetally/internal/config"
	"github.com/vncsmyrnk/livetally/internal/core/services"
)

// tokengen mints voter tokens for a restricted poll and seeds its
// allow-list, printing the plaintext tokens for distribution.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var (
		pollIDStr string
		count     int
	)
	flag.StringVar(&pollIDStr, "poll", "", "public id of the restricted poll")
	flag.IntVar(&count, "count", 0, "number of tokens to generate")
	flag.Parse()

	pollID, err := uuid.Parse(pollIDStr)
	if err != nil {
		log.Fatalf("a valid -poll id is required: %v", err)
	}
	if count <= 0 {
		log.Fatal("a positive -count is required")
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.TallyBackend != config.TallyBackendRedis {
		log.Fatal("tokengen requires TALLY_BACKEND=redis so the server sees the seeded allow-list")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	defer client.Close()

	tokenSvc := services.NewTokenService(postgres.NewPollRepository(db), redistally.NewTallyStore(client), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tokens, err := tokenSvc.GenerateTokens(ctx, pollID, count)
	if err != nil {
		log.Fatalf("Error generating tokens: %v", err)
	}

	for _, token := range tokens {
		fmt.Println(token)
	}
}
