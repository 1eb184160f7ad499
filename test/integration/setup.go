package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vncsmyrnk/livetally/internal/adapters/broadcast"
	handler "github.com/vncsmyrnk/livetally/internal/adapters/handler/http"
	"github.com/vncsmyrnk/livetally/internal/adapters/handler/ws"
	"github.com/vncsmyrnk/livetally/internal/adapters/repository/memory"
	repo "github.com/vncsmyrnk/livetally/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
	"github.com/vncsmyrnk/livetally/internal/core/services"
)

const testJWTSecret = "test-secret"

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	Hub         *broadcast.Hub
	Tally       ports.TallyStore
	FinalizeSvc ports.FinalizeService
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()

	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	require.NoError(t, applyMigrations(db))

	logger := zerolog.Nop()
	pollRepo := repo.NewPollRepository(db)
	resultRepo := repo.NewPollResultRepository(db)
	tally := memory.NewTallyStore()
	hub := broadcast.NewHub()

	voteSvc := services.NewVoteService(pollRepo, resultRepo, tally, hub, logger)
	finalizeSvc := services.NewFinalizeService(pollRepo, resultRepo, tally, logger)
	tokenSvc := services.NewTokenService(pollRepo, tally, logger)

	router := handler.NewHandler(
		handler.NewPollHandler(pollRepo, finalizeSvc),
		handler.NewVoteHandler(voteSvc),
		handler.NewTokenHandler(tokenSvc),
		ws.NewLiveHandler(pollRepo, hub, logger),
		[]byte(testJWTSecret),
	)

	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      server.Client(),
		Hub:         hub,
		Tally:       tally,
		FinalizeSvc: finalizeSvc,
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

// createTestPoll inserts a poll with two choices directly; poll CRUD is
// owned by a collaborator outside this service.
func (app *TestApp) createTestPoll(t *testing.T, mode domain.VotingMode, startsAt, endsAt time.Time) (uuid.UUID, []uuid.UUID) {
	t.Helper()

	pollID := uuid.New()
	_, err := app.DB.Exec(
		"INSERT INTO polls (public_id, title, published, starts_at, ends_at, voting_mode, status) VALUES ($1, $2, TRUE, $3, $4, $5, 'draft')",
		pollID, fmt.Sprintf("Poll %s", pollID), startsAt, endsAt, string(mode),
	)
	require.NoError(t, err)

	choiceIDs := make([]uuid.UUID, 2)
	for i, text := range []string{"Choice A", "Choice B"} {
		choiceIDs[i] = uuid.New()
		_, err := app.DB.Exec(
			"INSERT INTO choices (id, poll_id, text, sort_order) VALUES ($1, $2, $3, $4)",
			choiceIDs[i], pollID, text, i,
		)
		require.NoError(t, err)
	}

	return pollID, choiceIDs
}

func (app *TestApp) closePoll(t *testing.T, pollID uuid.UUID) {
	t.Helper()
	_, err := app.DB.Exec(
		"UPDATE polls SET starts_at = NOW() - INTERVAL '2 hours', ends_at = NOW() - INTERVAL '1 hour' WHERE public_id = $1",
		pollID,
	)
	require.NoError(t, err)
}

func signedAccessToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(15 * time.Minute).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signedToken
}
