package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

type pollResultRepository struct {
	db *sql.DB
}

func NewPollResultRepository(db *sql.DB) ports.PollResultRepository {
	return &pollResultRepository{
		db: db,
	}
}

// Create inserts the result row exactly once. The primary key on
// poll_id plus ON CONFLICT DO NOTHING makes concurrent finalize
// attempts race safely: the first insert wins, later ones see zero
// rows affected and report ErrAlreadyFinalized.
func (r *pollResultRepository) Create(ctx context.Context, result *domain.PollResult) error {
	counts, err := json.Marshal(result.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	query := `
		INSERT INTO poll_results (poll_id, results, total_votes, finalized_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (poll_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, result.PollID, counts, result.TotalVotes, result.FinalizedAt)
	if err != nil {
		return fmt.Errorf("failed to insert poll result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert outcome: %w", err)
	}
	if affected == 0 {
		return domain.ErrAlreadyFinalized
	}

	return nil
}

func (r *pollResultRepository) GetByPollID(ctx context.Context, pollID uuid.UUID) (*domain.PollResult, error) {
	query := `
		SELECT poll_id, results, total_votes, finalized_at
		FROM poll_results
		WHERE poll_id = $1
	`

	var (
		result domain.PollResult
		counts []byte
	)
	err := r.db.QueryRowContext(ctx, query, pollID).Scan(
		&result.PollID, &counts, &result.TotalVotes, &result.FinalizedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get poll result: %w", err)
	}

	if err := json.Unmarshal(counts, &result.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}

	return &result, nil
}
