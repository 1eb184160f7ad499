package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*domain.Poll, error) {
	queryPoll := `
		SELECT public_id, title, published, starts_at, ends_at, voting_mode, status
		FROM polls
		WHERE public_id = $1
	`

	var poll domain.Poll
	err := r.db.QueryRowContext(ctx, queryPoll, publicID).Scan(
		&poll.PublicID, &poll.Title, &poll.Published, &poll.StartsAt, &poll.EndsAt, &poll.Mode, &poll.CachedStatus,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	choices, err := r.fetchChoices(ctx, poll.PublicID)
	if err != nil {
		return nil, err
	}
	poll.Choices = choices

	return &poll, nil
}

func (r *pollRepository) ListClosedUnfinalized(ctx context.Context) ([]*domain.Poll, error) {
	query := `
		SELECT p.public_id, p.title, p.published, p.starts_at, p.ends_at, p.voting_mode, p.status
		FROM polls p
		LEFT JOIN poll_results pr ON p.public_id = pr.poll_id
		WHERE p.published
		  AND p.ends_at <= NOW()
		  AND pr.poll_id IS NULL
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list closed polls: %w", err)
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		var poll domain.Poll
		err := rows.Scan(
			&poll.PublicID, &poll.Title, &poll.Published, &poll.StartsAt, &poll.EndsAt, &poll.Mode, &poll.CachedStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, &poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}

	return polls, nil
}

func (r *pollRepository) fetchChoices(ctx context.Context, pollID uuid.UUID) ([]domain.Choice, error) {
	query := `
		SELECT id, poll_id, text, sort_order
		FROM choices
		WHERE poll_id = $1
		ORDER BY sort_order
	`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch choices: %w", err)
	}
	defer rows.Close()

	var choices []domain.Choice
	for rows.Next() {
		var choice domain.Choice
		if err := rows.Scan(&choice.ID, &choice.PollID, &choice.Text, &choice.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		choices = append(choices, choice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating choices: %w", err)
	}

	return choices, nil
}
