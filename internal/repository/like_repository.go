package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLikeExists reports an insert that lost the race with an identical
// toggle: the relation row is already there.
var ErrLikeExists = errors.New("like relation already exists")

const uniqueViolation = "23505"

type LikeRepository struct {
	pool *pgxpool.Pool
}

func NewLikeRepository(pool *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{pool: pool}
}

func (r *LikeRepository) Exists(ctx context.Context, emojiID int64, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM emoji_likes WHERE emoji_id = $1 AND user_id = $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, emojiID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Insert creates the relation row. The primary key on (emoji_id, user_id)
// makes the store the arbiter under concurrency: a duplicate insert comes
// back as ErrLikeExists instead of a second row.
func (r *LikeRepository) Insert(ctx context.Context, emojiID int64, userID string) error {
	const query = `
		INSERT INTO emoji_likes (emoji_id, user_id) VALUES ($1, $2)
	`

	if _, err := r.pool.Exec(ctx, query, emojiID, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrLikeExists
		}
		return err
	}
	return nil
}

// Delete removes the relation row and reports whether one existed.
func (r *LikeRepository) Delete(ctx context.Context, emojiID int64, userID string) (bool, error) {
	const query = `
		DELETE FROM emoji_likes WHERE emoji_id = $1 AND user_id = $2
	`

	cmd, err := r.pool.Exec(ctx, query, emojiID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *LikeRepository) CountForEmoji(ctx context.Context, emojiID int64) (int, error) {
	const query = `
		SELECT COUNT(*) FROM emoji_likes WHERE emoji_id = $1
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, emojiID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
