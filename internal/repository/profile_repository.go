package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"emojimaker/api/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists reports an insert that collided with a concurrent
	// first request for the same user.
	ErrProfileExists = errors.New("profile already exists")
)

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (models.Profile, error) {
	const query = `
		SELECT user_id, credits, tier, created_at
		FROM profiles WHERE user_id = $1
	`

	row := r.pool.QueryRow(ctx, query, userID)
	var profile models.Profile
	if err := row.Scan(&profile.UserID, &profile.Credits, &profile.Tier, &profile.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}

func (r *ProfileRepository) Create(ctx context.Context, userID string, credits int, tier string) (models.Profile, error) {
	const query = `
		INSERT INTO profiles (user_id, credits, tier)
		VALUES ($1, $2, $3)
		RETURNING user_id, credits, tier, created_at
	`

	row := r.pool.QueryRow(ctx, query, userID, credits, tier)
	var profile models.Profile
	if err := row.Scan(&profile.UserID, &profile.Credits, &profile.Tier, &profile.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Profile{}, ErrProfileExists
		}
		return models.Profile{}, err
	}
	return profile, nil
}
