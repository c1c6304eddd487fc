package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emojimaker/api/internal/models"
)

var ErrEmojiNotFound = errors.New("emoji not found")

type EmojiRepository struct {
	pool *pgxpool.Pool
}

func NewEmojiRepository(pool *pgxpool.Pool) *EmojiRepository {
	return &EmojiRepository{pool: pool}
}

func (r *EmojiRepository) Create(ctx context.Context, imageURL, prompt, creatorUserID string) (models.Emoji, error) {
	const query = `
		INSERT INTO emojis (image_url, prompt, creator_user_id)
		VALUES ($1, $2, $3)
		RETURNING id, like_count, created_at
	`

	emoji := models.Emoji{
		ImageURL:      imageURL,
		Prompt:        prompt,
		CreatorUserID: creatorUserID,
	}
	row := r.pool.QueryRow(ctx, query, imageURL, prompt, creatorUserID)
	if err := row.Scan(&emoji.ID, &emoji.LikeCount, &emoji.CreatedAt); err != nil {
		return models.Emoji{}, err
	}
	return emoji, nil
}

func (r *EmojiRepository) GetByID(ctx context.Context, id int64) (models.Emoji, error) {
	const query = `
		SELECT id, image_url, prompt, creator_user_id, like_count, created_at
		FROM emojis WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var emoji models.Emoji
	if err := row.Scan(
		&emoji.ID,
		&emoji.ImageURL,
		&emoji.Prompt,
		&emoji.CreatorUserID,
		&emoji.LikeCount,
		&emoji.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Emoji{}, ErrEmojiNotFound
		}
		return models.Emoji{}, err
	}
	return emoji, nil
}

// ListWithLiked returns every record newest-first, each annotated with
// whether userID has a like relation to it.
func (r *EmojiRepository) ListWithLiked(ctx context.Context, userID string) ([]models.EmojiWithLiked, error) {
	const query = `
		SELECT e.id, e.image_url, e.prompt, e.creator_user_id, e.like_count, e.created_at,
		       l.user_id IS NOT NULL AS is_liked
		FROM emojis e
		LEFT JOIN emoji_likes l ON l.emoji_id = e.id AND l.user_id = $1
		ORDER BY e.created_at DESC, e.id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emojis []models.EmojiWithLiked
	for rows.Next() {
		var emoji models.EmojiWithLiked
		if err := rows.Scan(
			&emoji.ID,
			&emoji.ImageURL,
			&emoji.Prompt,
			&emoji.CreatorUserID,
			&emoji.LikeCount,
			&emoji.CreatedAt,
			&emoji.IsLiked,
		); err != nil {
			return nil, err
		}
		emojis = append(emojis, emoji)
	}
	return emojis, rows.Err()
}

// RefreshLikeCount recomputes like_count from the relation rows and writes
// it back, returning the new value. Counting from the source of truth keeps
// the denormalized counter convergent regardless of interleaving.
func (r *EmojiRepository) RefreshLikeCount(ctx context.Context, emojiID int64) (int, error) {
	const query = `
		UPDATE emojis
		SET like_count = (SELECT COUNT(*) FROM emoji_likes WHERE emoji_id = $1)
		WHERE id = $1
		RETURNING like_count
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, emojiID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrEmojiNotFound
		}
		return 0, err
	}
	return count, nil
}

// ReconcileLikeCounts repairs any counter that drifted from its relation
// rows and reports how many rows were fixed.
func (r *EmojiRepository) ReconcileLikeCounts(ctx context.Context) (int64, error) {
	const query = `
		UPDATE emojis e
		SET like_count = c.actual
		FROM (
			SELECT e2.id, COUNT(l.user_id) AS actual
			FROM emojis e2
			LEFT JOIN emoji_likes l ON l.emoji_id = e2.id
			GROUP BY e2.id
		) c
		WHERE c.id = e.id AND e.like_count != c.actual
	`

	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
