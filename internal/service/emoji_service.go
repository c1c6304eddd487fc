package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"emojimaker/api/internal/apperr"
	"emojimaker/api/internal/ids"
	"emojimaker/api/internal/models"
	"emojimaker/api/internal/repository"
)

type emojiStore interface {
	Create(ctx context.Context, imageURL, prompt, creatorUserID string) (models.Emoji, error)
	ListWithLiked(ctx context.Context, userID string) ([]models.EmojiWithLiked, error)
	RefreshLikeCount(ctx context.Context, emojiID int64) (int, error)
}

type likeStore interface {
	Exists(ctx context.Context, emojiID int64, userID string) (bool, error)
	Insert(ctx context.Context, emojiID int64, userID string) error
	Delete(ctx context.Context, emojiID int64, userID string) (bool, error)
}

type objectStore interface {
	Put(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) (string, error)
}

// EmojiService owns the record side of the system: persisting generated
// images, listing them, and toggling likes.
type EmojiService struct {
	emojis     emojiStore
	likes      likeStore
	store      objectStore
	httpClient *http.Client
	cache      *redis.Client
	log        zerolog.Logger
}

func NewEmojiService(emojis emojiStore, likes likeStore, store objectStore, cache *redis.Client, log zerolog.Logger) *EmojiService {
	return &EmojiService{
		emojis:     emojis,
		likes:      likes,
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		log:        log,
	}
}

// PersistGeneratedImage downloads the provider's output, uploads it under a
// fresh object key, and inserts the record row. The row insert happens only
// after a successful upload, so a failed upload leaves no partial record. An
// insert failure after the upload leaves an orphaned object; there is no
// compensating delete, the key is logged so an operator can find it.
func (s *EmojiService) PersistGeneratedImage(ctx context.Context, sourceURL, userID, prompt string) (models.Emoji, error) {
	const op = "emoji.PersistGeneratedImage"

	data, err := s.download(ctx, sourceURL)
	if err != nil {
		return models.Emoji{}, apperr.Wrap(apperr.KindUpload, op, err)
	}

	objectKey := ids.New() + ".png"
	publicURL, err := s.store.Put(ctx, objectKey, "image/png", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.Emoji{}, apperr.Wrap(apperr.KindUpload, op, err)
	}

	emoji, err := s.emojis.Create(ctx, publicURL, prompt, userID)
	if err != nil {
		s.log.Error().Err(err).
			Str("object_key", objectKey).
			Str("user_id", userID).
			Msg("record insert failed after upload, object is orphaned")
		return models.Emoji{}, apperr.Wrap(apperr.KindPersistence, op, err)
	}
	return emoji, nil
}

func (s *EmojiService) ListAll(ctx context.Context, userID string) ([]models.EmojiWithLiked, error) {
	return s.emojis.ListWithLiked(ctx, userID)
}

// ToggleLike flips the user's like relation on one emoji and brings the
// denormalized counter back in line with the relation rows. The store's
// primary key on (emoji_id, user_id) is authoritative when two toggles for
// the same pair race; the optional redis lock just narrows the window.
func (s *EmojiService) ToggleLike(ctx context.Context, emojiID int64, userID string) (int, bool, error) {
	const op = "emoji.ToggleLike"

	unlock := s.lockToggle(ctx, emojiID, userID)
	defer unlock()

	exists, err := s.likes.Exists(ctx, emojiID, userID)
	if err != nil {
		return 0, false, fmt.Errorf("%s: lookup relation: %w", op, err)
	}

	isLiked := !exists
	if exists {
		if _, err := s.likes.Delete(ctx, emojiID, userID); err != nil {
			return 0, false, fmt.Errorf("%s: delete relation: %w", op, err)
		}
	} else {
		if err := s.likes.Insert(ctx, emojiID, userID); err != nil {
			// A concurrent toggle beat us to the insert. The relation
			// exists either way, which is the state we wanted.
			if !errors.Is(err, repository.ErrLikeExists) {
				return 0, false, fmt.Errorf("%s: insert relation: %w", op, err)
			}
		}
	}

	count, err := s.emojis.RefreshLikeCount(ctx, emojiID)
	if err != nil {
		return 0, false, fmt.Errorf("%s: refresh count: %w", op, err)
	}
	return count, isLiked, nil
}

func (s *EmojiService) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch source: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("source returned empty body")
	}
	return data, nil
}

// lockToggle serializes toggles for one (emoji, user) pair when a cache is
// configured. Failure to acquire is not fatal: the unique constraint still
// keeps the data correct, so we proceed rather than reject the request.
func (s *EmojiService) lockToggle(ctx context.Context, emojiID int64, userID string) func() {
	if s.cache == nil {
		return func() {}
	}

	key := fmt.Sprintf("lock:like:%d:%s", emojiID, userID)
	for i := 0; i < 3; i++ {
		ok, err := s.cache.SetNX(ctx, key, "1", 5*time.Second).Result()
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("toggle lock unavailable")
			return func() {}
		}
		if ok {
			return func() {
				if err := s.cache.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
					s.log.Warn().Err(err).Str("key", key).Msg("toggle unlock failed")
				}
			}
		}

		select {
		case <-ctx.Done():
			return func() {}
		case <-time.After(50 * time.Millisecond):
		}
	}

	s.log.Debug().Str("key", key).Msg("toggle lock contended, relying on constraint")
	return func() {}
}
