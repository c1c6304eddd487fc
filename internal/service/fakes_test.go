package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"emojimaker/api/internal/models"
	"emojimaker/api/internal/replicate"
	"emojimaker/api/internal/repository"
)

// memEmojiStore is an in-memory stand-in for EmojiRepository backed by the
// same relation rows as memLikeStore, so counter recomputation behaves like
// the real store.
type memEmojiStore struct {
	mu     sync.Mutex
	nextID int64
	emojis map[int64]models.Emoji
	likes  *memLikeStore

	createErr error
}

func newMemStores() (*memEmojiStore, *memLikeStore) {
	likes := &memLikeStore{rows: make(map[string]struct{})}
	emojis := &memEmojiStore{
		nextID: 1,
		emojis: make(map[int64]models.Emoji),
		likes:  likes,
	}
	return emojis, likes
}

func (s *memEmojiStore) Create(ctx context.Context, imageURL, prompt, creatorUserID string) (models.Emoji, error) {
	if s.createErr != nil {
		return models.Emoji{}, s.createErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	emoji := models.Emoji{
		ID:            s.nextID,
		ImageURL:      imageURL,
		Prompt:        prompt,
		CreatorUserID: creatorUserID,
		CreatedAt:     time.Now().UTC(),
	}
	s.emojis[emoji.ID] = emoji
	s.nextID++
	return emoji, nil
}

func (s *memEmojiStore) ListWithLiked(ctx context.Context, userID string) ([]models.EmojiWithLiked, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.EmojiWithLiked
	for id := s.nextID - 1; id >= 1; id-- {
		emoji, ok := s.emojis[id]
		if !ok {
			continue
		}
		liked, _ := s.likes.Exists(ctx, id, userID)
		out = append(out, models.EmojiWithLiked{Emoji: emoji, IsLiked: liked})
	}
	return out, nil
}

func (s *memEmojiStore) RefreshLikeCount(ctx context.Context, emojiID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emoji, ok := s.emojis[emojiID]
	if !ok {
		return 0, repository.ErrEmojiNotFound
	}
	count, _ := s.likes.CountForEmoji(ctx, emojiID)
	emoji.LikeCount = count
	s.emojis[emojiID] = emoji
	return count, nil
}

type memLikeStore struct {
	mu   sync.Mutex
	rows map[string]struct{}

	existsErr error
	insertErr error
}

func likeKey(emojiID int64, userID string) string {
	return fmt.Sprintf("%d/%s", emojiID, userID)
}

func (s *memLikeStore) Exists(ctx context.Context, emojiID int64, userID string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[likeKey(emojiID, userID)]
	return ok, nil
}

func (s *memLikeStore) Insert(ctx context.Context, emojiID int64, userID string) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey(emojiID, userID)
	if _, ok := s.rows[key]; ok {
		return repository.ErrLikeExists
	}
	s.rows[key] = struct{}{}
	return nil
}

func (s *memLikeStore) Delete(ctx context.Context, emojiID int64, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey(emojiID, userID)
	if _, ok := s.rows[key]; !ok {
		return false, nil
	}
	delete(s.rows, key)
	return true, nil
}

func (s *memLikeStore) CountForEmoji(ctx context.Context, emojiID int64) (int, error) {
	count := 0
	prefix := fmt.Sprintf("%d/", emojiID)
	for key := range s.rows {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			count++
		}
	}
	return count, nil
}

type fakeObjectStore struct {
	putErr  error
	puts    int
	lastKey string
}

func (s *fakeObjectStore) Put(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	s.puts++
	s.lastKey = objectKey
	return "https://store.example.com/emojis/" + objectKey, nil
}

type fakeGenerator struct {
	submitErr   error
	awaitErr    error
	prediction  replicate.Prediction
	submitCalls int
	awaitCalls  int
	lastPrompt  string
}

func (g *fakeGenerator) Submit(ctx context.Context, prompt string) (string, error) {
	g.submitCalls++
	g.lastPrompt = prompt
	if g.submitErr != nil {
		return "", g.submitErr
	}
	return "j1", nil
}

func (g *fakeGenerator) Await(ctx context.Context, id string) (replicate.Prediction, error) {
	g.awaitCalls++
	if g.awaitErr != nil {
		return replicate.Prediction{}, g.awaitErr
	}
	return g.prediction, nil
}

type fakePersister struct {
	err   error
	calls int
	last  struct {
		sourceURL string
		userID    string
		prompt    string
	}
}

func (p *fakePersister) PersistGeneratedImage(ctx context.Context, sourceURL, userID, prompt string) (models.Emoji, error) {
	p.calls++
	p.last.sourceURL = sourceURL
	p.last.userID = userID
	p.last.prompt = prompt
	if p.err != nil {
		return models.Emoji{}, p.err
	}
	return models.Emoji{
		ID:            1,
		ImageURL:      "https://store.example.com/emojis/k1.png",
		Prompt:        prompt,
		CreatorUserID: userID,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

type memProfileStore struct {
	mu       sync.Mutex
	profiles map[string]models.Profile

	getErr    error
	createErr error
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{profiles: make(map[string]models.Profile)}
}

func (s *memProfileStore) GetByUserID(ctx context.Context, userID string) (models.Profile, error) {
	if s.getErr != nil {
		return models.Profile{}, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return models.Profile{}, repository.ErrProfileNotFound
	}
	return profile, nil
}

func (s *memProfileStore) Create(ctx context.Context, userID string, credits int, tier string) (models.Profile, error) {
	if s.createErr != nil {
		return models.Profile{}, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[userID]; ok {
		return models.Profile{}, repository.ErrProfileExists
	}
	profile := models.Profile{
		UserID:    userID,
		Credits:   credits,
		Tier:      tier,
		CreatedAt: time.Now().UTC(),
	}
	s.profiles[userID] = profile
	return profile, nil
}
