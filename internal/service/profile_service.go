package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"emojimaker/api/internal/models"
	"emojimaker/api/internal/repository"
)

type profileStore interface {
	GetByUserID(ctx context.Context, userID string) (models.Profile, error)
	Create(ctx context.Context, userID string, credits int, tier string) (models.Profile, error)
}

// ProfileService provisions a per-user credit record on first contact.
type ProfileService struct {
	profiles profileStore
	log      zerolog.Logger
}

func NewProfileService(profiles profileStore, log zerolog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, log: log}
}

// GetOrCreate returns the user's profile, inserting the defaults when none
// exists yet. Two first requests racing on the same user are fine: the loser
// of the insert re-reads the winner's row.
func (s *ProfileService) GetOrCreate(ctx context.Context, userID string) (models.Profile, error) {
	const op = "profile.GetOrCreate"

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return models.Profile{}, fmt.Errorf("%s: fetch: %w", op, err)
	}

	profile, err = s.profiles.Create(ctx, userID, models.DefaultCredits, models.DefaultTier)
	if err == nil {
		s.log.Info().Str("user_id", userID).Msg("profile created")
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileExists) {
		return models.Profile{}, fmt.Errorf("%s: create: %w", op, err)
	}

	profile, err = s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("%s: refetch after race: %w", op, err)
	}
	return profile, nil
}
