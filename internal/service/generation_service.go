package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"emojimaker/api/internal/apperr"
	"emojimaker/api/internal/models"
	"emojimaker/api/internal/replicate"
)

type generator interface {
	Submit(ctx context.Context, prompt string) (string, error)
	Await(ctx context.Context, id string) (replicate.Prediction, error)
}

type persister interface {
	PersistGeneratedImage(ctx context.Context, sourceURL, userID, prompt string) (models.Emoji, error)
}

// GenerationService runs the full pipeline for one request: submit the
// prompt, wait for the provider, persist the output. The caller gets a
// finished record or a classified error, never partial progress.
type GenerationService struct {
	generator generator
	persister persister
	log       zerolog.Logger
}

func NewGenerationService(generator generator, persister persister, log zerolog.Logger) *GenerationService {
	return &GenerationService{
		generator: generator,
		persister: persister,
		log:       log,
	}
}

func (s *GenerationService) Generate(ctx context.Context, prompt, userID string) (models.Emoji, error) {
	const op = "generation.Generate"

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return models.Emoji{}, apperr.New(apperr.KindValidation, op, "prompt is required")
	}
	if userID == "" {
		return models.Emoji{}, apperr.New(apperr.KindValidation, op, "user id is required")
	}

	jobID, err := s.generator.Submit(ctx, prompt)
	if err != nil {
		return models.Emoji{}, err
	}
	s.log.Debug().Str("job_id", jobID).Str("user_id", userID).Msg("prediction submitted")

	prediction, err := s.generator.Await(ctx, jobID)
	if err != nil {
		return models.Emoji{}, err
	}

	switch {
	case prediction.Status != replicate.StatusSucceeded:
		s.log.Warn().
			Str("job_id", jobID).
			Str("status", string(prediction.Status)).
			Str("provider_error", prediction.Error).
			Msg("prediction did not succeed")
		return models.Emoji{}, apperr.New(apperr.KindGeneration, op, "generation failed")
	case len(prediction.Output) == 0:
		return models.Emoji{}, apperr.New(apperr.KindGeneration, op, "no output produced")
	}

	emoji, err := s.persister.PersistGeneratedImage(ctx, prediction.Output[0], userID, prompt)
	if err != nil {
		return models.Emoji{}, err
	}

	s.log.Info().
		Str("job_id", jobID).
		Int64("emoji_id", emoji.ID).
		Str("user_id", userID).
		Msg("emoji generated")
	return emoji, nil
}
