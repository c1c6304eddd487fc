package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"emojimaker/api/internal/config"
	"emojimaker/api/internal/middleware"
	"emojimaker/api/internal/models"
	"emojimaker/api/internal/replicate"
	"emojimaker/api/internal/repository"
	"emojimaker/api/internal/service"
	"emojimaker/api/internal/storage"
)

type generationService interface {
	Generate(ctx context.Context, prompt, userID string) (models.Emoji, error)
}

type emojiService interface {
	ListAll(ctx context.Context, userID string) ([]models.EmojiWithLiked, error)
	ToggleLike(ctx context.Context, emojiID int64, userID string) (int, bool, error)
}

type profileService interface {
	GetOrCreate(ctx context.Context, userID string) (models.Profile, error)
}

type predictionReader interface {
	Get(ctx context.Context, id string) (replicate.Prediction, error)
}

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	generation  generationService
	emojis      emojiService
	profiles    profileService
	predictions predictionReader
	db          *pgxpool.Pool
	cache       *redis.Client
	store       *storage.ObjectStore
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, generator *replicate.Client, cfg *config.AppConfig) HandlerSet {
	emojiRepo := repository.NewEmojiRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	emojiSvc := service.NewEmojiService(emojiRepo, likeRepo, store, cache, log)
	generationSvc := service.NewGenerationService(generator, emojiSvc, log)
	profileSvc := service.NewProfileService(profileRepo, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		generation:  generationSvc,
		emojis:      emojiSvc,
		profiles:    profileSvc,
		predictions: generator,
		db:          db,
		cache:       cache,
		store:       store,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.Auth(h.cfg.Auth))
	{
		v1.POST("/emojis", h.Generate)
		v1.GET("/emojis", h.ListEmojis)
		v1.POST("/emojis/:id/like", h.ToggleLike)
		v1.GET("/predictions/:id", h.CheckPrediction)
		v1.GET("/profile", h.Profile)
	}
}
