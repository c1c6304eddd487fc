package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"emojimaker/api/internal/apperr"
	"emojimaker/api/internal/middleware"
	"emojimaker/api/internal/models"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type emojiResponse struct {
	ID        int64     `json:"id"`
	ImageURL  string    `json:"imageUrl"`
	Prompt    string    `json:"prompt"`
	Likes     int       `json:"likes"`
	IsLiked   bool      `json:"isLiked"`
	CreatedAt time.Time `json:"createdAt"`
}

func newEmojiResponse(emoji models.Emoji, isLiked bool) emojiResponse {
	return emojiResponse{
		ID:        emoji.ID,
		ImageURL:  emoji.ImageURL,
		Prompt:    emoji.Prompt,
		Likes:     emoji.LikeCount,
		IsLiked:   isLiked,
		CreatedAt: emoji.CreatedAt,
	}
}

func (h HandlerSet) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID := middleware.UserID(c)
	emoji, err := h.generation.Generate(c.Request.Context(), req.Prompt, userID)
	if err != nil {
		h.respondError(c, err, "generate failed")
		return
	}

	c.JSON(http.StatusCreated, newEmojiResponse(emoji, false))
}

func (h HandlerSet) ListEmojis(c *gin.Context) {
	userID := middleware.UserID(c)

	emojis, err := h.emojis.ListAll(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "list emojis failed")
		return
	}

	items := make([]emojiResponse, 0, len(emojis))
	for _, emoji := range emojis {
		items = append(items, newEmojiResponse(emoji.Emoji, emoji.IsLiked))
	}

	c.JSON(http.StatusOK, gin.H{"emojis": items})
}

type toggleLikeResponse struct {
	LikeCount int  `json:"likeCount"`
	IsLiked   bool `json:"isLiked"`
}

func (h HandlerSet) ToggleLike(c *gin.Context) {
	emojiID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || emojiID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji id is required"})
		return
	}

	userID := middleware.UserID(c)
	likeCount, isLiked, err := h.emojis.ToggleLike(c.Request.Context(), emojiID, userID)
	if err != nil {
		h.respondError(c, err, "toggle like failed")
		return
	}

	c.JSON(http.StatusOK, toggleLikeResponse{LikeCount: likeCount, IsLiked: isLiked})
}

func (h HandlerSet) respondError(c *gin.Context, err error, msg string) {
	event := h.log.Error()
	if apperr.Is(err, apperr.KindValidation) {
		event = h.log.Warn()
	}
	event.Err(err).
		Str("kind", string(apperr.KindOf(err))).
		Str("request_id", c.Writer.Header().Get("X-Request-Id")).
		Msg(msg)

	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.UserMessage(err)})
}
