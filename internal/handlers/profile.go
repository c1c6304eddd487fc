package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"emojimaker/api/internal/middleware"
)

type profileResponse struct {
	UserID    string    `json:"userId"`
	Credits   int       `json:"credits"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h HandlerSet) Profile(c *gin.Context) {
	userID := middleware.UserID(c)

	profile, err := h.profiles.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "get or create profile failed")
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		UserID:    profile.UserID,
		Credits:   profile.Credits,
		Tier:      profile.Tier,
		CreatedAt: profile.CreatedAt,
	})
}
