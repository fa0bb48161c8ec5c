package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"study-match/internal/service"
)

// FeedHandler holds dependencies for the feed endpoint.
type FeedHandler struct {
	logger *zap.Logger
	feed   *service.FeedService
}

func NewFeedHandler(logger *zap.Logger, feed *service.FeedService) *FeedHandler {
	return &FeedHandler{logger: logger, feed: feed}
}

// GetFeed handles GET /feed?offset=N&page_size=M.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		offset = parsed
	}

	pageSize := 0
	if raw := c.Query("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
			return
		}
		pageSize = parsed
	}

	items, profileComplete, err := h.feed.GetFeedPage(c.Request.Context(), claims.UserID, offset, pageSize)
	if err != nil {
		h.logger.Error("feed assembly failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load feed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":            items,
		"offset":           offset,
		"next_offset":      offset + len(items),
		"profile_complete": profileComplete,
	})
}
