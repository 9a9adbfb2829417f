package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatterfeed/internal/api/auth"
	"github.com/chatterfeed/internal/engagement"
)

// EngagementHandlers serves vote and repost endpoints. Counts returned here
// are recomputed from storage on every write; the redis cache is only primed
// for cheap subsequent reads.
type EngagementHandlers struct {
	service *engagement.Service
	cache   *engagement.CountCache
}

// NewEngagementHandlers creates the engagement handler set.
func NewEngagementHandlers(service *engagement.Service, cache *engagement.CountCache) *EngagementHandlers {
	return &EngagementHandlers{service: service, cache: cache}
}

// VoteRequest is the body of POST /api/v1/vote.
type VoteRequest struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	Type      string `json:"type"`
}

// RepostRequest is the body of POST /api/v1/repost.
type RepostRequest struct {
	ChatID string `json:"chatId"`
}

// Vote handles POST /api/v1/vote: toggles the caller's like on a chat.
func (h *EngagementHandlers) Vote(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req VoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.ChatID == "" || req.MessageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chatId and messageId are required")
	}
	// "up" and "down" both flip the caller's current mark: voting down an
	// upvoted chat clears the upvote, exactly as a repeated "up" would.
	if req.Type != "" && req.Type != "up" && req.Type != "down" {
		return echo.NewHTTPError(http.StatusBadRequest, "Unsupported vote type")
	}

	ctx := c.Request().Context()
	voted, count, err := h.service.ToggleVote(ctx, req.ChatID, req.MessageID, user.ID)
	if err != nil {
		if errors.Is(err, engagement.ErrChatNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to record vote")
	}

	h.cache.SetUpvotes(ctx, req.ChatID, count)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"voted":   voted,
		"upvotes": count,
	})
}

// Repost handles POST /api/v1/repost: reshares a public chat into the
// caller's activity.
func (h *EngagementHandlers) Repost(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req RepostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.ChatID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chatId is required")
	}

	ctx := c.Request().Context()
	count, err := h.service.Repost(ctx, req.ChatID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrChatNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
		case errors.Is(err, engagement.ErrChatNotPublic):
			return echo.NewHTTPError(http.StatusForbidden, "Only public chats can be reposted")
		case errors.Is(err, engagement.ErrAlreadyReposted):
			return echo.NewHTTPError(http.StatusConflict, "Already reposted")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to repost")
		}
	}

	h.cache.SetReposts(ctx, req.ChatID, count)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reposts": count,
	})
}

// GetCounts handles GET /api/v1/chats/:id/counts. Reads are cache-aside: a
// full cache hit skips storage, a miss recomputes both counts and primes the
// cache for subsequent readers.
func (h *EngagementHandlers) GetCounts(c echo.Context) error {
	chatID := c.Param("id")
	if chatID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chat id is required")
	}

	ctx := c.Request().Context()

	upvotes, upvotesOK := h.cache.GetUpvotes(ctx, chatID)
	reposts, repostsOK := h.cache.GetReposts(ctx, chatID)

	if !upvotesOK || !repostsOK {
		var err error
		upvotes, reposts, err = h.service.Counts(ctx, chatID)
		if err != nil {
			if errors.Is(err, engagement.ErrChatNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load counts")
		}
		h.cache.SetUpvotes(ctx, chatID, upvotes)
		h.cache.SetReposts(ctx, chatID, reposts)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"upvotes": upvotes,
		"reposts": reposts,
	})
}

// RemoveRepost handles DELETE /api/v1/repost/:chatId.
func (h *EngagementHandlers) RemoveRepost(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	chatID := c.Param("chatId")
	if chatID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "chatId is required")
	}

	ctx := c.Request().Context()
	count, err := h.service.RemoveRepost(ctx, chatID, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to remove repost")
	}

	h.cache.SetReposts(ctx, chatID, count)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reposts": count,
	})
}
