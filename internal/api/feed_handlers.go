package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/chatterfeed/internal/api/auth"
	"github.com/chatterfeed/internal/feed"
)

// FeedHandlers serves the public feed, profile feeds, and the caller's own
// activity stream.
type FeedHandlers struct {
	aggregator *feed.Aggregator
	repo       *feed.Repo
}

// NewFeedHandlers creates the feed handler set.
func NewFeedHandlers(aggregator *feed.Aggregator, repo *feed.Repo) *FeedHandlers {
	return &FeedHandlers{aggregator: aggregator, repo: repo}
}

// parseFilters reads the shared feed query parameters. Unparsable values fall
// back to defaults rather than erroring; a bad cursor just restarts the feed.
func parseFilters(c echo.Context) feed.Filters {
	filters := feed.Filters{
		Cursor: feed.ParseCursor(c.QueryParam("before")),
		Sort:   c.QueryParam("sort"),
		Tag:    c.QueryParam("tag"),
		Query:  c.QueryParam("q"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filters.PageSize = limit
		}
	}
	return filters
}

// GetFeed handles GET /api/v1/feed: all public activity.
func (h *FeedHandlers) GetFeed(c echo.Context) error {
	page, err := h.aggregator.GetPage(c.Request().Context(), feed.Scope{}, parseFilters(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load feed")
	}
	return c.JSON(http.StatusOK, page)
}

// GetUserFeed handles GET /api/v1/u/:slug: one author's public activity. The
// slug is a nickname or a numeric user id.
func (h *FeedHandlers) GetUserFeed(c echo.Context) error {
	slug := c.Param("slug")

	user, err := h.repo.UserBySlug(c.Request().Context(), slug)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve user")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	scope := feed.Scope{UserID: user.ID}
	page, err := h.aggregator.GetPage(c.Request().Context(), scope, parseFilters(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load feed")
	}
	return c.JSON(http.StatusOK, page)
}

// GetActivity handles GET /api/v1/activity: the caller's own chats including
// private ones, plus their reposts.
func (h *FeedHandlers) GetActivity(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	scope := feed.Scope{UserID: user.ID, IncludePrivate: true}
	page, err := h.aggregator.GetPage(c.Request().Context(), scope, parseFilters(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load activity")
	}
	return c.JSON(http.StatusOK, page)
}
