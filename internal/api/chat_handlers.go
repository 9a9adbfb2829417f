package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/chatterfeed/internal/api/auth"
	"github.com/chatterfeed/internal/chats"
	"github.com/chatterfeed/pkg/models"
)

// HashtagEnqueuer queues background hashtag generation for a chat.
type HashtagEnqueuer interface {
	QueueHashtagJob(ctx context.Context, chatID string) error
}

// ChatHandlers serves chat and message CRUD plus the visibility toggle.
type ChatHandlers struct {
	repo  *chats.Repo
	queue HashtagEnqueuer
}

// NewChatHandlers creates the chat handler set. queue may be nil when the job
// queue is disabled; published chats then simply stay untagged.
func NewChatHandlers(repo *chats.Repo, queue HashtagEnqueuer) *ChatHandlers {
	return &ChatHandlers{repo: repo, queue: queue}
}

// CreateChatRequest is the body of POST /api/v1/chats.
type CreateChatRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// AddMessageRequest is the body of POST /api/v1/chats/:id/messages.
type AddMessageRequest struct {
	Role        string              `json:"role"`
	Parts       []models.Part       `json:"parts"`
	Attachments []models.Attachment `json:"attachments"`
}

// SetVisibilityRequest is the body of POST /api/v1/chats/:id/visibility.
type SetVisibilityRequest struct {
	Visibility string `json:"visibility"`
}

// ChatResponse is a chat plus its messages.
type ChatResponse struct {
	Chat     *models.Chat      `json:"chat"`
	Messages []*models.Message `json:"messages"`
}

// CreateChat handles POST /api/v1/chats: a new private chat with its opening
// user message.
func (h *ChatHandlers) CreateChat(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req CreateChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	ctx := c.Request().Context()
	chat, err := h.repo.CreateChat(ctx, user.ID, req.Title)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create chat")
	}

	messages := make([]*models.Message, 0)
	if req.Message != "" {
		msg, err := h.repo.AddMessage(ctx, chat.ID, models.RoleUser, []models.Part{{Type: "text", Text: req.Message}}, nil)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Chat created but failed to add message")
		}
		messages = append(messages, msg)
	}

	return c.JSON(http.StatusCreated, ChatResponse{Chat: chat, Messages: messages})
}

// GetChat handles GET /api/v1/chats/:id. Public chats are visible to anyone;
// private ones only to their owner.
func (h *ChatHandlers) GetChat(c echo.Context) error {
	ctx := c.Request().Context()

	chat, err := h.repo.GetChat(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load chat")
	}
	if chat == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
	}

	if chat.Visibility != models.VisibilityPublic {
		user := auth.GetUser(c)
		if user == nil || user.ID != chat.UserID {
			// Do not reveal that a private chat exists
			return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
		}
	}

	messages, err := h.repo.ListMessages(ctx, chat.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load messages")
	}

	return c.JSON(http.StatusOK, ChatResponse{Chat: chat, Messages: messages})
}

// AddMessage handles POST /api/v1/chats/:id/messages (owner only).
func (h *ChatHandlers) AddMessage(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req AddMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAssistant {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be user or assistant")
	}
	if len(req.Parts) == 0 && len(req.Attachments) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "message content is required")
	}

	ctx := c.Request().Context()
	chat, err := h.repo.GetChat(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load chat")
	}
	if chat == nil || chat.UserID != user.ID {
		return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
	}

	msg, err := h.repo.AddMessage(ctx, chat.ID, req.Role, req.Parts, req.Attachments)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to add message")
	}

	return c.JSON(http.StatusCreated, msg)
}

// SetVisibility handles POST /api/v1/chats/:id/visibility (owner only).
// Publishing a chat queues hashtag generation; the toggle itself never waits
// on the LLM.
func (h *ChatHandlers) SetVisibility(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req SetVisibilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Visibility != models.VisibilityPublic && req.Visibility != models.VisibilityPrivate {
		return echo.NewHTTPError(http.StatusBadRequest, "visibility must be public or private")
	}

	ctx := c.Request().Context()
	chat, err := h.repo.GetChat(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load chat")
	}
	if chat == nil || chat.UserID != user.ID {
		return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
	}

	if err := h.repo.SetVisibility(ctx, chat.ID, req.Visibility); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update visibility")
	}
	chat.Visibility = req.Visibility

	if req.Visibility == models.VisibilityPublic && h.queue != nil {
		if err := h.queue.QueueHashtagJob(ctx, chat.ID); err != nil {
			log.Warn().Err(err).Str("chat_id", chat.ID).Msg("failed to queue hashtag generation")
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"chat": chat,
	})
}

// DeleteChat handles DELETE /api/v1/chats/:id (owner only, soft delete).
func (h *ChatHandlers) DeleteChat(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	ctx := c.Request().Context()
	chat, err := h.repo.GetChat(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load chat")
	}
	if chat == nil || chat.UserID != user.ID {
		return echo.NewHTTPError(http.StatusNotFound, "Chat not found")
	}

	if err := h.repo.SoftDelete(ctx, chat.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete chat")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Chat deleted",
	})
}
