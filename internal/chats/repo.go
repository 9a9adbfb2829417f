package chats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/chatterfeed/pkg/models"
)

// Repo handles chat and message persistence. Chats start private and are
// soft-deleted; messages are append-only.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a new chats repository.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// CreateChat creates a new private chat for a user.
func (r *Repo) CreateChat(ctx context.Context, userID int64, title string) (*models.Chat, error) {
	chat := &models.Chat{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Visibility: models.VisibilityPrivate,
		Hashtags:   make([]string, 0),
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO chats (id, user_id, title, visibility, hashtags, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, NOW(), NOW())
		RETURNING created_at, updated_at
	`, chat.ID, chat.UserID, chat.Title, chat.Visibility, pq.Array(chat.Hashtags)).
		Scan(&chat.CreatedAt, &chat.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// GetChat returns a live chat by id, or nil when it does not exist.
func (r *Repo) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	chat := &models.Chat{}
	var hashtags pq.StringArray
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, visibility, hashtags, deleted, created_at, updated_at
		FROM chats
		WHERE id = $1 AND deleted = false
	`, chatID).Scan(
		&chat.ID, &chat.UserID, &chat.Title, &chat.Visibility, &hashtags,
		&chat.Deleted, &chat.CreatedAt, &chat.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	chat.Hashtags = []string(hashtags)
	return chat, nil
}

// AddMessage appends a message to a chat.
func (r *Repo) AddMessage(ctx context.Context, chatID, role string, parts []models.Part, attachments []models.Attachment) (*models.Message, error) {
	if parts == nil {
		parts = make([]models.Part, 0)
	}
	if attachments == nil {
		attachments = make([]models.Attachment, 0)
	}

	partsJSON, err := json.Marshal(parts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message parts: %w", err)
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message attachments: %w", err)
	}

	msg := &models.Message{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		Role:        role,
		Parts:       parts,
		Attachments: attachments,
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, chat_id, role, parts, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`, msg.ID, msg.ChatID, msg.Role, partsJSON, attachmentsJSON).Scan(&msg.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to add message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a chat's messages oldest first.
func (r *Repo) ListMessages(ctx context.Context, chatID string) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, role, parts, attachments, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	// Initialize as empty slice so JSON encodes to [] rather than null
	messages := make([]*models.Message, 0)
	for rows.Next() {
		msg := &models.Message{}
		var partsJSON, attachmentsJSON []byte
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &partsJSON, &attachmentsJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if len(partsJSON) > 0 {
			if err := json.Unmarshal(partsJSON, &msg.Parts); err != nil {
				return nil, fmt.Errorf("failed to decode message parts: %w", err)
			}
		}
		if len(attachmentsJSON) > 0 {
			if err := json.Unmarshal(attachmentsJSON, &msg.Attachments); err != nil {
				return nil, fmt.Errorf("failed to decode message attachments: %w", err)
			}
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// FirstUserMessage returns the earliest user-role message of a chat, or nil
// when the chat has none.
func (r *Repo) FirstUserMessage(ctx context.Context, chatID string) (*models.Message, error) {
	msg := &models.Message{}
	var partsJSON, attachmentsJSON []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, chat_id, role, parts, attachments, created_at
		FROM messages
		WHERE chat_id = $1 AND role = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, chatID, models.RoleUser).Scan(&msg.ID, &msg.ChatID, &msg.Role, &partsJSON, &attachmentsJSON, &msg.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get first message: %w", err)
	}

	if len(partsJSON) > 0 {
		if err := json.Unmarshal(partsJSON, &msg.Parts); err != nil {
			return nil, fmt.Errorf("failed to decode message parts: %w", err)
		}
	}
	if len(attachmentsJSON) > 0 {
		if err := json.Unmarshal(attachmentsJSON, &msg.Attachments); err != nil {
			return nil, fmt.Errorf("failed to decode message attachments: %w", err)
		}
	}
	return msg, nil
}

// SetVisibility updates a chat's visibility.
func (r *Repo) SetVisibility(ctx context.Context, chatID, visibility string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE chats SET visibility = $2, updated_at = NOW()
		WHERE id = $1 AND deleted = false
	`, chatID, visibility)

	if err != nil {
		return fmt.Errorf("failed to set chat visibility: %w", err)
	}
	return nil
}

// UpdateHashtags replaces a chat's hashtags.
func (r *Repo) UpdateHashtags(ctx context.Context, chatID string, hashtags []string) error {
	if hashtags == nil {
		hashtags = make([]string, 0)
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE chats SET hashtags = $2, updated_at = NOW()
		WHERE id = $1 AND deleted = false
	`, chatID, pq.Array(hashtags))

	if err != nil {
		return fmt.Errorf("failed to update chat hashtags: %w", err)
	}
	return nil
}

// SoftDelete marks a chat deleted. The row is kept; the feed and lookups
// treat it as gone.
func (r *Repo) SoftDelete(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE chats SET deleted = true, updated_at = NOW()
		WHERE id = $1
	`, chatID)

	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}
