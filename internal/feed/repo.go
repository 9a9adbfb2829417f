package feed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/chatterfeed/pkg/models"
)

// Repo implements Store against Postgres.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a new feed repository.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// ListOriginals retrieves up to limit original chats for the scope, newest
// first, strictly before the cursor when present.
func (r *Repo) ListOriginals(ctx context.Context, scope Scope, before *time.Time, limit int) ([]Entry, error) {
	query := `
		SELECT id, created_at, title, user_id, hashtags
		FROM chats
		WHERE deleted = false
	`
	var args []interface{}
	argCount := 0

	if scope.UserID != 0 {
		argCount++
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, scope.UserID)
	}

	// Private chats only ever surface in the owner's own activity view.
	if scope.UserID == 0 || !scope.IncludePrivate {
		query += " AND visibility = '" + models.VisibilityPublic + "'"
	}

	if before != nil {
		argCount++
		query += fmt.Sprintf(" AND created_at < $%d", argCount)
		args = append(args, *before)
	}

	argCount++
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argCount)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		var hashtags pq.StringArray
		if err := rows.Scan(&entry.ChatID, &entry.Timestamp, &entry.Title, &entry.AuthorID, &hashtags); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		entry.Hashtags = []string(hashtags)
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}

	return entries, nil
}

// ListReposts retrieves up to limit reposts whose target chat matches the
// scope, newest repost first. The repost's own created_at drives both the
// ordering and the cursor bound, not the chat's. Target visibility is
// rechecked here because a chat can go private after being reposted.
func (r *Repo) ListReposts(ctx context.Context, scope Scope, before *time.Time, limit int) ([]Entry, error) {
	query := `
		SELECT r.chat_id, r.created_at, r.user_id, c.title, c.user_id, c.hashtags
		FROM reposts r
		JOIN chats c ON c.id = r.chat_id
		WHERE c.deleted = false
	`
	var args []interface{}
	argCount := 0

	if scope.UserID != 0 {
		argCount++
		query += fmt.Sprintf(" AND r.user_id = $%d", argCount)
		args = append(args, scope.UserID)
	}

	if scope.UserID != 0 && scope.IncludePrivate {
		argCount++
		query += fmt.Sprintf(" AND (c.visibility = '%s' OR c.user_id = $%d)", models.VisibilityPublic, argCount)
		args = append(args, scope.UserID)
	} else {
		query += " AND c.visibility = '" + models.VisibilityPublic + "'"
	}

	if before != nil {
		argCount++
		query += fmt.Sprintf(" AND r.created_at < $%d", argCount)
		args = append(args, *before)
	}

	argCount++
	query += fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d", argCount)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reposts: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		var hashtags pq.StringArray
		if err := rows.Scan(&entry.ChatID, &entry.Timestamp, &entry.ReposterID, &entry.Title, &entry.AuthorID, &hashtags); err != nil {
			return nil, fmt.Errorf("failed to scan repost: %w", err)
		}
		entry.Hashtags = []string(hashtags)
		entry.IsRepost = true
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reposts: %w", err)
	}

	return entries, nil
}

// FirstUserMessages batch-loads the earliest user message per chat.
func (r *Repo) FirstUserMessages(ctx context.Context, chatIDs []string) (map[string]*models.Message, error) {
	if len(chatIDs) == 0 {
		return map[string]*models.Message{}, nil
	}

	query := `
		SELECT DISTINCT ON (chat_id) id, chat_id, role, parts, attachments, created_at
		FROM messages
		WHERE chat_id = ANY($1) AND role = $2
		ORDER BY chat_id, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(chatIDs), models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to query first messages: %w", err)
	}
	defer rows.Close()

	messages := make(map[string]*models.Message, len(chatIDs))
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
		messages[msg.ChatID] = msg
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating first messages: %w", err)
	}

	return messages, nil
}

// UserMessageCounts batch-counts user-role messages per chat.
func (r *Repo) UserMessageCounts(ctx context.Context, chatIDs []string) (map[string]int, error) {
	query := `
		SELECT chat_id, COUNT(*)
		FROM messages
		WHERE chat_id = ANY($1) AND role = $2
		GROUP BY chat_id
	`
	return r.countByChat(ctx, query, chatIDs, models.RoleUser)
}

// VoteCounts batch-counts upvotes per chat.
func (r *Repo) VoteCounts(ctx context.Context, chatIDs []string) (map[string]int, error) {
	query := `
		SELECT chat_id, COUNT(*)
		FROM votes
		WHERE chat_id = ANY($1) AND is_upvoted = true
		GROUP BY chat_id
	`
	return r.countByChat(ctx, query, chatIDs)
}

// RepostCounts batch-counts reposts per chat.
func (r *Repo) RepostCounts(ctx context.Context, chatIDs []string) (map[string]int, error) {
	query := `
		SELECT chat_id, COUNT(*)
		FROM reposts
		WHERE chat_id = ANY($1)
		GROUP BY chat_id
	`
	return r.countByChat(ctx, query, chatIDs)
}

func (r *Repo) countByChat(ctx context.Context, query string, chatIDs []string, extraArgs ...interface{}) (map[string]int, error) {
	counts := make(map[string]int, len(chatIDs))
	if len(chatIDs) == 0 {
		return counts, nil
	}

	args := append([]interface{}{pq.Array(chatIDs)}, extraArgs...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chatID string
		var count int
		if err := rows.Scan(&chatID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[chatID] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counts: %w", err)
	}

	return counts, nil
}

// Authors batch-loads users by id. Deleted identities are simply absent.
func (r *Repo) Authors(ctx context.Context, userIDs []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	query := `
		SELECT id, email, nickname
		FROM users
		WHERE id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query authors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.Nickname); err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		users[user.ID] = user
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating authors: %w", err)
	}

	return users, nil
}

// UserBySlug resolves a profile slug to a user: nickname match first, then
// numeric id. Returns nil when nothing matches.
func (r *Repo) UserBySlug(ctx context.Context, slug string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, nickname
		FROM users
		WHERE nickname = $1
	`, slug).Scan(&user.ID, &user.Email, &user.Nickname)

	if err == nil {
		return user, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query user by nickname: %w", err)
	}

	id, parseErr := strconv.ParseInt(slug, 10, 64)
	if parseErr != nil {
		return nil, nil
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT id, email, nickname
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.Nickname)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by id: %w", err)
	}

	return user, nil
}
