package engagement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chatterfeed/pkg/models"
)

// SQLStore implements Store against Postgres.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new engagement store.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// ChatVisibility returns the current visibility of a live chat.
func (s *SQLStore) ChatVisibility(ctx context.Context, chatID string) (string, error) {
	var visibility string
	err := s.db.QueryRowContext(ctx, `
		SELECT visibility FROM chats WHERE id = $1 AND deleted = false
	`, chatID).Scan(&visibility)

	if err == sql.ErrNoRows {
		return "", ErrChatNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load chat visibility: %w", err)
	}
	return visibility, nil
}

// GetVote returns the user's vote row for a chat, or nil when none exists.
func (s *SQLStore) GetVote(ctx context.Context, chatID string, userID int64) (*models.Vote, error) {
	vote := &models.Vote{}
	err := s.db.QueryRowContext(ctx, `
		SELECT chat_id, message_id, user_id, is_upvoted, created_at, updated_at
		FROM votes
		WHERE chat_id = $1 AND user_id = $2
	`, chatID, userID).Scan(
		&vote.ChatID, &vote.MessageID, &vote.UserID, &vote.IsUpvoted,
		&vote.CreatedAt, &vote.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vote: %w", err)
	}
	return vote, nil
}

// InsertVote creates a new vote row.
func (s *SQLStore) InsertVote(ctx context.Context, vote *models.Vote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO votes (chat_id, message_id, user_id, is_upvoted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, vote.ChatID, vote.MessageID, vote.UserID, vote.IsUpvoted)

	if isUniqueViolation(err) {
		return errDuplicateVote
	}
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// UpdateVote flips the user's existing vote row.
func (s *SQLStore) UpdateVote(ctx context.Context, chatID string, userID int64, isUpvoted bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE votes SET is_upvoted = $3, updated_at = NOW()
		WHERE chat_id = $1 AND user_id = $2
	`, chatID, userID, isUpvoted)

	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	return nil
}

// CountVotes returns the number of upvotes for a chat.
func (s *SQLStore) CountVotes(ctx context.Context, chatID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM votes WHERE chat_id = $1 AND is_upvoted = true
	`, chatID).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// InsertRepost creates a repost row.
func (s *SQLStore) InsertRepost(ctx context.Context, chatID string, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reposts (chat_id, user_id, created_at)
		VALUES ($1, $2, NOW())
	`, chatID, userID)

	if isUniqueViolation(err) {
		return ErrAlreadyReposted
	}
	if err != nil {
		return fmt.Errorf("failed to insert repost: %w", err)
	}
	return nil
}

// DeleteRepost removes the user's repost of a chat.
func (s *SQLStore) DeleteRepost(ctx context.Context, chatID string, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM reposts WHERE chat_id = $1 AND user_id = $2
	`, chatID, userID)

	if err != nil {
		return false, fmt.Errorf("failed to delete repost: %w", err)
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// CountReposts returns the number of reposts for a chat.
func (s *SQLStore) CountReposts(ctx context.Context, chatID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reposts WHERE chat_id = $1
	`, chatID).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count reposts: %w", err)
	}
	return count, nil
}
