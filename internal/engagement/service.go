package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/chatterfeed/pkg/models"
)

// Store is the storage surface for engagement actions.
type Store interface {
	// ChatVisibility returns the current visibility of a live chat, or
	// ErrChatNotFound for unknown or deleted chats.
	ChatVisibility(ctx context.Context, chatID string) (string, error)

	// GetVote returns the user's vote row for a chat, or nil when none exists.
	GetVote(ctx context.Context, chatID string, userID int64) (*models.Vote, error)

	// InsertVote creates a new vote row. Returns errDuplicateVote when a
	// concurrent insert won the unique (chat_id, user_id) constraint.
	InsertVote(ctx context.Context, vote *models.Vote) error

	// UpdateVote flips the user's existing vote row to isUpvoted.
	UpdateVote(ctx context.Context, chatID string, userID int64, isUpvoted bool) error

	// CountVotes returns the number of upvotes for a chat.
	CountVotes(ctx context.Context, chatID string) (int, error)

	// InsertRepost creates a repost row. Returns ErrAlreadyReposted when the
	// unique (chat_id, user_id) constraint is violated.
	InsertRepost(ctx context.Context, chatID string, userID int64) error

	// DeleteRepost removes the user's repost. Reports whether a row existed.
	DeleteRepost(ctx context.Context, chatID string, userID int64) (bool, error)

	// CountReposts returns the number of reposts for a chat.
	CountReposts(ctx context.Context, chatID string) (int, error)
}

// Service implements vote toggling and reposting. Counts are always
// recomputed from storage after a write; client-cached counts are never
// treated as authoritative across requests.
type Service struct {
	store Store
}

// NewService creates an engagement service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ToggleVote flips the user's like state on a chat and returns the new state
// plus the recomputed upvote count. Calling it twice restores the original
// state and count.
func (s *Service) ToggleVote(ctx context.Context, chatID, messageID string, userID int64) (bool, int, error) {
	if _, err := s.store.ChatVisibility(ctx, chatID); err != nil {
		return false, 0, err
	}

	vote, err := s.store.GetVote(ctx, chatID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to load vote: %w", err)
	}

	var voted bool
	if vote == nil {
		voted = true
		err = s.store.InsertVote(ctx, &models.Vote{
			ChatID:    chatID,
			MessageID: messageID,
			UserID:    userID,
			IsUpvoted: true,
		})
		if errors.Is(err, errDuplicateVote) {
			// Lost a race with a concurrent first vote; flip the row that won.
			existing, getErr := s.store.GetVote(ctx, chatID, userID)
			if getErr != nil {
				return false, 0, fmt.Errorf("failed to reload vote after conflict: %w", getErr)
			}
			if existing != nil {
				voted = !existing.IsUpvoted
				err = s.store.UpdateVote(ctx, chatID, userID, voted)
			}
		}
		if err != nil {
			return false, 0, fmt.Errorf("failed to store vote: %w", err)
		}
	} else {
		voted = !vote.IsUpvoted
		if err := s.store.UpdateVote(ctx, chatID, userID, voted); err != nil {
			return false, 0, fmt.Errorf("failed to flip vote: %w", err)
		}
	}

	count, err := s.store.CountVotes(ctx, chatID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to count votes: %w", err)
	}

	return voted, count, nil
}

// Counts returns the current upvote and repost counts for a chat, recomputed
// from storage.
func (s *Service) Counts(ctx context.Context, chatID string) (int, int, error) {
	if _, err := s.store.ChatVisibility(ctx, chatID); err != nil {
		return 0, 0, err
	}

	upvotes, err := s.store.CountVotes(ctx, chatID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count votes: %w", err)
	}

	reposts, err := s.store.CountReposts(ctx, chatID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count reposts: %w", err)
	}

	return upvotes, reposts, nil
}

// Repost reshares a public chat into the user's activity and returns the
// recomputed repost count. A second repost by the same user fails with
// ErrAlreadyReposted and leaves the count untouched; a chat that is not
// currently public fails with ErrChatNotPublic.
func (s *Service) Repost(ctx context.Context, chatID string, userID int64) (int, error) {
	visibility, err := s.store.ChatVisibility(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if visibility != models.VisibilityPublic {
		return 0, ErrChatNotPublic
	}

	if err := s.store.InsertRepost(ctx, chatID, userID); err != nil {
		return 0, err
	}

	count, err := s.store.CountReposts(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("failed to count reposts: %w", err)
	}

	log.Info().Str("chat_id", chatID).Int64("user_id", userID).Msg("chat reposted")
	return count, nil
}

// RemoveRepost deletes the user's repost of a chat and returns the recomputed
// count. Removing a repost that does not exist is not an error.
func (s *Service) RemoveRepost(ctx context.Context, chatID string, userID int64) (int, error) {
	if _, err := s.store.DeleteRepost(ctx, chatID, userID); err != nil {
		return 0, fmt.Errorf("failed to delete repost: %w", err)
	}

	count, err := s.store.CountReposts(ctx, chatID)
	if err != nil {
		return 0, fmt.Errorf("failed to count reposts: %w", err)
	}
	return count, nil
}
