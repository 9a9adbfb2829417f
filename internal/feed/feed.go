package feed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/chatterfeed/pkg/models"
)

// Sort modes for a feed page.
const (
	SortRating = "rating"
	SortDate   = "date"
)

// Page size bounds. Requests outside the range are clamped, not rejected.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Scope selects whose chats a feed page draws from. A zero UserID means the
// global feed of all public chats. IncludePrivate is only honored for the
// "my activity" variant where the viewer is the scoped author.
type Scope struct {
	UserID         int64
	IncludePrivate bool
}

// Filters narrows and orders a feed page. Cursor is an exclusive upper bound
// on each entry's own timestamp in the merged activity stream.
type Filters struct {
	Cursor   *time.Time
	Sort     string
	Tag      string
	Query    string
	PageSize int
}

// Entry is one candidate activity item before view-model assembly: either an
// original chat or a repost of one. Timestamp is the entry's own position in
// the stream (chat creation time for originals, repost time for reposts).
// ChatID always refers to the original chat, so count lookups for a repost and
// its original resolve against the same id.
type Entry struct {
	ChatID     string
	Timestamp  time.Time
	Title      string
	AuthorID   int64
	Hashtags   []string
	IsRepost   bool
	ReposterID int64
}

// ItemView is the JSON shape rendered for one feed entry.
type ItemView struct {
	ChatID         string    `json:"chatId"`
	FirstMessageID string    `json:"firstMessageId"`
	CreatedAt      time.Time `json:"createdAt"`
	Text           string    `json:"text"`
	ImageURL       *string   `json:"imageUrl"`
	Upvotes        int       `json:"upvotes"`
	Reposts        int       `json:"reposts"`
	CommentsCount  int       `json:"commentsCount"`
	Hashtags       []string  `json:"hashtags"`
	Author         string    `json:"author"`
	AuthorHref     *string   `json:"authorHref"`
	IsRepost       bool      `json:"isRepost"`
	RepostedBy     *string   `json:"repostedBy"`
	RepostedByHref *string   `json:"repostedByHref"`
}

// Page is one feed page plus the cursor for the next one. A page shorter than
// the requested size with a non-nil NextCursor means entries were filtered out
// after pagination, not that the stream is exhausted; callers must keep
// paginating until NextCursor is nil.
type Page struct {
	Items      []ItemView `json:"items"`
	NextCursor *time.Time `json:"nextBefore"`
}

// Store is the storage surface the aggregator composes a page from.
type Store interface {
	// ListOriginals returns up to limit original-chat entries matching the
	// scope, newest first, strictly before the cursor when it is set.
	ListOriginals(ctx context.Context, scope Scope, before *time.Time, limit int) ([]Entry, error)

	// ListReposts returns up to limit repost entries whose target chat matches
	// the scope, newest repost first, repost time strictly before the cursor.
	ListReposts(ctx context.Context, scope Scope, before *time.Time, limit int) ([]Entry, error)

	// FirstUserMessages batch-loads the earliest user-role message per chat.
	// Chats with no user message are simply absent from the result.
	FirstUserMessages(ctx context.Context, chatIDs []string) (map[string]*models.Message, error)

	// UserMessageCounts batch-counts user-role messages per chat.
	UserMessageCounts(ctx context.Context, chatIDs []string) (map[string]int, error)

	// VoteCounts batch-counts upvotes per chat.
	VoteCounts(ctx context.Context, chatIDs []string) (map[string]int, error)

	// RepostCounts batch-counts reposts per chat.
	RepostCounts(ctx context.Context, chatIDs []string) (map[string]int, error)

	// Authors batch-loads users by id. Deleted users are absent from the map.
	Authors(ctx context.Context, userIDs []int64) (map[int64]*models.User, error)
}

// ParseCursor parses an RFC3339 cursor value. Anything unparsable is treated
// as "no cursor" rather than an error.
func ParseCursor(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil
		}
	}
	return &t
}

// DisplayName resolves the human-readable label for a user: trimmed nickname,
// else trimmed email, else a generated placeholder.
func DisplayName(user *models.User, userID int64) string {
	if user != nil {
		if user.Nickname != nil {
			if nick := strings.TrimSpace(*user.Nickname); nick != "" {
				return nick
			}
		}
		if email := strings.TrimSpace(user.Email); email != "" {
			return email
		}
	}
	return placeholderName(userID)
}

// ProfileSlug returns the URL slug for a user's profile: the nickname when one
// is set, otherwise the numeric id.
func ProfileSlug(user *models.User) string {
	if user.Nickname != nil {
		if nick := strings.TrimSpace(*user.Nickname); nick != "" {
			return nick
		}
	}
	return strconv.FormatInt(user.ID, 10)
}

func placeholderName(userID int64) string {
	id := strconv.FormatInt(userID, 10)
	if len(id) > 6 {
		id = id[:6]
	}
	return "User-" + id
}
