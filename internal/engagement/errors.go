package engagement

import (
	"errors"

	"github.com/lib/pq"
)

// Expected failure modes for engagement actions. Handlers map these to 404,
// 403, and 409 respectively; everything else is an upstream failure.
var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrChatNotPublic   = errors.New("chat is not public")
	ErrAlreadyReposted = errors.New("chat already reposted by this user")

	// errDuplicateVote signals a unique-constraint race on the vote row. It is
	// recovered inside ToggleVote, never surfaced to callers.
	errDuplicateVote = errors.New("duplicate vote row")
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505). Races on the unique (chat_id, user_id) indexes
// are expected, recoverable outcomes, not fatal errors.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
