package models

import (
	"time"
)

// User represents an account holder. Nickname doubles as the public handle; it
// is optional and falls back to the email for display purposes.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Nickname     *string    `json:"nickname,omitempty" db:"nickname"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose password hash in JSON
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Chat visibility values. Private chats are only visible to their owner.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Chat represents one conversation with the assistant. Chats are soft-deleted
// via the Deleted flag and never hard-deleted in the normal flow.
type Chat struct {
	ID         string    `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Title      string    `json:"title" db:"title"`
	Visibility string    `json:"visibility" db:"visibility"`
	Hashtags   []string  `json:"hashtags" db:"hashtags"`
	Deleted    bool      `json:"deleted" db:"deleted"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Part is one ordered segment of a message body. Type is "text" or "image";
// exactly one of Text/ImageURL is meaningful for a given type.
type Part struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Attachment is a file attached to a message outside its parts sequence.
type Attachment struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Message is one turn in a chat. Messages are append-only per chat; the first
// user-role message of a chat is its canonical body for feed display.
type Message struct {
	ID          string       `json:"id" db:"id"`
	ChatID      string       `json:"chat_id" db:"chat_id"`
	Role        string       `json:"role" db:"role"`
	Parts       []Part       `json:"parts" db:"parts"`
	Attachments []Attachment `json:"attachments" db:"attachments"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// Repost records a user resharing a public chat into their own activity. At
// most one repost exists per (chat, user) pair; enforced by a unique index.
type Repost struct {
	ChatID    string    `json:"chat_id" db:"chat_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Vote is a user's like state on a chat, keyed by the chat's first message.
// One row per (chat, user); toggling flips IsUpvoted rather than deleting.
type Vote struct {
	ChatID    string    `json:"chat_id" db:"chat_id"`
	MessageID string    `json:"message_id" db:"message_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	IsUpvoted bool      `json:"is_upvoted" db:"is_upvoted"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
