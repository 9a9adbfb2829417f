/*
Package jobqueue provides a River-based job queue for background hashtag
generation. Publishing a chat enqueues a job; the visibility write path never
waits on the LLM.

For worker counts and retry policy, see queue_config.go.
*/
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/rs/zerolog/log"

	"github.com/chatterfeed/internal/retry"
	"github.com/chatterfeed/pkg/models"
)

// TagGenerator produces hashtags for a chat from its title and opening
// message.
type TagGenerator interface {
	Generate(ctx context.Context, title, openingMessage string) ([]string, error)
}

// HashtagJobArgs represents the arguments for a hashtag generation job
type HashtagJobArgs struct {
	ChatID string `json:"chat_id"`
}

// Kind returns the job kind for River
func (HashtagJobArgs) Kind() string {
	return "hashtag_generate"
}

// HashtagWorker handles hashtag generation jobs
type HashtagWorker struct {
	river.WorkerDefaults[HashtagJobArgs]
	pool      *pgxpool.Pool
	generator TagGenerator
	config    *QueueConfig
}

// Timeout bounds a single job run, including the LLM retry loop.
func (w *HashtagWorker) Timeout(*river.Job[HashtagJobArgs]) time.Duration {
	return w.config.JobTimeout
}

// Work generates and stores hashtags for a published chat. The job is best
// effort: exhausted retries log and succeed so the queue never accumulates
// permanently failing LLM jobs.
func (w *HashtagWorker) Work(ctx context.Context, job *river.Job[HashtagJobArgs]) error {
	chatID := job.Args.ChatID

	var title, visibility string
	err := w.pool.QueryRow(ctx, `
		SELECT title, visibility FROM chats
		WHERE id = $1 AND deleted = false
	`, chatID).Scan(&title, &visibility)

	if err == pgx.ErrNoRows {
		log.Debug().Str("chat_id", chatID).Msg("chat gone before hashtag generation, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}

	// The chat may have been made private again since the job was queued.
	if visibility != models.VisibilityPublic {
		log.Debug().Str("chat_id", chatID).Msg("chat no longer public, skipping hashtag generation")
		return nil
	}

	opening, err := w.openingMessage(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load opening message: %w", err)
	}

	var tags []string
	result := retry.WithBackoff(ctx, retry.LLMConfig(), func() error {
		var genErr error
		tags, genErr = w.generator.Generate(ctx, title, opening)
		return genErr
	})
	if !result.Success {
		log.Warn().
			Err(result.LastError).
			Str("chat_id", chatID).
			Int("attempts", result.Attempts).
			Msg("hashtag generation failed, leaving chat untagged")
		return nil
	}

	if len(tags) == 0 {
		return nil
	}

	_, err = w.pool.Exec(ctx, `
		UPDATE chats SET hashtags = $2, updated_at = NOW()
		WHERE id = $1 AND deleted = false
	`, chatID, tags)
	if err != nil {
		return fmt.Errorf("failed to store hashtags: %w", err)
	}

	log.Info().
		Str("chat_id", chatID).
		Strs("hashtags", tags).
		Msg("hashtags generated")

	return nil
}

// openingMessage returns the text of the chat's first user message, or ""
// when the chat has none.
func (w *HashtagWorker) openingMessage(ctx context.Context, chatID string) (string, error) {
	var partsJSON []byte
	err := w.pool.QueryRow(ctx, `
		SELECT parts FROM messages
		WHERE chat_id = $1 AND role = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, chatID, models.RoleUser).Scan(&partsJSON)

	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return firstTextPart(partsJSON), nil
}

// firstTextPart extracts the first non-empty text part from a parts payload.
func firstTextPart(partsJSON []byte) string {
	var parts []models.Part
	if err := json.Unmarshal(partsJSON, &parts); err != nil {
		return ""
	}
	for _, part := range parts {
		if part.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(part.Text); text != "" {
			return text
		}
	}
	return ""
}

// JobQueue manages the River job queue
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewJobQueue creates a new job queue instance
func NewJobQueue(databaseURL string, generator TagGenerator) (*JobQueue, error) {
	config := GetQueueConfig()

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &HashtagWorker{pool: pool, generator: generator, config: config})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:      config.RiverQueueConfig(),
		Workers:     workers,
		MaxAttempts: config.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers
func (jq *JobQueue) Stop(ctx context.Context) error {
	jq.pool.Close()
	return jq.client.Stop(ctx)
}

// QueueHashtagJob queues hashtag generation for a chat
func (jq *JobQueue) QueueHashtagJob(ctx context.Context, chatID string) error {
	_, err := jq.client.Insert(ctx, HashtagJobArgs{ChatID: chatID}, nil)
	if err != nil {
		return fmt.Errorf("failed to queue hashtag job: %w", err)
	}
	return nil
}
