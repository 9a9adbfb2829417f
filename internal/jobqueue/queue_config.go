/*
Package jobqueue configuration. Tunable parameters for the hashtag generation
queue: worker counts, retry limits, and job timeouts.

LLM jobs are slow and rate-limited upstream, so the worker count stays low and
the per-job retry count modest; the in-job retry helper already absorbs
transient API failures before River ever sees an error.
*/
package jobqueue

import (
	"os"
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds all configurable parameters for the job queue
type QueueConfig struct {
	// Worker Configuration
	MaxWorkers int // Number of concurrent workers processing jobs (default: 4)

	// Retry Configuration
	MaxRetries int           // Maximum River retry attempts per job (default: 5)
	JobTimeout time.Duration // Maximum time a single job can run (default: 2 minutes)
}

// DefaultQueueConfig returns the default configuration
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers: 4,
		MaxRetries: 5,
		JobTimeout: 2 * time.Minute,
	}
}

// ProductionQueueConfig returns a configuration for production use
func ProductionQueueConfig() *QueueConfig {
	config := DefaultQueueConfig()

	config.MaxWorkers = 8
	config.JobTimeout = 5 * time.Minute

	return config
}

// DevelopmentQueueConfig returns a configuration for development
func DevelopmentQueueConfig() *QueueConfig {
	config := DefaultQueueConfig()

	config.MaxWorkers = 2
	config.MaxRetries = 2
	config.JobTimeout = 1 * time.Minute

	return config
}

// GetQueueConfig returns the appropriate configuration based on environment
func GetQueueConfig() *QueueConfig {
	switch os.Getenv("CHATTERFEED_ENV") {
	case "production":
		return ProductionQueueConfig()
	case "development":
		return DevelopmentQueueConfig()
	default:
		return DefaultQueueConfig()
	}
}

// RiverQueueConfig converts our config to River's queue configuration format
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
