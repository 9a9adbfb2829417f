package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirstTextPart(t *testing.T) {
	t.Run("first non-empty text wins", func(t *testing.T) {
		parts := []byte(`[{"type":"image","image_url":"x.png"},{"type":"text","text":"  "},{"type":"text","text":"how do rockets work?"}]`)
		assert.Equal(t, "how do rockets work?", firstTextPart(parts))
	})

	t.Run("no text parts", func(t *testing.T) {
		assert.Equal(t, "", firstTextPart([]byte(`[{"type":"image","image_url":"x.png"}]`)))
	})

	t.Run("malformed payload", func(t *testing.T) {
		assert.Equal(t, "", firstTextPart([]byte(`{not json`)))
	})
}

func TestHashtagJobArgsKind(t *testing.T) {
	assert.Equal(t, "hashtag_generate", HashtagJobArgs{}.Kind())
}

func TestHashtagWorkerTimeout(t *testing.T) {
	worker := &HashtagWorker{config: &QueueConfig{JobTimeout: 90 * time.Second}}
	assert.Equal(t, 90*time.Second, worker.Timeout(nil))
}

func TestQueueConfigByEnvironment(t *testing.T) {
	t.Run("production", func(t *testing.T) {
		t.Setenv("CHATTERFEED_ENV", "production")
		config := GetQueueConfig()
		assert.Equal(t, 8, config.MaxWorkers)
		assert.Equal(t, 5, config.MaxRetries)
		assert.Equal(t, 5*time.Minute, config.JobTimeout)
	})

	t.Run("development", func(t *testing.T) {
		t.Setenv("CHATTERFEED_ENV", "development")
		config := GetQueueConfig()
		assert.Equal(t, 2, config.MaxWorkers)
		assert.Equal(t, 2, config.MaxRetries)
		assert.Equal(t, time.Minute, config.JobTimeout)
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("CHATTERFEED_ENV", "")
		config := GetQueueConfig()
		assert.Equal(t, 4, config.MaxWorkers)
		assert.Equal(t, 5, config.MaxRetries)
		assert.Equal(t, 2*time.Minute, config.JobTimeout)
	})
}
