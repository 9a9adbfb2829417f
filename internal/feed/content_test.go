package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatterfeed/pkg/models"
)

func TestBodyText(t *testing.T) {
	t.Run("first non-empty text part wins", func(t *testing.T) {
		msg := &models.Message{Parts: []models.Part{
			{Type: "image", ImageURL: "https://img.example.com/a.png"},
			{Type: "text", Text: "   "},
			{Type: "text", Text: "  hello  "},
			{Type: "text", Text: "later"},
		}}
		assert.Equal(t, "hello", BodyText(msg))
	})

	t.Run("no text parts yields empty string", func(t *testing.T) {
		msg := &models.Message{Parts: []models.Part{{Type: "image", ImageURL: "x"}}}
		assert.Equal(t, "", BodyText(msg))
	})

	t.Run("nil message yields empty string", func(t *testing.T) {
		assert.Equal(t, "", BodyText(nil))
	})
}

func TestImageURL(t *testing.T) {
	t.Run("parts take precedence over attachments", func(t *testing.T) {
		msg := &models.Message{
			Parts:       []models.Part{{Type: "text", Text: "hi"}, {Type: "image", ImageURL: "from-part"}},
			Attachments: []models.Attachment{{Type: "image", URL: "from-attachment"}},
		}
		url := ImageURL(msg)
		require.NotNil(t, url)
		assert.Equal(t, "from-part", *url)
	})

	t.Run("falls back to attachments", func(t *testing.T) {
		msg := &models.Message{
			Parts:       []models.Part{{Type: "image", ImageURL: ""}},
			Attachments: []models.Attachment{{Type: "file", URL: "doc.pdf"}, {Type: "image", URL: "pic.png"}},
		}
		url := ImageURL(msg)
		require.NotNil(t, url)
		assert.Equal(t, "pic.png", *url)
	})

	t.Run("no image anywhere", func(t *testing.T) {
		assert.Nil(t, ImageURL(&models.Message{Parts: []models.Part{{Type: "text", Text: "hi"}}}))
		assert.Nil(t, ImageURL(nil))
	})
}

func TestDisplayName(t *testing.T) {
	nick := "  zaphod  "
	assert.Equal(t, "zaphod", DisplayName(&models.User{ID: 7, Email: "z@example.com", Nickname: &nick}, 7))

	empty := "   "
	assert.Equal(t, "z@example.com", DisplayName(&models.User{ID: 7, Email: "z@example.com", Nickname: &empty}, 7))

	assert.Equal(t, "z@example.com", DisplayName(&models.User{ID: 7, Email: " z@example.com "}, 7))
	assert.Equal(t, "User-7", DisplayName(nil, 7))
	assert.Equal(t, "User-123456", DisplayName(nil, 1234567890))
}
