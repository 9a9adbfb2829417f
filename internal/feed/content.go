package feed

import (
	"strings"

	"github.com/chatterfeed/pkg/models"
)

// BodyText returns the display body for a message: the first text part with
// non-empty trimmed content. A message with no such part yields an empty
// string, which is a valid body, not an error.
func BodyText(msg *models.Message) string {
	if msg == nil {
		return ""
	}
	for _, part := range msg.Parts {
		if part.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(part.Text); text != "" {
			return text
		}
	}
	return ""
}

// ImageURL returns the display image for a message: the first image part with
// a non-empty URL, falling back to the first image attachment. Returns nil
// when the message carries no image.
func ImageURL(msg *models.Message) *string {
	if msg == nil {
		return nil
	}
	for _, part := range msg.Parts {
		if part.Type == "image" && part.ImageURL != "" {
			url := part.ImageURL
			return &url
		}
	}
	for _, att := range msg.Attachments {
		if att.Type == "image" && att.URL != "" {
			url := att.URL
			return &url
		}
	}
	return nil
}
