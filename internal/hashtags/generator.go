package hashtags

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// MaxTags is the cap on hashtags attached to a chat.
const MaxTags = 5

const promptTemplate = `You tag shared AI conversations for a public feed.

Given the conversation title and opening message below, respond with a JSON
array of at most %d short topic hashtags (lowercase, no "#" prefix, no spaces).
Respond with the JSON array only.

Title: %s

Opening message:
%s`

// Generator produces topic hashtags for a chat using an LLM.
type Generator struct {
	llm   llms.Model
	model string
}

// NewGenerator creates a hashtag generator backed by the Gemini API. A zero
// temperature leaves the provider default in place.
func NewGenerator(ctx context.Context, apiKey, model string, maxTokens int, temperature float64) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("hashtag generation requires an API key")
	}

	opts := []googleai.Option{
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	}
	if maxTokens > 0 {
		opts = append(opts, googleai.WithDefaultMaxTokens(maxTokens))
	}
	if temperature > 0 {
		opts = append(opts, googleai.WithDefaultTemperature(temperature))
	}

	llm, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	return &Generator{llm: llm, model: model}, nil
}

// Generate returns normalized hashtags for a chat. The opening message may be
// empty; the title alone is enough signal for short chats.
func (g *Generator) Generate(ctx context.Context, title, openingMessage string) ([]string, error) {
	prompt := fmt.Sprintf(promptTemplate, MaxTags, title, openingMessage)

	response, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt)
	if err != nil {
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}

	tags, err := ParseTags(response)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("model", g.model).
		Strs("hashtags", tags).
		Msg("generated hashtags")

	return tags, nil
}

// ParseTags decodes an LLM response into normalized hashtags, repairing the
// JSON first when needed.
func ParseTags(raw string) ([]string, error) {
	repaired, err := repairJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to repair LLM response: %w", err)
	}

	var tags []string
	if err := json.Unmarshal([]byte(repaired), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode hashtag array: %w", err)
	}

	return Normalize(tags), nil
}

// Normalize lowercases tags, strips "#" prefixes and whitespace, drops empties
// and duplicates, and caps the result at MaxTags.
func Normalize(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		tag = strings.TrimPrefix(tag, "#")
		tag = strings.ReplaceAll(tag, " ", "")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
