package hashtags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	t.Run("clean JSON array", func(t *testing.T) {
		tags, err := ParseTags(`["golang", "testing", "backend"]`)
		require.NoError(t, err)
		assert.Equal(t, []string{"golang", "testing", "backend"}, tags)
	})

	t.Run("fenced markdown response", func(t *testing.T) {
		raw := "Here you go:\n```json\n[\"space\", \"physics\"]\n```"
		tags, err := ParseTags(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"space", "physics"}, tags)
	})

	t.Run("trailing comma", func(t *testing.T) {
		tags, err := ParseTags(`["one", "two",]`)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, tags)
	})

	t.Run("single quotes", func(t *testing.T) {
		tags, err := ParseTags(`['cooking', 'recipes']`)
		require.NoError(t, err)
		assert.Equal(t, []string{"cooking", "recipes"}, tags)
	})

	t.Run("truncated array", func(t *testing.T) {
		tags, err := ParseTags(`["history", "rome"`)
		require.NoError(t, err)
		assert.Equal(t, []string{"history", "rome"}, tags)
	})

	t.Run("not an array", func(t *testing.T) {
		_, err := ParseTags(`{"tags": true}`)
		assert.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("lowercases and strips prefixes", func(t *testing.T) {
		tags := Normalize([]string{"#GoLang", " Machine Learning ", "AI"})
		assert.Equal(t, []string{"golang", "machinelearning", "ai"}, tags)
	})

	t.Run("dedupes after normalization", func(t *testing.T) {
		tags := Normalize([]string{"Go", "#go", "GO", "rust"})
		assert.Equal(t, []string{"go", "rust"}, tags)
	})

	t.Run("drops empties and caps at five", func(t *testing.T) {
		tags := Normalize([]string{"", "#", "a", "b", "c", "d", "e", "f"})
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, tags)
	})

	t.Run("nil input", func(t *testing.T) {
		assert.Empty(t, Normalize(nil))
	})
}

func TestCompleteBrackets(t *testing.T) {
	assert.Equal(t, `["a", "b"]`, completeBrackets(`["a", "b"`))
	assert.Equal(t, `{"a": ["b"]}`, completeBrackets(`{"a": ["b"`))
	assert.Equal(t, `[]`, completeBrackets(`[]`))
}
