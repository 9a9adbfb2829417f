package hashtags

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	codeFenceRe     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	singleQuoteRe   = regexp.MustCompile(`'([^']*)'`)
)

// repairJSON fixes the malformations LLMs commonly produce around a JSON
// payload: markdown code fences, trailing commas, single quotes, truncated
// arrays. The jsonrepair library handles anything beyond that.
func repairJSON(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)

	if m := codeFenceRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}

	if json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}

	cleaned = trailingCommaRe.ReplaceAllString(cleaned, "$1")
	cleaned = singleQuoteRe.ReplaceAllString(cleaned, `"$1"`)
	cleaned = completeBrackets(cleaned)

	if json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return "", err
	}
	return repaired, nil
}

// completeBrackets closes unbalanced braces and brackets in LIFO order, the
// usual damage when a response is cut off at the token limit.
func completeBrackets(s string) string {
	var stack []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == s[i] {
				stack = stack[:len(stack)-1]
			}
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}
