package domain

import (
	"regexp"
	"strings"
)

// Mention is a structured account reference embedded in tracker comment text,
// written as [~accountid:<id>].
type Mention struct {
	AccountID string
}

var mentionPattern = regexp.MustCompile(`\[~accountid:([^\]\s]+)\]`)

// ExtractMentions returns the distinct mentions in body, in order of first appearance.
func ExtractMentions(body string) []Mention {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	mentions := make([]Mention, 0, len(matches))
	for _, match := range matches {
		id := match[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		mentions = append(mentions, Mention{AccountID: id})
	}
	return mentions
}

// BlockerKeywords signal that a comment describes a dependency on someone else.
var BlockerKeywords = []string{
	"blocked by",
	"blocked on",
	"waiting on",
	"waiting for",
	"depends on",
}

// HasBlockerKeyword checks the lower-cased body against BlockerKeywords.
func HasBlockerKeyword(body string) bool {
	lower := strings.ToLower(body)
	for _, keyword := range BlockerKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// StripMentions replaces mention markup with "@someone".
func StripMentions(body string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(body, "@someone"))
}

// Excerpt shortens text to at most limit runes, appending an ellipsis when cut.
func Excerpt(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if limit <= 0 || len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "…"
}
