package skiplist

import (
	"strconv"
	"strings"
)

// List holds the exclusion tokens configured through SKIP_GAMES
type List struct {
	tokens []string
}

// Parse splits a comma separated list of app ids or titles.
// Tokens are trimmed and empty tokens are dropped.
func Parse(raw string) List {
	var tokens []string
	for _, token := range strings.Split(raw, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return List{tokens: tokens}
}

// Len returns the number of tokens
func (l List) Len() int { return len(l.tokens) }

// ShouldSkip reports whether a token matches the app id or the exact title.
// Numeric tokens are compared by value, so "010" matches id 10.
func (l List) ShouldSkip(id int, title string) bool {
	idStr := strconv.Itoa(id)
	for _, token := range l.tokens {
		if token == idStr || (title != "" && token == title) {
			return true
		}
		if n, err := strconv.Atoi(token); err == nil && n == id {
			return true
		}
	}
	return false
}
