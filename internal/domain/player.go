package domain

import (
	"html"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultPlayerName is used until a player picks a name.
	DefaultPlayerName = "Forecaster"
	// MaxPlayerNameLength is measured in characters, not bytes.
	MaxPlayerNameLength = 20
)

// SanitizePlayerName trims and truncates a submitted name. A blank name
// becomes DefaultPlayerName.
func SanitizePlayerName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxPlayerNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxPlayerNameLength]))
	}
	if name == "" {
		return DefaultPlayerName
	}
	return name
}

// DisplayName escapes a player name for HTML output. The stored name is
// never escaped; it stays the leaderboard key.
func DisplayName(name string) string {
	return html.EscapeString(name)
}
