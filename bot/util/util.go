package util

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MessageLimit is the longest message discord accepts
const MessageLimit = 2000

var (
	userMention    = regexp.MustCompile(`^<@!?(\d+)>$`)
	channelMention = regexp.MustCompile(`^<#(\d+)>$`)
	snowflake      = regexp.MustCompile(`^\d+$`)
)

func DiscordIDToText(userID string) string {
	return "<@" + userID + ">"
}

func ChannelIDToText(channelID string) string {
	return "<#" + channelID + ">"
}

// ParseUserID accepts a user mention or a raw id
func ParseUserID(s string) (string, bool) {
	if m := userMention.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if snowflake.MatchString(s) {
		return s, true
	}
	return "", false
}

// ParseChannelID accepts a channel mention or a raw id
func ParseChannelID(s string) (string, bool) {
	if m := channelMention.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if snowflake.MatchString(s) {
		return s, true
	}
	return "", false
}

// DisplayName turns an api name like "mr-mime" into "Mr Mime"
func DisplayName(name string) string {
	// a Caser keeps state, it cannot be shared between handlers
	return cases.Title(language.English).String(strings.Join(strings.Fields(strings.ReplaceAll(name, "-", " ")), " "))
}

// ExperienceBar draws percent as a bar of length blocks
func ExperienceBar(percent, length int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * length / 100
	return strings.Repeat("▰", filled) + strings.Repeat("▱", length-filled)
}

// SplitMessage cuts content on line boundaries into chunks discord accepts.
// A single line longer than the limit is cut on rune boundaries.
func SplitMessage(content string, limit int) []string {
	if utf8.RuneCountInString(content) <= limit {
		return []string{content}
	}

	var (
		chunks []string
		cur    strings.Builder
		size   int
	)
	flush := func() {
		if size > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			size = 0
		}
	}

	for _, line := range strings.Split(content, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		n := len(runes)
		if size > 0 && size+1+n > limit {
			flush()
		}
		if size > 0 {
			cur.WriteByte('\n')
			size++
		}
		cur.WriteString(string(runes))
		size += n
	}
	flush()
	return chunks
}
