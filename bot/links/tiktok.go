// Package links rewrites social media links into embed friendly mirrors.
package links

import (
	"fmt"
	"regexp"
	"strings"
)

var tiktokPattern = regexp.MustCompile(`(?i)(https?://)?((\w+)\.)?tiktok\.com/(\S+)`)

// RewriteTikTok returns the first TikTok link of content pointed at
// vxtiktok.com, keeping scheme, subdomain and path.
func RewriteTikTok(content string) (string, bool) {
	m := tiktokPattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1] + m[2] + "vxtiktok.com/" + m[4], true
}

// Repost is the message posted in place of the original one
func Repost(author, url string) string {
	return fmt.Sprintf("**%s** shared the following TikTok!\n%s", EscapeMarkdown(author), url)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
	">", `\>`,
)

func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
