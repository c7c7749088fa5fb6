package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteTikTok(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://www.tiktok.com/@user/video/123", "https://www.vxtiktok.com/@user/video/123", true},
		{"look at this https://vm.tiktok.com/ZMabc/ lol", "https://vm.vxtiktok.com/ZMabc/", true},
		{"tiktok.com/@user", "vxtiktok.com/@user", true},
		{"HTTP://TikTok.com/t/xyz", "HTTP://vxtiktok.com/t/xyz", true},
		{"https://youtube.com/watch?v=1", "", false},
		{"I love tiktok", "", false},
	} {
		got, ok := RewriteTikTok(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestRepost(t *testing.T) {
	assert.Equal(t, "**ash\\_ketchum** shared the following TikTok!\nvxtiktok.com/x",
		Repost("ash_ketchum", "vxtiktok.com/x"))
}
