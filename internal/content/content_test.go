package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<p>hello</p>", "hello"},
		{"<p>hello</p><p>world</p>", "hello world"},
		{"plain text", "plain text"},
		{"a&nbsp;&amp;&nbsp;b", "a & b"},
		{"<strong>bold</strong>   spaced", "bold spaced"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StripMarkup(c.in), "input: %q", c.in)
	}
}

func TestStripWithPlaceholders(t *testing.T) {
	in := `<p>look</p><img src="x.png"><iframe src="y">inner</iframe>`
	assert.Equal(t, "look [image] [video]", StripWithPlaceholders(in))
}

func TestPadBody(t *testing.T) {
	// short bodies pad to exactly 10 with trailing spaces
	padded := PadBody("short")
	assert.Len(t, padded, 10)
	assert.Equal(t, "short", strings.TrimRight(padded, " "))

	// idempotent: padding twice equals padding once
	assert.Equal(t, padded, PadBody(padded))

	// long enough bodies are untouched
	long := "this is long enough"
	assert.Equal(t, long, PadBody(long))

	assert.Len(t, PadBody(""), 10)
}

func TestSanitizeDropsScripts(t *testing.T) {
	out := Sanitize(`<p>ok</p><script>alert(1)</script>`)
	assert.Contains(t, out, "<p>ok</p>")
	assert.NotContains(t, out, "script")
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("**bold** and `code`")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<code>code</code>")

	// scripts smuggled through raw HTML are sanitized away
	out = RenderMarkdown("hello <script>alert(1)</script>")
	assert.NotContains(t, out, "<script>")
}

func TestHasRichMarkup(t *testing.T) {
	assert.True(t, HasRichMarkup("<strong>x</strong>"))
	assert.True(t, HasRichMarkup(`<img src="a.png">`))
	assert.False(t, HasRichMarkup("just text with <span>"))
}
