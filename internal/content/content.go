// Package content processes submitted and generated rich text: markup
// stripping for plain-text bodies, sanitizing for stored HTML, and
// markdown rendering for AI answers.
package content

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmark_html "github.com/yuin/goldmark/renderer/html"
)

const minBodyLength = 10

var (
	tagRegex    = regexp.MustCompile(`<[^>]*>`)
	imgRegex    = regexp.MustCompile(`(?i)<img[^>]*>`)
	iframeRegex = regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`)

	sanitizePolicy = newSanitizePolicy()

	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmark_html.WithHardWraps()),
	)
)

func newSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("img", "code", "pre")
	p.AllowAttrs("data-id", "data-type").OnElements("span") // editor mention markers
	return p
}

// StripMarkup collapses tags to spaces, unescapes entities and collapses
// whitespace, leaving the plain-text rendering of a rich content block.
func StripMarkup(s string) string {
	plain := tagRegex.ReplaceAllString(s, " ")
	plain = html.UnescapeString(plain)
	return strings.Join(strings.Fields(plain), " ")
}

// StripWithPlaceholders is StripMarkup with embedded media collapsed to
// visible placeholders, used for thread body previews.
func StripWithPlaceholders(s string) string {
	s = imgRegex.ReplaceAllString(s, "[image]")
	s = iframeRegex.ReplaceAllString(s, "[video]")
	return StripMarkup(s)
}

// Sanitize cleans user- or AI-supplied HTML before it is stored as rich
// content or echoed back.
func Sanitize(html string) string {
	return sanitizePolicy.Sanitize(html)
}

// RenderMarkdown renders AI-generated markdown into sanitized HTML.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		// fall back to the escaped plain text
		return "<p>" + html.EscapeString(StripMarkup(source)) + "</p>"
	}
	return Sanitize(buf.String())
}

// PadBody pads bodies shorter than the upstream minimum with trailing
// spaces; the upstream API rejects bodies under 10 characters.
func PadBody(s string) string {
	if len(s) >= minBodyLength {
		return s
	}
	return s + strings.Repeat(" ", minBodyLength-len(s))
}

// HasRichMarkup reports whether submitted content carries formatting worth
// storing separately from the plain-text body.
func HasRichMarkup(s string) bool {
	for _, marker := range []string{"<img", "<iframe", "<pre", "<blockquote", "<strong", "<em", "<h1", "<h2", "<ul", "<ol"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
