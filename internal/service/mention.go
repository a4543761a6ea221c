package service

import "strings"

// Mention is the parse result of scanning submitted content for AI
// addressees. Image wins over chat when both markers are present: only
// one AI reply is ever generated per triggering post.
type Mention int

const (
	MentionNone Mention = iota
	MentionChat
	MentionImage
)

func (m Mention) String() string {
	switch m {
	case MentionChat:
		return "chat"
	case MentionImage:
		return "image"
	default:
		return "none"
	}
}

// DetectMention scans raw submitted content (plain text or editor HTML)
// in a single pass. It matches both the literal @ai / @image tokens and
// the structured mention markers the rich text editor emits. Matching is
// case-insensitive; no side effects.
func DetectMention(body string) Mention {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "@image") || strings.Contains(lower, `data-id="image"`):
		return MentionImage
	case strings.Contains(lower, "@ai") || strings.Contains(lower, `data-id="ai"`):
		return MentionChat
	default:
		return MentionNone
	}
}
