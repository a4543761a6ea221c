package domain

import "time"

// ExtendedData is the free-form metadata blob Foru.ms stores alongside
// threads and posts. Reaxo uses it for rich content, denormalized author
// info and AI reply markers; the plain-text body stays untouched.
type ExtendedData map[string]any

func (e ExtendedData) String(key string) string {
	if e == nil {
		return ""
	}
	s, _ := e[key].(string)
	return s
}

func (e ExtendedData) Bool(key string) bool {
	if e == nil {
		return false
	}
	b, _ := e[key].(bool)
	return b
}

type Thread struct {
	Id           string       `json:"id"`
	Title        string       `json:"title"`
	Body         string       `json:"body"` // plain-text fallback
	UserId       string       `json:"userId,omitempty"`
	Author       *User        `json:"author,omitempty"`
	Tags         []Tag        `json:"tags,omitempty"`
	PostCount    int          `json:"postCount,omitempty"`
	ViewCount    int          `json:"viewCount,omitempty"`
	LikeCount    int          `json:"likeCount,omitempty"`
	IsPinned     bool         `json:"isPinned,omitempty"`
	IsLocked     bool         `json:"isLocked,omitempty"`
	ExtendedData ExtendedData `json:"extendedData,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    *time.Time   `json:"updatedAt,omitempty"`
}

// RichBody returns the rich HTML content if present, the plain body otherwise.
func (t *Thread) RichBody() string {
	if rich := t.ExtendedData.String("richContent"); rich != "" {
		return rich
	}
	return t.Body
}

// ForumId returns the aside-store forum this thread is linked to,
// empty for home feed threads.
func (t *Thread) ForumId() string {
	return t.ExtendedData.String("forumId")
}

type Post struct {
	Id           string       `json:"id"`
	ThreadId     string       `json:"threadId"`
	ParentId     string       `json:"parentId,omitempty"`
	Body         string       `json:"body"`
	UserId       string       `json:"userId,omitempty"`
	Author       *User        `json:"author,omitempty"`
	LikeCount    int          `json:"likeCount,omitempty"`
	ExtendedData ExtendedData `json:"extendedData,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    *time.Time   `json:"updatedAt,omitempty"`
}

// ReplyNode is the request-scoped nested projection of a thread's flat
// post list, built fresh on every fetch and never persisted.
type ReplyNode struct {
	Post
	Children []*ReplyNode `json:"children"`
}
