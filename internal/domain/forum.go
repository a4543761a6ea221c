package domain

import "time"

// Forum lives in the aside store, not upstream; threads reference it
// through extendedData.forumId.
type Forum struct {
	Id          string        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	IsPublic    bool          `json:"isPublic"`
	OwnerId     string        `json:"ownerId"`
	MemberCount int           `json:"memberCount"`
	ThreadCount int           `json:"threadCount"`
	Settings    ForumSettings `json:"settings"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty"`
}

type ForumSettings struct {
	RequirePostApproval   bool   `json:"requirePostApproval"`
	RequireMemberApproval bool   `json:"requireMemberApproval"`
	AllowGuests           bool   `json:"allowGuests"`
	AllowImages           bool   `json:"allowImages"`
	AllowVideos           bool   `json:"allowVideos"`
	AllowLinks            bool   `json:"allowLinks"`
	MinPostLength         int    `json:"minPostLength"`
	MaxPostLength         int    `json:"maxPostLength"`
	PrimaryColor          string `json:"primaryColor,omitempty"`
}

// DefaultForumSettings are merged under caller overrides on forum creation.
func DefaultForumSettings() ForumSettings {
	return ForumSettings{
		AllowGuests:   true,
		AllowImages:   true,
		AllowVideos:   true,
		AllowLinks:    true,
		MinPostLength: 10,
		MaxPostLength: 50000,
	}
}

type MemberRole string

const (
	RoleOwner     MemberRole = "owner"
	RoleAdmin     MemberRole = "admin"
	RoleModerator MemberRole = "moderator"
	RoleMember    MemberRole = "member"
)

func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleModerator, RoleMember:
		return true
	}
	return false
}

type ForumMember struct {
	Id       string     `json:"id"`
	ForumId  string     `json:"forumId"`
	UserId   string     `json:"userId"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joinedAt"`
}

type PendingStatus string

const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusApproved PendingStatus = "approved"
	PendingStatusRejected PendingStatus = "rejected"
)

type PendingPostType string

const (
	PendingTypeThread PendingPostType = "thread"
	PendingTypeReply  PendingPostType = "reply"
)

// PendingPost is queued when a forum requires post approval.
// Status transitions pending -> approved|rejected exactly once.
type PendingPost struct {
	Id         string          `json:"id"`
	ForumId    string          `json:"forumId"`
	ThreadId   string          `json:"threadId,omitempty"`
	Type       PendingPostType `json:"type"`
	Title      string          `json:"title,omitempty"`
	Body       string          `json:"body"`
	AuthorId   string          `json:"authorId"`
	AuthorName string          `json:"authorName"`
	Status     PendingStatus   `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	ReviewedAt *time.Time      `json:"reviewedAt,omitempty"`
	ReviewedBy string          `json:"reviewedBy,omitempty"`
}
