package domain

import "time"

// User mirrors the Foru.ms user resource.
type User struct {
	Id          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	PostCount   int        `json:"postCount,omitempty"`
	ThreadCount int        `json:"threadCount,omitempty"`
	Reputation  int        `json:"reputation,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type Stats struct {
	UserCount   int `json:"userCount"`
	ThreadCount int `json:"threadCount"`
	PostCount   int `json:"postCount"`
	TagCount    int `json:"tagCount"`
	OnlineCount int `json:"onlineCount,omitempty"`
}

type Tag struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	ThreadCount int    `json:"threadCount,omitempty"`
}
