package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
)

// slugs double as subdomains, so the reserved list covers hostnames the
// platform itself uses
var reservedSlugs = map[string]struct{}{
	"www": {}, "api": {}, "admin": {}, "dashboard": {}, "app": {},
	"mail": {}, "ftp": {}, "localhost": {}, "forums": {}, "profile": {},
	"settings": {}, "home": {}, "feed": {},
}

var slugRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

type ForumStorage interface {
	CreateForum(ctx context.Context, forum domain.Forum, owner domain.ForumMember) error
	GetForum(ctx context.Context, id string) (*domain.Forum, error)
	GetForumBySlug(ctx context.Context, slug string) (*domain.Forum, error)
	ListForums(ctx context.Context, publicOnly bool) ([]domain.Forum, error)
	ListForumsByOwner(ctx context.Context, ownerId string) ([]domain.Forum, error)
	UpdateForum(ctx context.Context, forum domain.Forum) (*domain.Forum, error)
	DeleteForum(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	AdjustThreadCount(ctx context.Context, forumId string, delta int) error

	AddMember(ctx context.Context, member domain.ForumMember) error
	RemoveMember(ctx context.Context, forumId, userId string) error
	GetMember(ctx context.Context, forumId, userId string) (*domain.ForumMember, error)
	ListMembers(ctx context.Context, forumId string) ([]domain.ForumMember, error)
	ListMembershipsByUser(ctx context.Context, userId string) ([]domain.ForumMember, error)
	UpdateMemberRole(ctx context.Context, forumId, userId string, role domain.MemberRole) (*domain.ForumMember, error)

	AddPendingPost(ctx context.Context, post domain.PendingPost) error
	ListPendingPosts(ctx context.Context, forumId string) ([]domain.PendingPost, error)
	ReviewPendingPost(ctx context.Context, postId, reviewerId string, status domain.PendingStatus) (*domain.PendingPost, error)
}

// ForumService owns forum, membership and moderation metadata that the
// upstream thread/post API does not model.
type ForumService struct {
	storage ForumStorage
}

func NewForum(storage ForumStorage) *ForumService {
	return &ForumService{storage: storage}
}

type CreateForumParams struct {
	Name        string
	Slug        string
	Description string
	Icon        string
	IsPublic    *bool
	OwnerId     string
	Settings    *domain.ForumSettings
}

func (s *ForumService) Create(ctx context.Context, p CreateForumParams) (*domain.Forum, error) {
	if p.Name == "" || p.Slug == "" || p.OwnerId == "" {
		return nil, internal_errors.New("Name, slug, and ownerId are required", 400)
	}
	if !slugRegex.MatchString(p.Slug) {
		return nil, internal_errors.New("URL slug can only contain lowercase letters, numbers, and hyphens", 400)
	}
	available, err := s.IsSlugAvailable(ctx, p.Slug)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, internal_errors.New("This URL is already taken", 400)
	}

	settings := domain.DefaultForumSettings()
	if p.Settings != nil {
		settings = *p.Settings
	}
	isPublic := true
	if p.IsPublic != nil {
		isPublic = *p.IsPublic
	}

	now := time.Now().UTC()
	forum := domain.Forum{
		Id:          uuid.NewString(),
		Name:        p.Name,
		Slug:        strings.ToLower(p.Slug),
		Description: p.Description,
		Icon:        p.Icon,
		IsPublic:    isPublic,
		OwnerId:     p.OwnerId,
		MemberCount: 1,
		Settings:    settings,
		CreatedAt:   now,
	}
	owner := domain.ForumMember{
		Id:       uuid.NewString(),
		ForumId:  forum.Id,
		UserId:   p.OwnerId,
		Role:     domain.RoleOwner,
		JoinedAt: now,
	}

	// forum row and owner membership are inserted in one transaction
	if err := s.storage.CreateForum(ctx, forum, owner); err != nil {
		return nil, err
	}
	return &forum, nil
}

// IsSlugAvailable rejects reserved words before consulting the store.
func (s *ForumService) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	if _, reserved := reservedSlugs[strings.ToLower(slug)]; reserved {
		return false, nil
	}
	exists, err := s.storage.SlugExists(ctx, strings.ToLower(slug))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *ForumService) Get(ctx context.Context, id string) (*domain.Forum, error) {
	return s.storage.GetForum(ctx, id)
}

func (s *ForumService) GetBySlug(ctx context.Context, slug string) (*domain.Forum, error) {
	return s.storage.GetForumBySlug(ctx, strings.ToLower(slug))
}

func (s *ForumService) List(ctx context.Context, publicOnly bool) ([]domain.Forum, error) {
	return s.storage.ListForums(ctx, publicOnly)
}

func (s *ForumService) ListByOwner(ctx context.Context, ownerId string) ([]domain.Forum, error) {
	return s.storage.ListForumsByOwner(ctx, ownerId)
}

type UpdateForumParams struct {
	Name        *string
	Description *string
	Icon        *string
	IsPublic    *bool
	Settings    map[string]any
}

func (s *ForumService) Update(ctx context.Context, id string, p UpdateForumParams) (*domain.Forum, error) {
	forum, err := s.storage.GetForum(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		forum.Name = *p.Name
	}
	if p.Description != nil {
		forum.Description = *p.Description
	}
	if p.Icon != nil {
		forum.Icon = *p.Icon
	}
	if p.IsPublic != nil {
		forum.IsPublic = *p.IsPublic
	}
	if p.Settings != nil {
		MergeSettings(&forum.Settings, p.Settings)
	}
	now := time.Now().UTC()
	forum.UpdatedAt = &now
	return s.storage.UpdateForum(ctx, *forum)
}

// MergeSettings applies partial setting overrides on top of existing
// settings, so callers never clobber fields they did not send.
func MergeSettings(settings *domain.ForumSettings, overrides map[string]any) {
	boolField := func(key string, dst *bool) {
		if v, ok := overrides[key].(bool); ok {
			*dst = v
		}
	}
	intField := func(key string, dst *int) {
		if v, ok := overrides[key].(float64); ok {
			*dst = int(v)
		}
	}
	boolField("requirePostApproval", &settings.RequirePostApproval)
	boolField("requireMemberApproval", &settings.RequireMemberApproval)
	boolField("allowGuests", &settings.AllowGuests)
	boolField("allowImages", &settings.AllowImages)
	boolField("allowVideos", &settings.AllowVideos)
	boolField("allowLinks", &settings.AllowLinks)
	intField("minPostLength", &settings.MinPostLength)
	intField("maxPostLength", &settings.MaxPostLength)
	if v, ok := overrides["primaryColor"].(string); ok {
		settings.PrimaryColor = v
	}
}

// Delete removes the forum and cascades its membership rows. Pending
// posts are deliberately left behind; see the moderation queue handling.
func (s *ForumService) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteForum(ctx, id)
}

// AdjustThreadCount bumps the denormalized thread counter when a thread
// is linked to the forum.
func (s *ForumService) AdjustThreadCount(ctx context.Context, forumId string, delta int) error {
	return s.storage.AdjustThreadCount(ctx, forumId, delta)
}

// Join is a no-op if the user is already a member. Private forums refuse
// join attempts.
func (s *ForumService) Join(ctx context.Context, forumId, userId string) (*domain.ForumMember, error) {
	forum, err := s.storage.GetForum(ctx, forumId)
	if err != nil {
		return nil, err
	}
	if !forum.IsPublic {
		return nil, internal_errors.New("This forum is private", 403)
	}
	if existing, err := s.storage.GetMember(ctx, forumId, userId); err == nil && existing != nil {
		return existing, nil
	}

	member := domain.ForumMember{
		Id:       uuid.NewString(),
		ForumId:  forumId,
		UserId:   userId,
		Role:     domain.RoleMember,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.storage.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return &member, nil
}

// Leave refuses to let the owner abandon the forum.
func (s *ForumService) Leave(ctx context.Context, forumId, userId string) error {
	member, err := s.storage.GetMember(ctx, forumId, userId)
	if err != nil {
		return err
	}
	if member.Role == domain.RoleOwner {
		return internal_errors.New("The forum owner cannot leave the forum", 400)
	}
	return s.storage.RemoveMember(ctx, forumId, userId)
}

func (s *ForumService) Members(ctx context.Context, forumId string) ([]domain.ForumMember, error) {
	return s.storage.ListMembers(ctx, forumId)
}

func (s *ForumService) Member(ctx context.Context, forumId, userId string) (*domain.ForumMember, error) {
	return s.storage.GetMember(ctx, forumId, userId)
}

// RemoveMember mirrors Leave but is invoked by moderators; the owner is
// protected the same way.
func (s *ForumService) RemoveMember(ctx context.Context, forumId, userId string) error {
	member, err := s.storage.GetMember(ctx, forumId, userId)
	if err != nil {
		return err
	}
	if member.Role == domain.RoleOwner {
		return internal_errors.New("The forum owner cannot be removed", 400)
	}
	return s.storage.RemoveMember(ctx, forumId, userId)
}

// UpdateMemberRole refuses both demoting the owner and promoting anyone
// else to owner, so exactly one owner exists per forum at all times.
func (s *ForumService) UpdateMemberRole(ctx context.Context, forumId, userId string, role domain.MemberRole) (*domain.ForumMember, error) {
	if !role.Valid() {
		return nil, internal_errors.New("Invalid role", 400)
	}
	member, err := s.storage.GetMember(ctx, forumId, userId)
	if err != nil {
		return nil, err
	}
	if member.Role == domain.RoleOwner {
		return nil, internal_errors.New("The forum owner's role cannot be changed", 400)
	}
	if role == domain.RoleOwner {
		return nil, internal_errors.New("Ownership cannot be transferred through role updates", 400)
	}
	return s.storage.UpdateMemberRole(ctx, forumId, userId, role)
}

// Memberships returns the forums a user belongs to (owned first, then
// joined, de-duplicated) together with the raw membership rows.
func (s *ForumService) Memberships(ctx context.Context, userId string) ([]domain.Forum, []domain.ForumMember, error) {
	memberships, err := s.storage.ListMembershipsByUser(ctx, userId)
	if err != nil {
		return nil, nil, err
	}
	owned, err := s.storage.ListForumsByOwner(ctx, userId)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]struct{}, len(owned))
	combined := make([]domain.Forum, 0, len(owned)+len(memberships))
	for _, f := range owned {
		seen[f.Id] = struct{}{}
		combined = append(combined, f)
	}
	for _, m := range memberships {
		if _, ok := seen[m.ForumId]; ok {
			continue
		}
		forum, err := s.storage.GetForum(ctx, m.ForumId)
		if err != nil {
			continue // membership pointing at a deleted forum
		}
		seen[m.ForumId] = struct{}{}
		combined = append(combined, *forum)
	}
	return combined, memberships, nil
}

type AddPendingPostParams struct {
	ForumId    string
	ThreadId   string
	Type       domain.PendingPostType
	Title      string
	Body       string
	AuthorId   string
	AuthorName string
}

func (s *ForumService) AddPendingPost(ctx context.Context, p AddPendingPostParams) (*domain.PendingPost, error) {
	if p.ForumId == "" || p.Body == "" || p.AuthorId == "" {
		return nil, internal_errors.New("forumId, body and authorId are required", 400)
	}
	if p.Type != domain.PendingTypeThread && p.Type != domain.PendingTypeReply {
		return nil, internal_errors.New("Invalid pending post type", 400)
	}
	post := domain.PendingPost{
		Id:         uuid.NewString(),
		ForumId:    p.ForumId,
		ThreadId:   p.ThreadId,
		Type:       p.Type,
		Title:      p.Title,
		Body:       p.Body,
		AuthorId:   p.AuthorId,
		AuthorName: p.AuthorName,
		Status:     domain.PendingStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.storage.AddPendingPost(ctx, post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *ForumService) PendingPosts(ctx context.Context, forumId string) ([]domain.PendingPost, error) {
	return s.storage.ListPendingPosts(ctx, forumId)
}

func (s *ForumService) ApprovePendingPost(ctx context.Context, postId, reviewerId string) (*domain.PendingPost, error) {
	return s.storage.ReviewPendingPost(ctx, postId, reviewerId, domain.PendingStatusApproved)
}

func (s *ForumService) RejectPendingPost(ctx context.Context, postId, reviewerId string) (*domain.PendingPost, error) {
	return s.storage.ReviewPendingPost(ctx, postId, reviewerId, domain.PendingStatusRejected)
}
