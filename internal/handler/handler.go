package handler

import (
	"context"
	"net/http"

	"github.com/reaxo-dev/reaxo/internal/config"
	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
	"github.com/reaxo-dev/reaxo/internal/forums"
	"github.com/reaxo-dev/reaxo/internal/middleware"
	"github.com/reaxo-dev/reaxo/internal/service"
	"github.com/reaxo-dev/reaxo/internal/utils"
)

// ForumService is the slice of the forum-aside service the handlers use.
type ForumService interface {
	Create(ctx context.Context, p service.CreateForumParams) (*domain.Forum, error)
	IsSlugAvailable(ctx context.Context, slug string) (bool, error)
	Get(ctx context.Context, id string) (*domain.Forum, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Forum, error)
	List(ctx context.Context, publicOnly bool) ([]domain.Forum, error)
	ListByOwner(ctx context.Context, ownerId string) ([]domain.Forum, error)
	Update(ctx context.Context, id string, p service.UpdateForumParams) (*domain.Forum, error)
	Delete(ctx context.Context, id string) error
	AdjustThreadCount(ctx context.Context, forumId string, delta int) error
	Join(ctx context.Context, forumId, userId string) (*domain.ForumMember, error)
	Leave(ctx context.Context, forumId, userId string) error
	Members(ctx context.Context, forumId string) ([]domain.ForumMember, error)
	Member(ctx context.Context, forumId, userId string) (*domain.ForumMember, error)
	RemoveMember(ctx context.Context, forumId, userId string) error
	UpdateMemberRole(ctx context.Context, forumId, userId string, role domain.MemberRole) (*domain.ForumMember, error)
	Memberships(ctx context.Context, userId string) ([]domain.Forum, []domain.ForumMember, error)
	AddPendingPost(ctx context.Context, p service.AddPendingPostParams) (*domain.PendingPost, error)
	PendingPosts(ctx context.Context, forumId string) ([]domain.PendingPost, error)
	ApprovePendingPost(ctx context.Context, postId, reviewerId string) (*domain.PendingPost, error)
	RejectPendingPost(ctx context.Context, postId, reviewerId string) (*domain.PendingPost, error)
}

// AIResponder is the slice of the reply orchestrator the handlers use.
type AIResponder interface {
	Trigger(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error)
	Respond(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error)
	GenerateImage(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error)
}

type Handler struct {
	upstream  *forums.Client // system-token client
	forum     ForumService
	responder AIResponder
	cfg       *config.Config
}

func New(upstream *forums.Client, forum ForumService, responder AIResponder, cfg *config.Config) *Handler {
	return &Handler{upstream, forum, responder, cfg}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// client returns an upstream client carrying the caller's token when one
// is present, falling back to the system token.
func (h *Handler) client(r *http.Request) *forums.Client {
	if user := middleware.UserFromContext(r.Context()); user != nil && user.Token != "" {
		return h.upstream.WithToken(user.Token)
	}
	return h.upstream
}

// requireUser is for routes behind NeedAuth; a nil user here is a wiring
// bug, not a client error.
func requireUser(w http.ResponseWriter, r *http.Request) *middleware.AuthUser {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		utils.WriteErrorAndStatusCode(w, internal_errors.New("Authentication required", http.StatusUnauthorized))
		return nil
	}
	return user
}

// requireRole checks the caller's membership role in the forum.
func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, forumId string, roles ...domain.MemberRole) *middleware.AuthUser {
	user := requireUser(w, r)
	if user == nil {
		return nil
	}
	member, err := h.forum.Member(r.Context(), forumId, user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, internal_errors.New("You are not a member of this forum", http.StatusForbidden))
		return nil
	}
	for _, role := range roles {
		if member.Role == role {
			return user
		}
	}
	utils.WriteErrorAndStatusCode(w, internal_errors.New("Insufficient permissions", http.StatusForbidden))
	return nil
}
