package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/reaxo-dev/reaxo/internal/cache"
	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
	"github.com/reaxo-dev/reaxo/internal/service"
	"github.com/reaxo-dev/reaxo/internal/utils"
)

const publicForumsCacheKey = "forums:public"

type createForumRequest struct {
	Name        string         `json:"name" validate:"required"`
	Slug        string         `json:"slug" validate:"required"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	IsPublic    *bool          `json:"isPublic,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

type updateForumRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Icon        *string        `json:"icon,omitempty"`
	IsPublic    *bool          `json:"isPublic,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

func (h *Handler) CreateForum(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	var body createForumRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	params := service.CreateForumParams{
		Name:        body.Name,
		Slug:        body.Slug,
		Description: body.Description,
		Icon:        body.Icon,
		IsPublic:    body.IsPublic,
		OwnerId:     user.Id,
	}
	if body.Settings != nil {
		settings := domain.DefaultForumSettings()
		service.MergeSettings(&settings, body.Settings)
		params.Settings = &settings
	}

	forum, err := h.forum.Create(r.Context(), params)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	cache.Invalidate(r.Context(), publicForumsCacheKey)
	utils.WriteJSON(w, http.StatusCreated, forum)
}

func (h *Handler) ListForums(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if owner := q.Get("owner"); owner != "" {
		forums, err := h.forum.ListByOwner(r.Context(), owner)
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]any{"forums": forums})
		return
	}

	publicOnly := q.Get("public") != "false"
	if publicOnly {
		// hot path for the discovery page, cache-aside with a short TTL
		var forums []domain.Forum
		err := cache.CacheAside(r.Context(), publicForumsCacheKey, &forums, h.cfg.Public.CacheTTL, func() error {
			var fetchErr error
			forums, fetchErr = h.forum.List(r.Context(), true)
			return fetchErr
		})
		if err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]any{"forums": forums})
		return
	}

	forums, err := h.forum.List(r.Context(), false)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"forums": forums})
}

func (h *Handler) GetForum(w http.ResponseWriter, r *http.Request) {
	forum, err := h.forum.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, forum)
}

func (h *Handler) CheckSlug(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		utils.WriteErrorAndStatusCode(w, internal_errors.New("slug query parameter is required", http.StatusBadRequest))
		return
	}
	available, err := h.forum.IsSlugAvailable(r.Context(), slug)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *Handler) UpdateForum(w http.ResponseWriter, r *http.Request) {
	forumId := mux.Vars(r)["id"]
	if h.requireRole(w, r, forumId, domain.RoleOwner, domain.RoleAdmin) == nil {
		return
	}
	var body updateForumRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	forum, err := h.forum.Update(r.Context(), forumId, service.UpdateForumParams{
		Name:        body.Name,
		Description: body.Description,
		Icon:        body.Icon,
		IsPublic:    body.IsPublic,
		Settings:    body.Settings,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	cache.Invalidate(r.Context(), publicForumsCacheKey)
	utils.WriteJSON(w, http.StatusOK, forum)
}

func (h *Handler) DeleteForum(w http.ResponseWriter, r *http.Request) {
	forumId := mux.Vars(r)["id"]
	if h.requireRole(w, r, forumId, domain.RoleOwner) == nil {
		return
	}
	if err := h.forum.Delete(r.Context(), forumId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	cache.Invalidate(r.Context(), publicForumsCacheKey)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) JoinForum(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	member, err := h.forum.Join(r.Context(), mux.Vars(r)["id"], user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	cache.Invalidate(r.Context(), publicForumsCacheKey)
	utils.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) LeaveForum(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	if err := h.forum.Leave(r.Context(), mux.Vars(r)["id"], user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	cache.Invalidate(r.Context(), publicForumsCacheKey)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.forum.Members(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if h.requireRole(w, r, vars["id"], domain.RoleOwner, domain.RoleAdmin) == nil {
		return
	}
	var body struct {
		Role domain.MemberRole `json:"role" validate:"required"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	member, err := h.forum.UpdateMemberRole(r.Context(), vars["id"], vars["userId"], body.Role)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if h.requireRole(w, r, vars["id"], domain.RoleOwner, domain.RoleAdmin, domain.RoleModerator) == nil {
		return
	}
	if err := h.forum.RemoveMember(r.Context(), vars["id"], vars["userId"]); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	cache.Invalidate(r.Context(), publicForumsCacheKey)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Memberships(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	forums, memberships, err := h.forum.Memberships(r.Context(), user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"forums":      forums,
		"memberships": memberships,
	})
}

type submitPendingRequest struct {
	ThreadId string `json:"threadId,omitempty"`
	Type     string `json:"type" validate:"required,oneof=thread reply"`
	Title    string `json:"title,omitempty"`
	Body     string `json:"body" validate:"required"`
}

// SubmitPending queues a post for moderation in forums that require
// approval. The post reaches the upstream API only after approval.
func (h *Handler) SubmitPending(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	var body submitPendingRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := h.forum.AddPendingPost(r.Context(), service.AddPendingPostParams{
		ForumId:    mux.Vars(r)["id"],
		ThreadId:   body.ThreadId,
		Type:       domain.PendingPostType(body.Type),
		Title:      body.Title,
		Body:       body.Body,
		AuthorId:   user.Id,
		AuthorName: user.Username,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, post)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	forumId := mux.Vars(r)["id"]
	if h.requireRole(w, r, forumId, domain.RoleOwner, domain.RoleAdmin, domain.RoleModerator) == nil {
		return
	}
	posts, err := h.forum.PendingPosts(r.Context(), forumId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"pendingPosts": posts})
}

func (h *Handler) reviewPending(w http.ResponseWriter, r *http.Request, approve bool) {
	vars := mux.Vars(r)
	user := h.requireRole(w, r, vars["id"], domain.RoleOwner, domain.RoleAdmin, domain.RoleModerator)
	if user == nil {
		return
	}

	var post *domain.PendingPost
	var err error
	if approve {
		post, err = h.forum.ApprovePendingPost(r.Context(), vars["postId"], user.Id)
	} else {
		post, err = h.forum.RejectPendingPost(r.Context(), vars["postId"], user.Id)
	}
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) ApprovePending(w http.ResponseWriter, r *http.Request) {
	h.reviewPending(w, r, true)
}

func (h *Handler) RejectPending(w http.ResponseWriter, r *http.Request) {
	h.reviewPending(w, r, false)
}
