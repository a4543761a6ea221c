package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/reaxo-dev/reaxo/internal/domain"
	"github.com/reaxo-dev/reaxo/internal/forums"
	"github.com/reaxo-dev/reaxo/internal/service"
	"github.com/reaxo-dev/reaxo/internal/utils"
)

type forumPageResponse struct {
	Forum   *domain.Forum   `json:"forum"`
	Threads []domain.Thread `json:"threads"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"hasMore"`
}

type forumThreadPageResponse struct {
	Forum      *domain.Forum       `json:"forum"`
	Thread     *domain.Thread      `json:"thread"`
	Replies    []*domain.ReplyNode `json:"replies"`
	ReplyCount int                 `json:"replyCount"`
}

// ForumPage serves the data behind a forum's front page; it is the
// target of the subdomain rewrite as well as direct /f/{slug} visits.
func (h *Handler) ForumPage(w http.ResponseWriter, r *http.Request) {
	forum, err := h.forum.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	page, err := h.client(r).ListThreads(r.Context(), forums.ListThreadsParams{
		Filter: r.URL.Query().Get("filter"),
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	threads := make([]domain.Thread, 0, len(page.Threads))
	for _, t := range page.Threads {
		if t.ForumId() != forum.Id {
			continue
		}
		if t.UserId == h.cfg.Public.AI.SystemUserID {
			continue
		}
		threads = append(threads, t)
	}

	utils.WriteJSON(w, http.StatusOK, forumPageResponse{
		Forum:   forum,
		Threads: threads,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

// ForumThreadPage serves a single thread scoped to its forum, with the
// nested reply tree attached.
func (h *Handler) ForumThreadPage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	forum, err := h.forum.GetBySlug(r.Context(), vars["slug"])
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thread, err := h.client(r).GetThread(r.Context(), vars["threadId"])
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	posts, err := h.client(r).GetThreadPosts(r.Context(), thread.Id, "oldest")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	replies := service.BuildReplyTree(posts)
	utils.WriteJSON(w, http.StatusOK, forumThreadPageResponse{
		Forum:      forum,
		Thread:     thread,
		Replies:    replies,
		ReplyCount: service.CountReplies(replies, service.MaxRenderDepth),
	})
}
