package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/reaxo-dev/reaxo/internal/cache"
	"github.com/reaxo-dev/reaxo/internal/content"
	"github.com/reaxo-dev/reaxo/internal/domain"
	"github.com/reaxo-dev/reaxo/internal/forums"
	"github.com/reaxo-dev/reaxo/internal/logger"
	"github.com/reaxo-dev/reaxo/internal/service"
	"github.com/reaxo-dev/reaxo/internal/utils"
)

type createThreadRequest struct {
	Title       string   `json:"title" validate:"required"`
	Body        string   `json:"body" validate:"required"`
	RichContent string   `json:"richContent,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ForumId     string   `json:"forumId,omitempty"`
}

type updateThreadRequest struct {
	Title       string `json:"title,omitempty"`
	Body        string `json:"body,omitempty"`
	RichContent string `json:"richContent,omitempty"`
}

type threadListResponse struct {
	Threads []domain.Thread         `json:"threads"`
	Forums  map[string]domain.Forum `json:"forums,omitempty"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"hasMore"`
}

type threadResponse struct {
	Thread     *domain.Thread      `json:"thread"`
	Forum      *domain.Forum       `json:"forum,omitempty"`
	Replies    []*domain.ReplyNode `json:"replies"`
	ReplyCount int                 `json:"replyCount"`
}

// ListThreads proxies the upstream feed, hides system-authored threads
// and joins forum metadata from the aside store for threads that carry
// a forum link.
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, err := h.client(r).ListThreads(r.Context(), forums.ListThreadsParams{
		Limit:  limit,
		Filter: q.Get("filter"),
		TagId:  q.Get("tagId"),
		Cursor: q.Get("cursor"),
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	forumFilter := q.Get("forumId")
	threads := make([]domain.Thread, 0, len(page.Threads))
	for _, t := range page.Threads {
		if t.UserId == h.cfg.Public.AI.SystemUserID {
			continue
		}
		if forumFilter != "" && t.ForumId() != forumFilter {
			continue
		}
		threads = append(threads, t)
	}

	utils.WriteJSON(w, http.StatusOK, threadListResponse{
		Threads: threads,
		Forums:  h.forumsForThreads(r, threads),
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

// forumsForThreads resolves the distinct forums referenced by the given
// threads. A dangling forumId is skipped, not an error.
func (h *Handler) forumsForThreads(r *http.Request, threads []domain.Thread) map[string]domain.Forum {
	result := map[string]domain.Forum{}
	for _, t := range threads {
		id := t.ForumId()
		if id == "" {
			continue
		}
		if _, done := result[id]; done {
			continue
		}
		forum, err := h.forum.Get(r.Context(), id)
		if err != nil {
			logger.Log.Debug("thread references unknown forum", "thread", t.Id, "forum", id)
			continue
		}
		result[id] = *forum
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	var body createThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	rich := body.RichContent
	if rich == "" {
		rich = body.Body
	}
	rich = content.Sanitize(rich)

	extended := domain.ExtendedData{
		"richContent":    rich,
		"authorUsername": user.Username,
	}
	if body.ForumId != "" {
		// linked forum must exist before the thread is created upstream
		if _, err := h.forum.Get(r.Context(), body.ForumId); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
		extended["forumId"] = body.ForumId
	}

	thread, err := h.client(r).CreateThread(r.Context(), forums.CreateThreadParams{
		Title:        body.Title,
		Body:         content.PadBody(content.StripWithPlaceholders(rich)),
		UserId:       user.Id,
		Tags:         body.Tags,
		ExtendedData: extended,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if body.ForumId != "" {
		if err := h.forum.AdjustThreadCount(r.Context(), body.ForumId, 1); err != nil {
			logger.Log.Error("thread count bump failed", "forum", body.ForumId, "err", err)
		}
		cache.Invalidate(r.Context(), publicForumsCacheKey)
	}
	cache.Invalidate(r.Context(), statsCacheKey)

	utils.WriteJSON(w, http.StatusCreated, thread)
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	thread, err := h.client(r).GetThread(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	posts, err := h.client(r).GetThreadPosts(r.Context(), id, "oldest")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	replies := service.BuildReplyTree(posts)

	resp := threadResponse{
		Thread:     thread,
		Replies:    replies,
		ReplyCount: service.CountReplies(replies, service.MaxRenderDepth),
	}
	if forumId := thread.ForumId(); forumId != "" {
		if forum, err := h.forum.Get(r.Context(), forumId); err == nil {
			resp.Forum = forum
		}
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	var body updateThreadRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	// A plain body that smuggles markup takes the rich pipeline so it
	// gets sanitized and stored the same way.
	if body.RichContent == "" && content.HasRichMarkup(body.Body) {
		body.RichContent = body.Body
	}

	params := forums.UpdateThreadParams{Title: body.Title, UserId: user.Id}
	if body.RichContent != "" {
		rich := content.Sanitize(body.RichContent)
		params.Body = content.PadBody(content.StripWithPlaceholders(rich))
		params.ExtendedData = domain.ExtendedData{"richContent": rich}
	} else if body.Body != "" {
		params.Body = content.PadBody(body.Body)
	}

	thread, err := h.client(r).UpdateThread(r.Context(), mux.Vars(r)["id"], params)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, thread)
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	id := mux.Vars(r)["id"]

	// resolve forum linkage before the thread disappears
	forumId := ""
	if thread, err := h.client(r).GetThread(r.Context(), id); err == nil {
		forumId = thread.ForumId()
	}

	if err := h.client(r).DeleteThread(r.Context(), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if forumId != "" {
		if err := h.forum.AdjustThreadCount(r.Context(), forumId, -1); err != nil {
			logger.Log.Error("thread count decrement failed", "forum", forumId, "err", err)
		}
		cache.Invalidate(r.Context(), publicForumsCacheKey)
	}
	cache.Invalidate(r.Context(), statsCacheKey)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) LikeThread(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	if err := h.client(r).LikeThread(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UnlikeThread(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	if err := h.client(r).UnlikeThread(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
