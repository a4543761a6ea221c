package handler

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/reaxo-dev/reaxo/internal/cache"
	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
	"github.com/reaxo-dev/reaxo/internal/forums"
	"github.com/reaxo-dev/reaxo/internal/utils"
)

const statsCacheKey = "stats"

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.client(r).ListTags(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	var body struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description,omitempty"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	tag, err := h.client(r).CreateTag(r.Context(), body.Name, body.Description)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, tag)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		utils.WriteErrorAndStatusCode(w, internal_errors.New("q query parameter is required", http.StatusBadRequest))
		return
	}
	result, err := h.client(r).Search(r.Context(), query)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// Stats proxies the upstream counters behind a short cache, since every
// page load asks for them.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var stats domain.Stats
	err := cache.CacheAside(r.Context(), statsCacheKey, &stats, h.cfg.Public.CacheTTL, func() error {
		fetched, fetchErr := h.client(r).GetStats(r.Context())
		if fetchErr != nil {
			return fetchErr
		}
		stats = *fetched
		return nil
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

const (
	topContributorsCacheKey = "top-contributors"
	topContributorsScan     = 100 // newest threads considered for the ranking
)

type contributor struct {
	UserId      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
	TotalLikes  int    `json:"totalLikes"`
	PostCount   int    `json:"postCount"`
}

// TopContributors ranks users by the likes their recent threads collected.
// Only a window of the newest threads feeds the ranking; it is a trending
// list, not an all-time leaderboard.
func (h *Handler) TopContributors(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 5
	}

	var ranked []contributor
	err := cache.CacheAside(r.Context(), topContributorsCacheKey, &ranked, h.cfg.Public.CacheTTL, func() error {
		page, fetchErr := h.client(r).ListThreads(r.Context(), forums.ListThreadsParams{
			Limit:  topContributorsScan,
			Filter: "newest",
		})
		if fetchErr != nil {
			return fetchErr
		}
		ranked = rankContributors(page.Threads, h.cfg.Public.AI.SystemUserID)
		return nil
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"data": ranked, "total": len(ranked)})
}

func rankContributors(threads []domain.Thread, systemUserId string) []contributor {
	byUser := make(map[string]*contributor)
	order := make([]string, 0, len(threads))
	for i := range threads {
		t := &threads[i]
		if t.UserId == "" || t.UserId == systemUserId {
			continue
		}
		c, seen := byUser[t.UserId]
		if !seen {
			username := t.ExtendedData.String("authorUsername")
			displayName := ""
			avatar := ""
			if t.Author != nil {
				if t.Author.Username != "" {
					username = t.Author.Username
				}
				displayName = t.Author.DisplayName
				avatar = t.Author.Avatar
			}
			if username == "" {
				username = "unknown"
			}
			if displayName == "" {
				displayName = username
			}
			c = &contributor{UserId: t.UserId, Username: username, DisplayName: displayName, Avatar: avatar}
			byUser[t.UserId] = c
			order = append(order, t.UserId)
		}
		c.TotalLikes += t.LikeCount
		c.PostCount++
	}

	ranked := make([]contributor, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, *byUser[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].TotalLikes > ranked[j].TotalLikes })
	return ranked
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := h.client(r).ListUsers(r.Context(), limit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.client(r).GetUser(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
