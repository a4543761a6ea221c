package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/reaxo-dev/reaxo/internal/content"
	"github.com/reaxo-dev/reaxo/internal/domain"
	"github.com/reaxo-dev/reaxo/internal/forums"
	"github.com/reaxo-dev/reaxo/internal/utils"
)

type createReplyRequest struct {
	Body        string `json:"body" validate:"required"`
	RichContent string `json:"richContent,omitempty"`
	ParentId    string `json:"parentId,omitempty"`
}

type updatePostRequest struct {
	Body        string `json:"body,omitempty"`
	RichContent string `json:"richContent,omitempty"`
}

// CreateReply posts a reply into a thread. AI mentions are not acted on
// here: the reply always lands first, the client then asks for the AI
// reply in a separate call. Losing that second call loses only the AI
// reply, never the user's.
func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	var body createReplyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	rich := body.RichContent
	if rich == "" {
		rich = body.Body
	}
	rich = content.Sanitize(rich)

	post, err := h.client(r).CreatePost(r.Context(), forums.CreatePostParams{
		ThreadId: mux.Vars(r)["id"],
		Body:     content.PadBody(content.StripWithPlaceholders(rich)),
		UserId:   user.Id,
		ParentId: body.ParentId,
		ExtendedData: domain.ExtendedData{
			"richContent":    rich,
			"authorUsername": user.Username,
		},
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, post)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.client(r).GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	var body updatePostRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if body.RichContent == "" && content.HasRichMarkup(body.Body) {
		body.RichContent = body.Body
	}

	params := forums.UpdatePostParams{UserId: user.Id}
	if body.RichContent != "" {
		rich := content.Sanitize(body.RichContent)
		params.Body = content.PadBody(content.StripWithPlaceholders(rich))
		params.ExtendedData = domain.ExtendedData{"richContent": rich}
	} else if body.Body != "" {
		params.Body = content.PadBody(body.Body)
	}

	post, err := h.client(r).UpdatePost(r.Context(), mux.Vars(r)["id"], params)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	if err := h.client(r).DeletePost(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	if err := h.client(r).LikePost(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	if err := h.client(r).UnlikePost(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
