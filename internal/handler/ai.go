package handler

import (
	"net/http"

	"github.com/reaxo-dev/reaxo/internal/middleware/metrics"
	"github.com/reaxo-dev/reaxo/internal/service"
	"github.com/reaxo-dev/reaxo/internal/utils"
)

type aiRequest struct {
	ThreadId     string `json:"threadId" validate:"required"`
	ThreadTitle  string `json:"threadTitle,omitempty"`
	ThreadBody   string `json:"threadBody,omitempty"`
	ReplyContent string `json:"replyContent" validate:"required"`
	ParentPostId string `json:"parentPostId,omitempty"`
}

type aiResponse struct {
	Success        bool   `json:"success"`
	Triggered      bool   `json:"triggered"`
	Reply          any    `json:"reply,omitempty"`
	AIResponse     string `json:"aiResponse,omitempty"`
	GeneratedImage string `json:"generatedImage,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (h *Handler) decodeAIRequest(w http.ResponseWriter, r *http.Request) (service.RespondRequest, bool) {
	user := requireUser(w, r)
	if user == nil {
		return service.RespondRequest{}, false
	}
	var body aiRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return service.RespondRequest{}, false
	}
	return service.RespondRequest{
		ThreadId:     body.ThreadId,
		ThreadTitle:  body.ThreadTitle,
		ThreadBody:   body.ThreadBody,
		ReplyContent: body.ReplyContent,
		MentionedBy:  user.Username,
		ParentPostId: body.ParentPostId,
	}, true
}

// AIRespond generates a chat reply regardless of mention markers; the
// caller has already decided a reply is wanted.
func (h *Handler) AIRespond(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAIRequest(w, r)
	if !ok {
		return
	}
	result, err := h.responder.Respond(r.Context(), req)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	metrics.ObserveAIReply("chat", result.Success)
	writeAIResult(w, result, true)
}

// AIImage generates an image reply.
func (h *Handler) AIImage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAIRequest(w, r)
	if !ok {
		return
	}
	result, err := h.responder.GenerateImage(r.Context(), req)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	metrics.ObserveAIReply("image", result.Success)
	writeAIResult(w, result, true)
}

// AITrigger inspects the reply content and dispatches to chat or image
// generation, image winning when both markers are present. No mention is
// a successful no-op.
func (h *Handler) AITrigger(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAIRequest(w, r)
	if !ok {
		return
	}
	result, err := h.responder.Trigger(r.Context(), req)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if result == nil {
		utils.WriteJSON(w, http.StatusOK, aiResponse{Success: true, Triggered: false})
		return
	}
	kind := "chat"
	if result.GeneratedImage != "" || service.DetectMention(req.ReplyContent) == service.MentionImage {
		kind = "image"
	}
	metrics.ObserveAIReply(kind, result.Success)
	writeAIResult(w, result, true)
}

func writeAIResult(w http.ResponseWriter, result *service.RespondResult, triggered bool) {
	utils.WriteJSON(w, http.StatusOK, aiResponse{
		Success:        result.Success,
		Triggered:      triggered,
		Reply:          result.Reply,
		AIResponse:     result.AIResponse,
		GeneratedImage: result.GeneratedImage,
		Error:          result.FailureReason,
	})
}
