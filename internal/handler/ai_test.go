package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/reaxo-dev/reaxo/internal/domain"
	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
	"github.com/reaxo-dev/reaxo/internal/service"
)

func TestAIRespondHandler(t *testing.T) {
	h, _, responder := newTestHandler(t, nil)

	router := newTestRouter(func(r *mux.Router) {
		r.HandleFunc("/api/ai/respond", h.AIRespond).Methods("POST")
	})
	requestBody := []byte(`{"threadId": "t1", "replyContent": "hey @ai what do you think?"}`)

	t.Run("successful request", func(t *testing.T) {
		var captured service.RespondRequest
		responder.MockRespond = func(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error) {
			captured = req
			return &service.RespondResult{
				Success:    true,
				Reply:      &domain.Post{Id: "p9", ThreadId: req.ThreadId},
				AIResponse: "<p>thinking...</p>",
			}, nil
		}

		req := asUser(t, httptest.NewRequest(http.MethodPost, "/api/ai/respond", bytes.NewBuffer(requestBody)), "u1", "alice")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "t1", captured.ThreadId)
		assert.Equal(t, "alice", captured.MentionedBy)

		var resp aiResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, resp.Triggered)
		assert.Equal(t, "<p>thinking...</p>", resp.AIResponse)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/respond", bytes.NewBuffer(requestBody))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing reply content", func(t *testing.T) {
		req := asUser(t, httptest.NewRequest(http.MethodPost, "/api/ai/respond", bytes.NewBufferString(`{"threadId": "t1"}`)), "u1", "alice")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("reply already in flight", func(t *testing.T) {
		responder.MockRespond = func(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error) {
			return nil, internal_errors.New("An AI reply for this thread is already being generated", http.StatusConflict)
		}

		req := asUser(t, httptest.NewRequest(http.MethodPost, "/api/ai/respond", bytes.NewBuffer(requestBody)), "u1", "alice")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestAITriggerHandler(t *testing.T) {
	h, _, responder := newTestHandler(t, nil)

	router := newTestRouter(func(r *mux.Router) {
		r.HandleFunc("/api/ai/trigger", h.AITrigger).Methods("POST")
	})

	t.Run("no mention is a successful no-op", func(t *testing.T) {
		responder.MockTrigger = func(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error) {
			return nil, nil
		}

		body := bytes.NewBufferString(`{"threadId": "t1", "replyContent": "just a normal reply"}`)
		req := asUser(t, httptest.NewRequest(http.MethodPost, "/api/ai/trigger", body), "u1", "alice")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp aiResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.False(t, resp.Triggered)
		assert.Empty(t, resp.AIResponse)
	})

	t.Run("image mention triggers image reply", func(t *testing.T) {
		responder.MockTrigger = func(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error) {
			return &service.RespondResult{
				Success:        true,
				GeneratedImage: "https://img.example.com/1.png",
			}, nil
		}

		body := bytes.NewBufferString(`{"threadId": "t1", "replyContent": "@image a red bicycle"}`)
		req := asUser(t, httptest.NewRequest(http.MethodPost, "/api/ai/trigger", body), "u1", "alice")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp aiResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, resp.Triggered)
		assert.Equal(t, "https://img.example.com/1.png", resp.GeneratedImage)
	})

	t.Run("failed generation keeps the envelope", func(t *testing.T) {
		responder.MockTrigger = func(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error) {
			return &service.RespondResult{Success: false, FailureReason: "Failed to generate AI response"}, nil
		}

		body := bytes.NewBufferString(`{"threadId": "t1", "replyContent": "hey @ai"}`)
		req := asUser(t, httptest.NewRequest(http.MethodPost, "/api/ai/trigger", body), "u1", "alice")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp aiResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "Failed to generate AI response", resp.Error)
	})
}

func TestAIImageHandler(t *testing.T) {
	h, _, responder := newTestHandler(t, nil)

	router := newTestRouter(func(r *mux.Router) {
		r.HandleFunc("/api/ai/image", h.AIImage).Methods("POST")
	})

	var captured service.RespondRequest
	responder.MockGenerateImage = func(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error) {
		captured = req
		return &service.RespondResult{Success: true, GeneratedImage: "https://img.example.com/2.png"}, nil
	}

	body := bytes.NewBufferString(`{"threadId": "t1", "replyContent": "@image a calm lake", "parentPostId": "p3"}`)
	req := asUser(t, httptest.NewRequest(http.MethodPost, "/api/ai/image", body), "u2", "bob")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "p3", captured.ParentPostId)
	assert.Equal(t, "bob", captured.MentionedBy)

	var resp aiResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "https://img.example.com/2.png", resp.GeneratedImage)
}
