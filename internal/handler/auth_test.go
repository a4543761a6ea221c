package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/reaxo-dev/reaxo/internal/domain"
)

func TestLoginHandler(t *testing.T) {
	h, _, _ := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var creds struct {
				Login    string `json:"login"`
				Password string `json:"password"`
			}
			json.NewDecoder(r.Body).Decode(&creds)
			if creds.Password != "hunter2hunter2" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"token": "upstream-token"})
		case "/auth/me":
			assert.Equal(t, "Bearer upstream-token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(domain.User{Id: "u1", Username: "alice"})
		default:
			t.Errorf("unexpected upstream path: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	router := newTestRouter(func(r *mux.Router) {
		r.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	})

	t.Run("successful login sets the cookie", func(t *testing.T) {
		body := bytes.NewBufferString(`{"login": "alice", "password": "hunter2hunter2"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Token string       `json:"token"`
			User  *domain.User `json:"user"`
		}
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "upstream-token", resp.Token)
		if assert.NotNil(t, resp.User) {
			assert.Equal(t, "alice", resp.User.Username)
		}

		cookies := rr.Result().Cookies()
		if assert.Len(t, cookies, 1) {
			assert.Equal(t, "accessToken", cookies[0].Name)
			assert.Equal(t, "upstream-token", cookies[0].Value)
			assert.True(t, cookies[0].HttpOnly)
		}
	})

	t.Run("upstream rejection passes through", func(t *testing.T) {
		body := bytes.NewBufferString(`{"login": "alice", "password": "wrong-password"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid credentials")
	})

	t.Run("missing credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"login": "alice"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRegisterHandler(t *testing.T) {
	h, _, _ := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		json.NewEncoder(w).Encode(domain.User{Id: "u2", Username: "bob"})
	})

	router := newTestRouter(func(r *mux.Router) {
		r.HandleFunc("/api/auth/register", h.Register).Methods("POST")
	})

	t.Run("successful request", func(t *testing.T) {
		body := bytes.NewBufferString(`{"username": "bob", "email": "bob@example.com", "password": "hunter2hunter2"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("short password", func(t *testing.T) {
		body := bytes.NewBufferString(`{"username": "bob", "email": "bob@example.com", "password": "short"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad email", func(t *testing.T) {
		body := bytes.NewBufferString(`{"username": "bob", "email": "not-an-email", "password": "hunter2hunter2"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestMeHandler(t *testing.T) {
	h, _, _ := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/me", r.URL.Path)
		// the caller's own token is forwarded, not the system token
		auth := r.Header.Get("Authorization")
		assert.True(t, len(auth) > len("Bearer "))
		json.NewEncoder(w).Encode(domain.User{Id: "u1", Username: "alice"})
	})

	router := newTestRouter(func(r *mux.Router) {
		r.HandleFunc("/api/auth/me", h.Me).Methods("GET")
	})

	req := asUser(t, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), "u1", "alice")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"alice"`)
}

func TestLogoutHandler(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, "accessToken", cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	}
}
