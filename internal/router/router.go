package router

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/reaxo-dev/reaxo/internal/middleware"
	"github.com/reaxo-dev/reaxo/internal/middleware/metrics"
	"github.com/reaxo-dev/reaxo/internal/setup"
)

// New creates and configures the router with all the routes. The returned
// handler is the mux router wrapped in the hostname rewrite: mux only runs
// middleware after matching a route, so the rewrite has to happen before
// the router ever sees the path.
func New(deps *setup.Dependencies) http.Handler {
	r := mux.NewRouter()

	// Enable gzip compression for all responses
	r.Use(handlers.CompressHandler)

	// setup CORS for browser clients
	r.Use(handlers.CORS(
		handlers.AllowedOrigins(deps.Config.Public.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	))

	// JSON API only, no scripts/styles needed
	csp := "default-src 'none'; frame-ancestors 'none'"
	r.Use(mw.SecurityHeadersWithCSP(deps.Config.Public.SecureCookies, csp))

	r.Use(metrics.Middleware)

	// Add a wildcard OPTIONS handler to avoid 404s for preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthcheck", h.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMw.OptionalAuth())

	// Auth routes
	api.HandleFunc("/auth/login", h.Login).Methods("POST")
	api.HandleFunc("/auth/register", h.Register).Methods("POST")
	api.HandleFunc("/auth/logout", h.Logout).Methods("POST")

	// Thread routes
	api.HandleFunc("/threads", h.ListThreads).Methods("GET")
	api.HandleFunc("/threads/{id}", h.GetThread).Methods("GET")

	// Forum discovery
	api.HandleFunc("/forums", h.ListForums).Methods("GET")
	api.HandleFunc("/forums/check-slug", h.CheckSlug).Methods("GET")
	api.HandleFunc("/forums/{id}", h.GetForum).Methods("GET")
	api.HandleFunc("/forums/{id}/members", h.ListMembers).Methods("GET")

	// Misc proxies
	api.HandleFunc("/tags", h.ListTags).Methods("GET")
	api.HandleFunc("/search", h.Search).Methods("GET")
	api.HandleFunc("/stats", h.Stats).Methods("GET")
	api.HandleFunc("/top-contributors", h.TopContributors).Methods("GET")
	api.HandleFunc("/users", h.ListUsers).Methods("GET")
	api.HandleFunc("/users/{username}", h.GetUser).Methods("GET")
	api.HandleFunc("/posts/{id}", h.GetPost).Methods("GET")

	// Logged-in routes
	loggedIn := api.NewRoute().Subrouter()
	loggedIn.Use(authMw.NeedAuth())

	loggedIn.HandleFunc("/auth/me", h.Me).Methods("GET")

	loggedIn.HandleFunc("/threads", h.CreateThread).Methods("POST")
	loggedIn.HandleFunc("/threads/{id}", h.UpdateThread).Methods("PATCH")
	loggedIn.HandleFunc("/threads/{id}", h.DeleteThread).Methods("DELETE")
	loggedIn.HandleFunc("/threads/{id}/replies", h.CreateReply).Methods("POST")
	loggedIn.HandleFunc("/threads/{id}/like", h.LikeThread).Methods("POST")
	loggedIn.HandleFunc("/threads/{id}/like", h.UnlikeThread).Methods("DELETE")

	loggedIn.HandleFunc("/posts/{id}", h.UpdatePost).Methods("PATCH")
	loggedIn.HandleFunc("/posts/{id}", h.DeletePost).Methods("DELETE")
	loggedIn.HandleFunc("/posts/{id}/like", h.LikePost).Methods("POST")
	loggedIn.HandleFunc("/posts/{id}/like", h.UnlikePost).Methods("DELETE")

	loggedIn.HandleFunc("/ai/respond", h.AIRespond).Methods("POST")
	loggedIn.HandleFunc("/ai/image", h.AIImage).Methods("POST")
	loggedIn.HandleFunc("/ai/trigger", h.AITrigger).Methods("POST")

	loggedIn.HandleFunc("/tags", h.CreateTag).Methods("POST")

	loggedIn.HandleFunc("/forums", h.CreateForum).Methods("POST")
	loggedIn.HandleFunc("/forums/{id}", h.UpdateForum).Methods("PATCH")
	loggedIn.HandleFunc("/forums/{id}", h.DeleteForum).Methods("DELETE")
	loggedIn.HandleFunc("/forums/{id}/join", h.JoinForum).Methods("POST")
	loggedIn.HandleFunc("/forums/{id}/leave", h.LeaveForum).Methods("POST")
	loggedIn.HandleFunc("/forums/{id}/members/{userId}", h.UpdateMemberRole).Methods("PATCH")
	loggedIn.HandleFunc("/forums/{id}/members/{userId}", h.RemoveMember).Methods("DELETE")
	loggedIn.HandleFunc("/memberships", h.Memberships).Methods("GET")

	loggedIn.HandleFunc("/forums/{id}/pending", h.SubmitPending).Methods("POST")
	loggedIn.HandleFunc("/forums/{id}/pending", h.ListPending).Methods("GET")
	loggedIn.HandleFunc("/forums/{id}/pending/{postId}/approve", h.ApprovePending).Methods("POST")
	loggedIn.HandleFunc("/forums/{id}/pending/{postId}/reject", h.RejectPending).Methods("POST")

	// Forum page data, the target of the hostname rewrite
	pages := r.PathPrefix("/f").Subrouter()
	pages.Use(authMw.OptionalAuth())
	pages.HandleFunc("/{slug}", h.ForumPage).Methods("GET")
	pages.HandleFunc("/{slug}/thread/{threadId}", h.ForumThreadPage).Methods("GET")

	return mw.Hostname(deps.Config.Public.Domain)(r)
}
