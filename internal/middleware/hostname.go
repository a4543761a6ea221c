package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/reaxo-dev/reaxo/internal/logger"
)

// subdomain labels that belong to the platform itself, never to a forum
var platformSubdomains = map[string]struct{}{
	"www": {}, "app": {}, "v0": {},
}

const maxSubdomainLen = 20

// Hostname rewrites forum subdomains onto their path form, so
// tech.example.com/threads/5 is served as /f/tech/threads/5 by the same
// router. Requests to the main domain, platform subdomains and preview
// deployments pass through untouched.
func Hostname(mainDomain string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := forumSubdomain(r.Host, mainDomain)
			if sub == "" || skipRewrite(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			rewritten := "/f/" + sub
			if r.URL.Path != "/" {
				rewritten += r.URL.Path
			}
			logger.Log.Debug("hostname rewrite", "host", r.Host, "from", r.URL.Path, "to", rewritten)
			r.URL.Path = rewritten
			next.ServeHTTP(w, r)
		})
	}
}

// forumSubdomain returns the forum slug encoded in the host, or "" when
// the host does not address a forum.
func forumSubdomain(host, mainDomain string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	// hosting previews get the path-based routing, never subdomains
	if strings.HasSuffix(host, ".vercel.app") || strings.HasSuffix(host, ".v0.dev") {
		return ""
	}

	sub, found := strings.CutSuffix(host, "."+mainDomain)
	if !found || sub == "" {
		return ""
	}
	if strings.Contains(sub, ".") { // nested subdomain
		return ""
	}
	if _, platform := platformSubdomains[sub]; platform {
		return ""
	}
	if strings.HasPrefix(sub, "preview-") || len(sub) > maxSubdomainLen {
		return ""
	}
	return sub
}

// skipRewrite keeps API and already-scoped paths stable regardless of
// the host they arrive on.
func skipRewrite(path string) bool {
	return strings.HasPrefix(path, "/f/") ||
		strings.HasPrefix(path, "/api/") ||
		path == "/metrics" || path == "/healthcheck"
}
