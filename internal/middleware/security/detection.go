// Package security sets response security headers and turns away requests
// that are plainly probing for files this application never serves.
package security

import (
	"net/http"
	"strings"

	"bankroll/internal/log"
)

var probePatterns = []string{
	"../", "..\\", "/.env", "/.git", "/.ssh",
	"wp-admin", "wp-login", "phpmyadmin", ".php",
	"etc/passwd", "cmd.exe", "<script", "union select",
}

var scannerAgents = []string{"sqlmap", "nikto", "nmap", "gobuster", "dirb", "masscan"}

const maxURLLength = 2048

// Suspicious reports why r looks like a probe, or "" when it does not.
func Suspicious(r *http.Request) string {
	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", http.MethodConnect:
		return "method"
	}
	if len(r.URL.String()) > maxURLLength {
		return "url_length"
	}

	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, p := range probePatterns {
		if strings.Contains(target, p) {
			return "path"
		}
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return "user_agent"
		}
	}
	return ""
}

// Screen answers probes with 404 and logs them; other requests pass through.
func Screen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := Suspicious(r); reason != "" {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request rejected",
				"reason", reason,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, r.RemoteAddr,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
