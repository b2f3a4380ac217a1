package share

import (
	"net/http"
	"strings"
)

// PageURL returns the absolute URL of path as seen by the visitor.
// publicBase wins when configured; otherwise scheme and host come from the request.
func PageURL(r *http.Request, publicBase, path string) string {
	if publicBase != "" {
		return strings.TrimRight(publicBase, "/") + path
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host + path
}
