package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type baseURLKey struct{}

// baseURLMiddleware records the external base URL for link building.
func (s *Server) baseURLMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := s.opts.PublicURL
		if base == "" {
			base = getServerURL(r)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), baseURLKey{}, base)))
	})
}

// getServerURL extracts the server URL from the request.
func getServerURL(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil {
		// Check for X-Forwarded-Proto header (common with reverse proxies)
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		} else {
			scheme = "http"
		}
	}

	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}

	return scheme + "://" + host
}

func baseURL(ctx context.Context) string {
	base, _ := ctx.Value(baseURLKey{}).(string)
	return base
}

// selfLink is the canonical URL of one resource, e.g. http://host/boats/12.
func selfLink(ctx context.Context, collection string, id int64) string {
	return baseURL(ctx) + "/" + collection + "/" + strconv.FormatInt(id, 10)
}

// nextLink is the URL of the following page, or "" on the last page.
func nextLink(ctx context.Context, collection, cursor string) string {
	if cursor == "" {
		return ""
	}
	return baseURL(ctx) + "/" + collection + "?cursor=" + url.QueryEscape(cursor)
}

// parseID reads a numeric path id. Anything else names no resource.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
