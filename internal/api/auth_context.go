package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boatyard/boatyard-server/internal/auth"
)

const msgInvalidToken = "invalid token..."

// bearerSecurity marks an operation as requiring a bearer token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// authMiddleware returns a middleware that verifies Bearer identity tokens and
// stores the subject in context. Requests without a valid token continue
// anonymously; operations that need a subject reject them in requireSubject.
func authMiddleware(verifier auth.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				logger.Debug("Rejected identity token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSubject(r.Context(), claims.Subject)))
		})
	}
}

// requireSubject is a huma operation middleware answering 401 before the
// request is parsed when no verified subject is present.
func (s *Server) requireSubject(ctx huma.Context, next func(huma.Context)) {
	if _, ok := auth.SubjectFromContext(ctx.Context()); !ok {
		_ = huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msgInvalidToken)
		return
	}
	next(ctx)
}

// subject returns the verified subject, or "" for anonymous requests.
func subject(ctx context.Context) string {
	sub, _ := auth.SubjectFromContext(ctx)
	return sub
}
