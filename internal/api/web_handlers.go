package api

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/boatyard/boatyard-server/internal/errors"
	"github.com/boatyard/boatyard-server/internal/http/response"
	"github.com/boatyard/boatyard-server/internal/service"
)

// loginCookie carries the sealed login session id between /mid and /oauth.
const loginCookie = "boatyard_login"

//go:embed templates/*.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// indexPageData contains data for the welcome page template.
type indexPageData struct {
	ServerURL string
}

func (s *Server) registerWebRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Group(func(r chi.Router) {
		if s.opts.LoginLimiter != nil {
			r.Use(RateLimitMiddleware(s.opts.LoginLimiter, s.logger))
		}
		r.Get("/mid", s.handleLoginStart)
		r.Get("/oauth", s.handleLoginCallback)
	})
}

// handleIndex serves the welcome page.
// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexPageData{ServerURL: baseURL(r.Context())}); err != nil {
		s.logger.Error("Failed to execute index template", "error", err)
	}
}

// handleLoginStart opens a login session and sends the browser to Google.
// GET /mid
func (s *Server) handleLoginStart(w http.ResponseWriter, r *http.Request) {
	start, err := s.services.Login.Begin(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	ttl := s.services.Login.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     loginCookie,
		Value:    start.Cookie,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, start.RedirectURL, http.StatusFound)
}

// handleLoginCallback finishes the login and shows the caller's identity.
// GET /oauth
func (s *Server) handleLoginCallback(w http.ResponseWriter, r *http.Request) {
	var sealed string
	if c, err := r.Cookie(loginCookie); err == nil {
		sealed = c.Value
	}

	// The session is single use, so the cookie is spent either way.
	http.SetCookie(w, &http.Cookie{
		Name:     loginCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.logger.Info("Login declined at provider", "error", e)
	}

	res, err := s.services.Login.Complete(r.Context(), sealed, q.Get("state"), q.Get("code"))
	if err != nil {
		s.writeLoginError(w, err)
		return
	}

	s.logger.Info("Login completed", "sub", res.Sub, "created", res.Created)
	response.Text(w, http.StatusOK, loginMessage(res))
}

// writeLoginError answers the callback in plain text, as the success page is.
func (s *Server) writeLoginError(w http.ResponseWriter, err error) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		s.logger.Error("Login failed", "error", err)
		response.Text(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if domainErr.HTTPStatus() >= http.StatusInternalServerError {
		s.logger.Error("Login failed", "error", err)
	}
	response.Text(w, domainErr.HTTPStatus(), domainErr.Message)
}

func loginMessage(res *service.LoginResult) string {
	verb := "ALREADY"
	if res.Created {
		verb = "CREATED"
	}
	return "User " + verb + " in datastore!" +
		" | Name: " + res.Name +
		" | Sub/Unique ID: " + res.Sub +
		" | Generated JWT: " + res.IDToken
}
