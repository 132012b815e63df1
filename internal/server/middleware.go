package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"urdf/internal"
	"urdf/internal/auth"
	"urdf/pkg/types"

	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const (
	contextKeyIdentity contextKey = "identity"
	contextKeyIsAdmin  contextKey = "is_admin"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// accessToken returns the decrypted access token cookie, if any.
func (s *Service) accessToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err != nil {
		return "", false
	}

	var token string
	if err := s.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &token); err != nil {
		s.logger.WithError(err).Debug("failed to decrypt access token")
		return "", false
	}

	return token, token != ""
}

// OptionalAuth attaches the caller identity to the context when a valid
// session exists. It never rejects a request.
func (s *Service) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := s.accessToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			s.logger.WithError(err).Debug("ignoring unverifiable session")
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyIdentity, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth redirects to the admin login page unless the request carries a
// verified session.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFromContext(r.Context()).Authenticated() {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := s.accessToken(r)
		if !ok {
			s.setRedirectCookie(w, r.URL.Path, time.Minute*5)
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		identity, err := s.verifier.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				s.logger.WithError(err).Info("rejected access token")
				s.clearAccessCookie(w)
				s.setRedirectCookie(w, r.URL.Path, time.Minute*5)
				http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
				return
			}

			s.logger.WithError(err).Error("failed to verify access token")
			s.serviceUnavailable(w, r)
			return
		}

		s.logger.WithField("user_id", identity.UserID).Debug("authenticated user")

		ctx := context.WithValue(r.Context(), contextKeyIdentity, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromContext(r.Context())

		ctx, cancel := s.storeContext(r.Context())
		isAdmin, err := s.manager.HasRole(ctx, identity, types.RoleAdmin)
		cancel()
		if err != nil {
			s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to check admin role")
			s.serviceUnavailable(w, r)
			return
		}

		if !isAdmin {
			s.logger.WithField("user_id", identity.UserID).Warn("non-admin attempted to access admin area")
			s.forbidden(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyIsAdmin, true)))
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func identityFromContext(ctx context.Context) types.Identity {
	identity, _ := ctx.Value(contextKeyIdentity).(types.Identity)
	return identity
}
