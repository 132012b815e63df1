package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"urdf/internal"
	"urdf/internal/auth"
	"urdf/pkg/types"
)

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	if identityFromContext(r.Context()).Authenticated() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Admin Login"},
	}

	if r.URL.Query().Get("confirmed") == "true" {
		data.Message = "Account confirmed. An administrator must grant you access before you can sign in."
	}

	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Admin Login"},
		Email:        email,
	}

	renderLogin := func(status int, msg string) {
		data.Error = msg
		if err := s.renderTemplateStatus(w, r, status, "page.login", data); err != nil {
			s.logger.WithError(err).Error("failed to render login page with error")
			s.internalServerError(w, r)
		}
	}

	if email == "" || password == "" {
		renderLogin(http.StatusBadRequest, "Email and password are required.")
		return
	}

	session, err := s.auth.SignIn(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			renderLogin(http.StatusUnauthorized, "Invalid email or password.")
		case errors.Is(err, auth.ErrUserNotConfirmed):
			renderLogin(http.StatusUnauthorized, "Please confirm your account before signing in.")
		default:
			s.logger.WithError(err).Error("failed to sign in")
			renderLogin(http.StatusServiceUnavailable, "Unable to sign in right now. Please try again.")
		}
		return
	}

	identity, err := s.verifier.Verify(r.Context(), session.AccessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to verify freshly issued access token")
		renderLogin(http.StatusServiceUnavailable, "Unable to sign in right now. Please try again.")
		return
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	isAdmin, err := s.manager.HasRole(ctx, identity, types.RoleAdmin)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to check admin role at login")
		renderLogin(http.StatusServiceUnavailable, "Unable to sign in right now. Please try again.")
		return
	}

	if !isAdmin {
		s.logger.WithField("user_id", identity.UserID).Warn("login by account without admin role")
		renderLogin(http.StatusForbidden, "Access denied. Admin privileges required.")
		return
	}

	encryptedToken, err := s.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, session.AccessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.internalServerError(w, r)
		return
	}

	maxAge := session.ExpiresIn
	if maxAge <= 0 || maxAge > s.config.SessionMaxAgeSec {
		maxAge = s.config.SessionMaxAgeSec
	}

	// Set httpOnly, secure cookie with access token
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Path:     "/",
	})

	s.logger.WithField("user_id", identity.UserID).Info("admin logged in")

	// Check to see if this login attempt was the result of an unauthed redirect
	redirectCookie, err := r.Cookie(internal.COOKIE_REDIRECT_NAME)
	if err == nil && strings.HasPrefix(redirectCookie.Value, "/admin") {
		s.clearRedirectCookie(w)
		http.Redirect(w, r, redirectCookie.Value, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAccessCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (s *Service) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Service) setRedirectCookie(w http.ResponseWriter, path string, age time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    path,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(age.Seconds()),
	})
}

func (s *Service) clearRedirectCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
