package server

import (
	"net/http"
	"time"

	"urdf/pkg/types"
)

type supportSetter interface {
	SetSupport(email string, now time.Time)
}

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	return s.renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func (s *Service) renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) error {
	identity := identityFromContext(r.Context())
	isAdmin, _ := r.Context().Value(contextKeyIsAdmin).(bool)

	if setter, ok := data.(types.NavbarDataSetter); ok {
		setter.SetNavbarData(types.NavbarData{
			IsAuthenticated: identity.Authenticated(),
			IsAdmin:         isAdmin,
			UserID:          identity.UserID,
			UserEmail:       identity.Email,
		})
	}

	if setter, ok := data.(supportSetter); ok {
		setter.SetSupport(s.config.SupportEmail, time.Now())
	}

	buf, err := renderToBuffer(s.templates, templateName, data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func (s *Service) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	data := &types.ErrorPageData{
		BasePageData: types.BasePageData{Title: heading},
		Heading:      heading,
		Message:      message,
	}

	if err := s.renderTemplateStatus(w, r, status, "page.error", data); err != nil {
		s.logger.WithError(err).Error("failed to render error page")
		http.Error(w, message, status)
	}
}

func (s *Service) internalServerError(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "Something went wrong on our side. Please try again in a few minutes.")
}

func (s *Service) serviceUnavailable(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusServiceUnavailable, "Something went wrong", "We could not reach our records right now. Please try again in a few minutes.")
}

func (s *Service) forbidden(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusForbidden, "Access denied", "You don't have admin privileges.")
}

func (s *Service) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "Page not found", "The page you are looking for does not exist.")
}
