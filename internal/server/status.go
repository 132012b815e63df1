package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"urdf/internal/lifecycle"
	"urdf/pkg/types"
)

type statusResponse struct {
	*types.PublicView
	Label   string `json:"label"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// lookupOutcome maps a lookup error to the HTTP status and the message shown
// to the applicant. Not-found is worded the same for every reference.
func lookupOutcome(err error) (int, string, string) {
	var verr *lifecycle.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "invalid_reference", "Please enter your reference number."
	case errors.Is(err, types.ErrApplicationNotFound):
		return http.StatusNotFound, "not_found", "No application found with that reference number. Please check and try again."
	default:
		return http.StatusServiceUnavailable, "unavailable", "We could not look up your application right now. Please try again in a few minutes."
	}
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	data := &types.StatusPageData{
		BasePageData: types.BasePageData{Title: "Check Application Status"},
		Reference:    reference,
	}

	if reference == "" {
		if err := s.renderTemplate(w, r, "page.status", data); err != nil {
			s.logger.WithError(err).Error("failed to render status page")
			s.internalServerError(w, r)
		}
		return
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	status := http.StatusOK
	view, err := s.manager.LookupByReference(ctx, reference)
	if err != nil {
		var code, msg string
		status, code, msg = lookupOutcome(err)
		if status == http.StatusServiceUnavailable {
			s.logger.WithError(err).Error("failed to look up application status")
		}
		data.NotFound = code == "not_found"
		data.Error = msg
	} else {
		desc, err := lifecycle.DescribeStatus(view.Status)
		if err != nil {
			s.logger.WithError(err).Error("failed to describe application status")
			s.serviceUnavailable(w, r)
			return
		}
		card := statusCard(desc)
		data.Result = view
		data.Status = &card
		data.Reference = view.ReferenceNumber
	}

	if err := s.renderTemplateStatus(w, r, status, "page.status", data); err != nil {
		s.logger.WithError(err).Error("failed to render status page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	view, err := s.manager.LookupByReference(ctx, r.URL.Query().Get("reference"))
	if err != nil {
		status, code, msg := lookupOutcome(err)
		if status == http.StatusServiceUnavailable {
			s.logger.WithError(err).Error("failed to look up application status")
		}
		s.writeJSON(w, status, errorResponse{Error: code, Message: msg})
		return
	}

	desc, err := lifecycle.DescribeStatus(view.Status)
	if err != nil {
		s.logger.WithError(err).Error("failed to describe application status")
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Message: "We could not look up your application right now."})
		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		PublicView: view,
		Label:      desc.Label,
		Message:    desc.Message,
	})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to write json response")
	}
}
