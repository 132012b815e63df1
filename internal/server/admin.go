package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"urdf/internal/lifecycle"
	"urdf/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	defaultAdminPageSize = 50
	documentLinkTTL      = 5 * time.Minute
	adminMessagesLimit   = 100

	// maxAdminPage keeps the list offset well inside the int64 range the
	// database accepts.
	maxAdminPage = 100000
)

func (s *Service) adminPageSize() uint64 {
	if s.config.AdminPageSize == 0 {
		return defaultAdminPageSize
	}
	return s.config.AdminPageSize
}

// adminFailure renders the response for a lifecycle error on an admin page.
func (s *Service) adminFailure(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, lifecycle.ErrDenied):
		s.forbidden(w, r)
	case errors.Is(err, types.ErrApplicationNotFound), errors.Is(err, types.ErrDocumentNotFound):
		s.handleNotFound(w, r)
	case errors.Is(err, lifecycle.ErrValidation):
		s.renderError(w, r, http.StatusBadRequest, "Invalid request", err.Error())
	default:
		s.logger.WithError(err).Error(msg)
		s.serviceUnavailable(w, r)
	}
}

func (s *Service) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > maxAdminPage {
		s.renderError(w, r, http.StatusBadRequest, "Invalid request", "Page number is out of range.")
		return
	}

	data := &types.AdminDashboardPageData{
		BasePageData: types.BasePageData{Title: "Applications"},
		Notice:       query.Get("notice"),
		Search:       strings.TrimSpace(query.Get("q")),
		StatusFilter: query.Get("status"),
		Page:         page,
	}

	var status types.ApplicationStatus
	if data.StatusFilter != "" {
		status, err = types.ParseApplicationStatus(data.StatusFilter)
		if err != nil {
			data.Error = "Unknown status filter."
			data.StatusFilter = ""
		}
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	counts, err := s.manager.StatusCounts(ctx, identity)
	if err != nil {
		s.adminFailure(w, r, err, "failed to count applications")
		return
	}

	pageSize := s.adminPageSize()
	apps, err := s.manager.ListApplications(ctx, identity, types.ApplicationListFilter{
		Search: data.Search,
		Status: status,
		Limit:  pageSize + 1,
		Offset: uint64(page-1) * pageSize,
	})
	if err != nil {
		s.adminFailure(w, r, err, "failed to list applications")
		return
	}

	if uint64(len(apps)) > pageSize {
		data.HasNext = true
		apps = apps[:pageSize]
	}
	data.HasPrev = page > 1
	data.PrevPage = page - 1
	data.NextPage = page + 1

	total := 0
	for _, n := range counts {
		total += n
	}
	data.Filters = append(data.Filters, types.AdminStatusFilter{
		Label:  "All",
		Count:  total,
		Active: data.StatusFilter == "",
	})
	for _, desc := range lifecycle.StatusDescriptions() {
		data.Filters = append(data.Filters, types.AdminStatusFilter{
			Value:  string(desc.Status),
			Label:  desc.Label,
			Count:  counts[desc.Status],
			Active: data.StatusFilter == string(desc.Status),
		})
	}

	for _, app := range apps {
		desc, err := lifecycle.DescribeStatus(app.Status)
		if err != nil {
			s.adminFailure(w, r, err, "failed to describe application status")
			return
		}

		data.Applications = append(data.Applications, types.AdminApplicationRow{
			ID:               app.ID,
			ReferenceNumber:  app.ReferenceNumber,
			OrganizationName: app.OrganizationName,
			ApplicantName:    app.ApplicantName,
			Email:            app.Email,
			Country:          app.Country,
			RequestedAmount:  formatMoney(app.RequestedAmount),
			Status:           statusCard(desc),
			CreatedAt:        app.CreatedAt,
		})
	}

	if err := s.renderTemplate(w, r, "page.admin", data); err != nil {
		s.logger.WithError(err).Error("failed to render admin dashboard")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handleGetAdminApplication(w http.ResponseWriter, r *http.Request) {
	data, err := s.adminApplicationData(r, r.PathValue("id"))
	if err != nil {
		s.adminFailure(w, r, err, "failed to load application")
		return
	}
	data.Notice = r.URL.Query().Get("notice")

	if err := s.renderTemplate(w, r, "page.admin.application", data); err != nil {
		s.logger.WithError(err).Error("failed to render admin application page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handlePostAdminApplication(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	applicationID := r.PathValue("id")

	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Info("failed to parse status update form")
		s.renderError(w, r, http.StatusBadRequest, "Invalid form", "We could not read the status update.")
		return
	}

	// Omitting the notes field keeps the current notes. Submitting it empty
	// clears them.
	var notes *string
	if _, ok := r.PostForm["admin_notes"]; ok {
		v := r.PostForm.Get("admin_notes")
		notes = &v
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	app, err := s.manager.Transition(ctx, identity, applicationID, types.ApplicationStatus(r.PostForm.Get("status")), notes)
	if err != nil {
		var verr *lifecycle.ValidationError
		if !errors.As(err, &verr) {
			s.adminFailure(w, r, err, "failed to update application status")
			return
		}

		data, lerr := s.adminApplicationData(r, applicationID)
		if lerr != nil {
			s.adminFailure(w, r, lerr, "failed to load application")
			return
		}
		data.Error = "Choose a valid status."
		if err := s.renderTemplateStatus(w, r, http.StatusBadRequest, "page.admin.application", data); err != nil {
			s.logger.WithError(err).Error("failed to render admin application page with errors")
			s.internalServerError(w, r)
		}
		return
	}

	s.logger.WithFields(logrus.Fields{
		"application_id": app.ID,
		"status":         app.Status,
	}).Debug("redirecting after status update")

	target := fmt.Sprintf("/admin/applications/%s?notice=%s", url.PathEscape(app.ID), url.QueryEscape("Application status updated successfully."))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Service) adminApplicationData(r *http.Request, applicationID string) (*types.AdminApplicationPageData, error) {
	identity := identityFromContext(r.Context())

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	app, err := s.manager.Application(ctx, identity, applicationID)
	if err != nil {
		return nil, err
	}

	docs, err := s.manager.Documents(ctx, identity, app.ID)
	if err != nil {
		return nil, err
	}

	desc, err := lifecycle.DescribeStatus(app.Status)
	if err != nil {
		return nil, err
	}

	data := &types.AdminApplicationPageData{
		BasePageData:   types.BasePageData{Title: app.ReferenceNumber},
		Application:    app,
		Status:         statusCard(desc),
		PayoutLabel:    app.PayoutMethod.Label(),
		MonthlyExpense: formatMoney(app.MonthlyExpenditure),
		Requested:      formatMoney(app.RequestedAmount),
		ProcessingFee:  formatMoney(app.ProcessingFee),
	}

	for _, d := range lifecycle.StatusDescriptions() {
		data.Statuses = append(data.Statuses, types.SelectOption{
			Value:    string(d.Status),
			Label:    d.Label,
			Selected: d.Status == app.Status,
		})
	}

	for _, doc := range docs {
		data.Documents = append(data.Documents, types.AdminDocumentRow{
			ID:         doc.ID,
			FileName:   doc.FileName,
			TypeLabel:  types.DocumentTypeLabel(doc.DocumentType),
			SizeBytes:  doc.FileSizeBytes,
			UploadedAt: doc.UploadedAt,
		})
	}

	return data, nil
}

// handleAdminDocument redirects to a short-lived download link.
func (s *Service) handleAdminDocument(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	doc, err := s.manager.Document(ctx, identity, r.PathValue("id"), r.PathValue("documentID"))
	if err != nil {
		s.adminFailure(w, r, err, "failed to load document")
		return
	}

	if s.storage == nil {
		s.logger.WithField("document_id", doc.ID).Error("document storage not configured")
		s.serviceUnavailable(w, r)
		return
	}

	link, err := s.storage.DownloadURL(ctx, doc.StorageKey, documentLinkTTL)
	if err != nil {
		s.logger.WithError(err).WithField("document_id", doc.ID).Error("failed to create document link")
		s.serviceUnavailable(w, r)
		return
	}

	http.Redirect(w, r, link, http.StatusFound)
}

func (s *Service) handleAdminMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	messages, err := s.forms.LatestContactMessages(ctx, adminMessagesLimit)
	if err != nil {
		s.logger.WithError(err).Error("failed to load contact messages")
		s.serviceUnavailable(w, r)
		return
	}

	inquiries, err := s.forms.LatestPartnershipInquiries(ctx, adminMessagesLimit)
	if err != nil {
		s.logger.WithError(err).Error("failed to load partnership inquiries")
		s.serviceUnavailable(w, r)
		return
	}

	data := &types.AdminMessagesPageData{
		BasePageData: types.BasePageData{Title: "Messages"},
		Messages:     messages,
		Inquiries:    inquiries,
	}

	if err := s.renderTemplate(w, r, "page.admin.messages", data); err != nil {
		s.logger.WithError(err).Error("failed to render admin messages page")
		s.internalServerError(w, r)
		return
	}
}
