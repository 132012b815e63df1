package server

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"urdf/internal"
	"urdf/internal/lifecycle"
	"urdf/internal/storage"
	"urdf/internal/utils"
	"urdf/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	maxUploadBytes     = 32 << 20
	maxDocumentBytes   = 10 << 20
	maxProjectPhotos   = 5
	receiptCookieTTL   = 30 * time.Minute
	documentUploadTime = 2 * time.Minute
)

// applyReceipt carries the figures shown once on the confirmation page. The
// public status lookup never exposes them.
type applyReceipt struct {
	ReferenceNumber string
	Email           string
	ProcessingFee   string
	RequestedAmount string
	DocumentsFailed bool
}

// documentFields maps each multipart file field to the document type it holds.
var documentFields = []struct {
	Field   string
	DocType string
	Max     int
}{
	{Field: "registration_file", DocType: types.DocTypeRegistration, Max: 1},
	{Field: "id_document_file", DocType: types.DocTypeIDDocument, Max: 1},
	{Field: "project_photos", DocType: types.DocTypeProjectPhotos, Max: maxProjectPhotos},
}

func payoutOptions(selected types.PayoutMethod) []types.SelectOption {
	opts := make([]types.SelectOption, 0, len(types.PayoutMethods))
	for _, m := range types.PayoutMethods {
		opts = append(opts, types.SelectOption{
			Value:    string(m),
			Label:    m.Label(),
			Selected: m == selected,
		})
	}
	return opts
}

func newApplyPageData(step int, sub types.ApplicationSubmission) *types.ApplyPageData {
	return &types.ApplyPageData{
		BasePageData:  types.BasePageData{Title: "Apply for Support"},
		Step:          step,
		Form:          sub,
		PayoutOptions: payoutOptions(sub.PayoutMethod),
		FeePercent:    lifecycle.ProcessingFeeRate.Shift(2).String(),
	}
}

func (s *Service) handleGetApply(w http.ResponseWriter, r *http.Request) {
	data := newApplyPageData(1, types.ApplicationSubmission{})

	if err := s.renderTemplate(w, r, "page.apply", data); err != nil {
		s.logger.WithError(err).Error("failed to render apply page")
		s.internalServerError(w, r)
		return
	}
}

// handlePostApplyOrganization validates the organization step and renders the
// financial step with the organization fields carried as hidden inputs.
func (s *Service) handlePostApplyOrganization(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Info("failed to parse organization step")
		s.renderError(w, r, http.StatusBadRequest, "Invalid form", "We could not read your application. Please try again.")
		return
	}

	var sub types.ApplicationSubmission
	if fields := decodeForm(&sub, r.PostForm); len(fields) > 0 {
		lifecycle.TrimOrganization(&sub)
		s.renderApplyErrors(w, r, 1, sub, &lifecycle.ValidationError{Fields: fields})
		return
	}
	lifecycle.TrimOrganization(&sub)

	if err := lifecycle.ValidateOrganization(&sub); err != nil {
		s.renderApplyErrors(w, r, 1, sub, err)
		return
	}

	data := newApplyPageData(2, sub)
	if err := s.renderTemplate(w, r, "page.apply", data); err != nil {
		s.logger.WithError(err).Error("failed to render financial step")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handlePostApplyFinancial(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.logger.WithError(err).Info("failed to parse financial step")
		s.renderError(w, r, http.StatusBadRequest, "Upload too large", "Your files could not be read. Each file must be under 10 MB.")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	var sub types.ApplicationSubmission
	fieldErrs := decodeForm(&sub, r.PostForm)

	files, uploadErrs := uploadedFiles(r.MultipartForm)
	for k, v := range uploadErrs {
		fieldErrs[k] = v
	}

	if len(fieldErrs) > 0 {
		lifecycle.TrimOrganization(&sub)
		step := 2
		if lifecycle.ValidateOrganization(&sub) != nil {
			step = 1
		}
		s.renderApplyErrors(w, r, step, sub, &lifecycle.ValidationError{Fields: fieldErrs})
		return
	}

	// An uploaded file counts as sent.
	if len(files[types.DocTypeRegistration]) > 0 {
		sub.RegistrationSent = true
	}
	if len(files[types.DocTypeIDDocument]) > 0 {
		sub.IDDocumentSent = true
	}
	if len(files[types.DocTypeProjectPhotos]) > 0 {
		sub.PhotosSent = true
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	app, err := s.manager.Submit(ctx, &sub)
	if err != nil {
		if errors.Is(err, lifecycle.ErrValidation) {
			step := 2
			if lifecycle.ValidateOrganization(&sub) != nil {
				step = 1
			}
			s.renderApplyErrors(w, r, step, sub, err)
			return
		}

		s.logger.WithError(err).Error("failed to submit application")
		data := newApplyPageData(2, sub)
		data.Error = "We could not submit your application right now. Please try again."
		if err := s.renderTemplateStatus(w, r, http.StatusServiceUnavailable, "page.apply", data); err != nil {
			s.logger.WithError(err).Error("failed to render apply page with errors")
			s.internalServerError(w, r)
		}
		return
	}

	documentsFailed := s.storeDocuments(r.Context(), app, files)

	receipt := applyReceipt{
		ReferenceNumber: app.ReferenceNumber,
		Email:           app.Email,
		ProcessingFee:   formatMoney(app.ProcessingFee),
		RequestedAmount: formatMoney(app.RequestedAmount),
		DocumentsFailed: documentsFailed,
	}

	encoded, err := s.cookie.Encode(internal.COOKIE_APPLY_RECEIPT, receipt)
	if err != nil {
		s.logger.WithError(err).Error("failed to encode application receipt")
	} else {
		http.SetCookie(w, &http.Cookie{
			Name:     internal.COOKIE_APPLY_RECEIPT,
			Value:    encoded,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
			Path:     "/apply",
			MaxAge:   int(receiptCookieTTL.Seconds()),
		})
	}

	http.Redirect(w, r, "/apply/confirmation/"+url.PathEscape(app.ReferenceNumber), http.StatusSeeOther)
}

func (s *Service) handleGetApplyConfirmation(w http.ResponseWriter, r *http.Request) {
	ref, err := lifecycle.NormalizeReference(r.PathValue("reference"))
	if err != nil {
		s.handleNotFound(w, r)
		return
	}

	data := &types.ApplyConfirmationPageData{
		BasePageData:    types.BasePageData{Title: "Application Submitted"},
		ReferenceNumber: ref,
	}

	if cookie, err := r.Cookie(internal.COOKIE_APPLY_RECEIPT); err == nil {
		var receipt applyReceipt
		if err := s.cookie.Decode(internal.COOKIE_APPLY_RECEIPT, cookie.Value, &receipt); err != nil {
			s.logger.WithError(err).Debug("ignoring unreadable application receipt")
		} else if receipt.ReferenceNumber == ref {
			data.Email = receipt.Email
			data.ProcessingFee = receipt.ProcessingFee
			data.RequestedAmount = receipt.RequestedAmount
			data.DocumentsFailed = receipt.DocumentsFailed
		}
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	view, err := s.manager.LookupByReference(ctx, ref)
	switch {
	case err == nil:
		if desc, derr := lifecycle.DescribeStatus(view.Status); derr == nil {
			card := statusCard(desc)
			data.Status = &card
		}
	case errors.Is(err, types.ErrApplicationNotFound):
		s.handleNotFound(w, r)
		return
	default:
		s.logger.WithError(err).WithField("reference_number", ref).Warn("failed to load status for confirmation")
	}

	if err := s.renderTemplate(w, r, "page.apply.confirmation", data); err != nil {
		s.logger.WithError(err).Error("failed to render apply confirmation page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) renderApplyErrors(w http.ResponseWriter, r *http.Request, step int, sub types.ApplicationSubmission, err error) {
	var verr *lifecycle.ValidationError
	if !errors.As(err, &verr) {
		s.logger.WithError(err).Error("failed to validate application")
		s.internalServerError(w, r)
		return
	}

	data := newApplyPageData(step, sub)
	data.Error = "Please correct the highlighted fields."
	data.FieldErrors = verr.Fields

	if err := s.renderTemplateStatus(w, r, http.StatusBadRequest, "page.apply", data); err != nil {
		s.logger.WithError(err).Error("failed to render apply page with errors")
		s.internalServerError(w, r)
	}
}

// storeDocuments uploads each file and records it against the application.
// Failures are logged and reported but never undo the submission.
func (s *Service) storeDocuments(ctx context.Context, app *types.Application, files map[string][]*multipart.FileHeader) bool {
	total := 0
	for _, hs := range files {
		total += len(hs)
	}
	if total == 0 {
		return false
	}

	if s.storage == nil {
		s.logger.WithField("application_id", app.ID).Warn("document storage not configured, discarding uploads")
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, documentUploadTime)
	defer cancel()

	failed := false
	for docType, headers := range files {
		for _, fh := range headers {
			if err := s.storeDocument(ctx, app, docType, fh); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"application_id": app.ID,
					"document_type":  docType,
					"file_name":      fh.Filename,
				}).Error("failed to store document")
				failed = true
			}
		}
	}

	return failed
}

func (s *Service) storeDocument(ctx context.Context, app *types.Application, docType string, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	doc := &types.ApplicationDocument{
		ID:            utils.NanoID(),
		ApplicationID: app.ID,
		DocumentType:  docType,
		FileName:      filepath.Base(fh.Filename),
		FileSizeBytes: fh.Size,
		MimeType:      fh.Header.Get("Content-Type"),
	}
	if doc.MimeType == "" {
		doc.MimeType = "application/octet-stream"
	}

	key, err := s.storage.Upload(ctx, storage.DocumentKey(app.ID, doc.ID, doc.FileName), f, fh.Size, doc.MimeType)
	if err != nil {
		return err
	}
	doc.StorageKey = key

	if err := s.manager.AttachDocument(ctx, doc); err != nil {
		if derr := s.storage.Delete(ctx, key); derr != nil {
			s.logger.WithError(derr).WithField("storage_key", key).Warn("failed to remove orphaned document")
		}
		return err
	}

	return nil
}

func uploadedFiles(form *multipart.Form) (map[string][]*multipart.FileHeader, map[string]string) {
	files := map[string][]*multipart.FileHeader{}
	errs := map[string]string{}
	if form == nil {
		return files, errs
	}

	for _, df := range documentFields {
		var headers []*multipart.FileHeader
		for _, fh := range form.File[df.Field] {
			if fh.Size == 0 && fh.Filename == "" {
				continue
			}
			headers = append(headers, fh)
		}

		if len(headers) > df.Max {
			errs[df.Field] = "Too many files."
			continue
		}

		for _, fh := range headers {
			if fh.Size > maxDocumentBytes {
				errs[df.Field] = "Each file must be under 10 MB."
			}
		}

		if len(headers) > 0 {
			files[df.DocType] = headers
		}
	}

	return files, errs
}

