package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"urdf/internal/utils"
	"urdf/pkg/types"

	"github.com/sirupsen/logrus"
)

const maxReferenceAttempts = 5

// RecordStore is the persistent table of applications.
type RecordStore interface {
	CreateApplication(ctx context.Context, app *types.Application) error
	PublicViewsByReference(ctx context.Context, referenceNumber string) ([]*types.PublicView, error)
	Application(ctx context.Context, applicationID string) (*types.Application, error)
	Applications(ctx context.Context, filter types.ApplicationListFilter) ([]*types.Application, error)
	StatusCounts(ctx context.Context) ([]*types.ApplicationStatusCount, error)
	ReviewApplication(ctx context.Context, applicationID string, review types.ApplicationReview) (*types.Application, error)
}

// RoleStore maps an identity to the roles it was granted.
type RoleStore interface {
	HasRole(ctx context.Context, userID string, role types.Role) (bool, error)
}

// DocumentStore records supporting documents uploaded with an application.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *types.ApplicationDocument) error
	DocumentsByApplicationID(ctx context.Context, applicationID string) ([]*types.ApplicationDocument, error)
	Document(ctx context.Context, applicationID, documentID string) (*types.ApplicationDocument, error)
}

// Manager owns the application status field, who may change it, and what an
// anonymous caller may learn from a reference number.
//
// Every method returns nil or an error matching exactly one of
// types.ErrApplicationNotFound, types.ErrDocumentNotFound, ErrValidation, ErrDenied, ErrIntegrity or
// ErrUnavailable. The manager never retries.
type Manager struct {
	logger    *logrus.Logger
	records   RecordStore
	roles     RoleStore
	documents DocumentStore

	referencePrefix string
	now             func() time.Time
}

func New(logger *logrus.Logger, records RecordStore, roles RoleStore, documents DocumentStore, referencePrefix string) *Manager {
	if referencePrefix == "" {
		referencePrefix = "URDF"
	}

	return &Manager{
		logger:          logger,
		records:         records,
		roles:           roles,
		documents:       documents,
		referencePrefix: referencePrefix,
		now:             time.Now,
	}
}

// LookupByReference is the public status channel. It reveals nothing beyond
// the PublicView projection.
func (m *Manager) LookupByReference(ctx context.Context, referenceNumber string) (*types.PublicView, error) {
	ref, err := NormalizeReference(referenceNumber)
	if err != nil {
		return nil, err
	}

	views, err := m.records.PublicViewsByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, types.ErrInvalidStatus) {
			return nil, integrity("lookup by reference", err)
		}
		return nil, unavailable("lookup by reference", err)
	}

	switch len(views) {
	case 0:
		return nil, types.ErrApplicationNotFound
	case 1:
		return views[0], nil
	default:
		m.logger.WithField("reference_number", ref).WithField("matches", len(views)).Error("reference number is not unique")
		return nil, integrity("lookup by reference", fmt.Errorf("%d applications share reference %s", len(views), ref))
	}
}

// HasRole reports whether the identity holds role. An unauthenticated
// identity holds no roles.
func (m *Manager) HasRole(ctx context.Context, actor types.Identity, role types.Role) (bool, error) {
	if !actor.Authenticated() {
		return false, nil
	}

	ok, err := m.roles.HasRole(ctx, actor.UserID, role)
	if err != nil {
		return false, unavailable("check role", err)
	}

	return ok, nil
}

func (m *Manager) requireAdmin(ctx context.Context, actor types.Identity) error {
	ok, err := m.HasRole(ctx, actor, types.RoleAdmin)
	if err != nil {
		return err
	}

	if !ok {
		m.logger.WithField("user_id", actor.UserID).Warn("admin role required")
		return ErrDenied
	}

	return nil
}

// Transition sets the status of an application and, when notes is non-nil,
// its admin notes. An empty notes string clears them. Any status may move to
// any other status, including itself.
func (m *Manager) Transition(ctx context.Context, actor types.Identity, applicationID string, status types.ApplicationStatus, notes *string) (*types.Application, error) {
	if err := m.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	if !status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("Unknown status %q.", status))
	}

	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return nil, newValidationError("id", "Application id is required.")
	}

	review := types.ApplicationReview{
		Status:     status,
		KeepNotes:  notes == nil,
		ReviewedAt: m.now().UTC(),
	}

	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		if trimmed != "" {
			review.AdminNotes = &trimmed
		}
	}

	app, err := m.records.ReviewApplication(ctx, applicationID, review)
	if err != nil {
		if errors.Is(err, types.ErrApplicationNotFound) {
			return nil, types.ErrApplicationNotFound
		}
		if errors.Is(err, types.ErrInvalidStatus) {
			return nil, integrity("transition application", err)
		}
		return nil, unavailable("transition application", err)
	}

	m.logger.WithFields(logrus.Fields{
		"application_id":   app.ID,
		"reference_number": app.ReferenceNumber,
		"status":           app.Status,
		"user_id":          actor.UserID,
	}).Info("application status updated")

	return app, nil
}

// ListApplications returns full records, most recent first.
func (m *Manager) ListApplications(ctx context.Context, actor types.Identity, filter types.ApplicationListFilter) ([]*types.Application, error) {
	if err := m.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("Unknown status %q.", filter.Status))
	}

	apps, err := m.records.Applications(ctx, filter)
	if err != nil {
		if errors.Is(err, types.ErrInvalidStatus) {
			return nil, integrity("list applications", err)
		}
		return nil, unavailable("list applications", err)
	}

	return apps, nil
}

// StatusCounts returns the number of applications per status. Statuses with
// no applications are present with a zero count.
func (m *Manager) StatusCounts(ctx context.Context, actor types.Identity) (map[types.ApplicationStatus]int, error) {
	if err := m.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	rows, err := m.records.StatusCounts(ctx)
	if err != nil {
		return nil, unavailable("count applications", err)
	}

	counts := make(map[types.ApplicationStatus]int, len(types.ApplicationStatuses))
	for _, s := range types.ApplicationStatuses {
		counts[s] = 0
	}

	for _, row := range rows {
		if !row.Status.Valid() {
			return nil, integrity("count applications", fmt.Errorf("%w: %q", types.ErrInvalidStatus, row.Status))
		}
		counts[row.Status] = row.Count
	}

	return counts, nil
}

// Application returns the full record for the admin detail view.
func (m *Manager) Application(ctx context.Context, actor types.Identity, applicationID string) (*types.Application, error) {
	if err := m.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	app, err := m.records.Application(ctx, applicationID)
	if err != nil {
		if errors.Is(err, types.ErrApplicationNotFound) {
			return nil, types.ErrApplicationNotFound
		}
		if errors.Is(err, types.ErrInvalidStatus) {
			return nil, integrity("fetch application", err)
		}
		return nil, unavailable("fetch application", err)
	}

	return app, nil
}

// Submit validates a new application and inserts it as pending. The
// processing fee is derived here and never recomputed.
func (m *Manager) Submit(ctx context.Context, sub *types.ApplicationSubmission) (*types.Application, error) {
	trimSubmission(sub)

	if err := ValidateSubmission(sub); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	app := &types.Application{
		OrganizationName:   sub.OrganizationName,
		ApplicantName:      sub.ApplicantName,
		Email:              sub.Email,
		Phone:              sub.Phone,
		Country:            sub.Country,
		Location:           sub.Location,
		ProjectDescription: sub.ProjectDescription,
		MonthlyExpenditure: sub.MonthlyExpenditure,
		RequestedAmount:    sub.RequestedAmount,
		ProcessingFee:      ProcessingFee(sub.RequestedAmount),
		PayoutMethod:       sub.PayoutMethod,
		PayoutDetails:      sub.PayoutDetails,
		Status:             types.ApplicationStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	for attempt := 1; ; attempt++ {
		app.ID = utils.NanoID()
		app.ReferenceNumber = NewReferenceNumber(m.referencePrefix, now)

		err := m.records.CreateApplication(ctx, app)
		if err == nil {
			break
		}

		if errors.Is(err, types.ErrReferenceConflict) && attempt < maxReferenceAttempts {
			m.logger.WithField("reference_number", app.ReferenceNumber).Warn("reference number collision, regenerating")
			continue
		}

		return nil, unavailable("submit application", err)
	}

	m.logger.WithFields(logrus.Fields{
		"application_id":   app.ID,
		"reference_number": app.ReferenceNumber,
	}).Info("application submitted")

	return app, nil
}

// AttachDocument records a document already uploaded to object storage for a
// freshly submitted application.
func (m *Manager) AttachDocument(ctx context.Context, doc *types.ApplicationDocument) error {
	if doc.ApplicationID == "" || doc.StorageKey == "" {
		return newValidationError("document", "Document is missing its application or storage key.")
	}

	if doc.ID == "" {
		doc.ID = utils.NanoID()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = m.now().UTC()
	}

	if err := m.documents.CreateDocument(ctx, doc); err != nil {
		return unavailable("attach document", err)
	}

	return nil
}

// Documents lists an application's supporting documents for an admin.
func (m *Manager) Documents(ctx context.Context, actor types.Identity, applicationID string) ([]*types.ApplicationDocument, error) {
	if err := m.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	docs, err := m.documents.DocumentsByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, unavailable("list documents", err)
	}

	return docs, nil
}

// Document returns one supporting document for an admin.
func (m *Manager) Document(ctx context.Context, actor types.Identity, applicationID, documentID string) (*types.ApplicationDocument, error) {
	if err := m.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	doc, err := m.documents.Document(ctx, applicationID, documentID)
	if err != nil {
		if errors.Is(err, types.ErrDocumentNotFound) {
			return nil, types.ErrDocumentNotFound
		}
		return nil, unavailable("fetch document", err)
	}

	return doc, nil
}
