// Package fixtures holds in-memory stores for tests.
package fixtures

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"urdf/pkg/types"
)

var ErrStoreDown = errors.New("store unavailable")

// Store keeps applications, roles, documents and form submissions in memory.
// It mirrors the Postgres repositories closely enough for handler and
// lifecycle tests.
type Store struct {
	mu sync.Mutex

	apps      map[string]*types.Application
	roles     map[string]map[types.Role]bool
	documents map[string]*types.ApplicationDocument
	messages  []*types.ContactMessage
	inquiries []*types.PartnershipInquiry

	// Fail makes every call return ErrStoreDown.
	Fail bool
	// ReferenceConflicts is the number of upcoming inserts rejected with
	// types.ErrReferenceConflict.
	ReferenceConflicts int
}

func NewStore() *Store {
	return &Store{
		apps:      map[string]*types.Application{},
		roles:     map[string]map[types.Role]bool{},
		documents: map[string]*types.ApplicationDocument{},
	}
}

func copyApplication(app *types.Application) *types.Application {
	c := *app
	if app.AdminNotes != nil {
		notes := *app.AdminNotes
		c.AdminNotes = &notes
	}
	return &c
}

// Put stores app as is, bypassing every check. Tests use it to plant
// duplicate references or corrupt statuses.
func (s *Store) Put(app *types.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.ID] = copyApplication(app)
}

// Get returns a copy of the stored application.
func (s *Store) Get(id string) (*types.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, false
	}
	return copyApplication(app), true
}

func (s *Store) Grant(userID string, role types.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[userID] == nil {
		s.roles[userID] = map[types.Role]bool{}
	}
	s.roles[userID][role] = true
}

func (s *Store) CreateApplication(_ context.Context, app *types.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return ErrStoreDown
	}

	if s.ReferenceConflicts > 0 {
		s.ReferenceConflicts--
		return types.ErrReferenceConflict
	}

	for _, existing := range s.apps {
		if existing.ReferenceNumber == app.ReferenceNumber {
			return types.ErrReferenceConflict
		}
	}

	s.apps[app.ID] = copyApplication(app)
	return nil
}

func (s *Store) PublicViewsByReference(_ context.Context, referenceNumber string) ([]*types.PublicView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return nil, ErrStoreDown
	}

	var views []*types.PublicView
	for _, app := range s.sorted() {
		if app.ReferenceNumber != referenceNumber {
			continue
		}
		if !app.Status.Valid() {
			return nil, types.ErrInvalidStatus
		}
		views = append(views, &types.PublicView{
			ReferenceNumber:  app.ReferenceNumber,
			Status:           app.Status,
			AdminNotes:       copyApplication(app).AdminNotes,
			UpdatedAt:        app.UpdatedAt,
			OrganizationName: app.OrganizationName,
		})
		if len(views) == 2 {
			break
		}
	}

	return views, nil
}

func (s *Store) Application(_ context.Context, applicationID string) (*types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return nil, ErrStoreDown
	}

	app, ok := s.apps[applicationID]
	if !ok {
		return nil, types.ErrApplicationNotFound
	}
	if !app.Status.Valid() {
		return nil, types.ErrInvalidStatus
	}

	return copyApplication(app), nil
}

// sorted returns applications newest first. Callers hold the lock.
func (s *Store) sorted() []*types.Application {
	out := make([]*types.Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) Applications(_ context.Context, filter types.ApplicationListFilter) ([]*types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return nil, ErrStoreDown
	}

	search := strings.ToLower(filter.Search)
	out := make([]*types.Application, 0)
	for _, app := range s.sorted() {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(app.ReferenceNumber), search) &&
			!strings.Contains(strings.ToLower(app.OrganizationName), search) &&
			!strings.Contains(strings.ToLower(app.ApplicantName), search) &&
			!strings.Contains(strings.ToLower(app.Email), search) {
			continue
		}
		if !app.Status.Valid() {
			return nil, types.ErrInvalidStatus
		}
		out = append(out, copyApplication(app))
	}

	if filter.Offset >= uint64(len(out)) {
		return []*types.Application{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && uint64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (s *Store) StatusCounts(_ context.Context) ([]*types.ApplicationStatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return nil, ErrStoreDown
	}

	counts := map[types.ApplicationStatus]int{}
	for _, app := range s.apps {
		counts[app.Status]++
	}

	out := make([]*types.ApplicationStatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, &types.ApplicationStatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (s *Store) ReviewApplication(_ context.Context, applicationID string, review types.ApplicationReview) (*types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return nil, ErrStoreDown
	}

	app, ok := s.apps[applicationID]
	if !ok {
		return nil, types.ErrApplicationNotFound
	}

	app.Status = review.Status
	if !review.KeepNotes {
		app.AdminNotes = nil
		if review.AdminNotes != nil {
			notes := *review.AdminNotes
			app.AdminNotes = &notes
		}
	}

	next := app.UpdatedAt.Add(time.Microsecond)
	if review.ReviewedAt.After(next) {
		next = review.ReviewedAt
	}
	app.UpdatedAt = next

	return copyApplication(app), nil
}

func (s *Store) HasRole(_ context.Context, userID string, role types.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return false, ErrStoreDown
	}

	return s.roles[userID][role], nil
}

func (s *Store) CreateDocument(_ context.Context, doc *types.ApplicationDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return ErrStoreDown
	}

	c := *doc
	s.documents[doc.ID] = &c
	return nil
}

func (s *Store) DocumentsByApplicationID(_ context.Context, applicationID string) ([]*types.ApplicationDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return nil, ErrStoreDown
	}

	out := make([]*types.ApplicationDocument, 0)
	for _, doc := range s.documents {
		if doc.ApplicationID == applicationID {
			c := *doc
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (s *Store) Document(_ context.Context, applicationID, documentID string) (*types.ApplicationDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return nil, ErrStoreDown
	}

	doc, ok := s.documents[documentID]
	if !ok || doc.ApplicationID != applicationID {
		return nil, types.ErrDocumentNotFound
	}
	c := *doc
	return &c, nil
}

func (s *Store) CreateContactMessage(_ context.Context, msg *types.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return ErrStoreDown
	}

	c := *msg
	c.CreatedAt = time.Now()
	s.messages = append(s.messages, &c)
	return nil
}

func (s *Store) CreatePartnershipInquiry(_ context.Context, inquiry *types.PartnershipInquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return ErrStoreDown
	}

	c := *inquiry
	c.CreatedAt = time.Now()
	s.inquiries = append(s.inquiries, &c)
	return nil
}

func (s *Store) LatestContactMessages(_ context.Context, limit uint64) ([]*types.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return nil, ErrStoreDown
	}

	out := make([]*types.ContactMessage, 0, len(s.messages))
	for i := len(s.messages) - 1; i >= 0 && uint64(len(out)) < limit; i-- {
		out = append(out, s.messages[i])
	}
	return out, nil
}

func (s *Store) LatestPartnershipInquiries(_ context.Context, limit uint64) ([]*types.PartnershipInquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return nil, ErrStoreDown
	}

	out := make([]*types.PartnershipInquiry, 0, len(s.inquiries))
	for i := len(s.inquiries) - 1; i >= 0 && uint64(len(out)) < limit; i-- {
		out = append(out, s.inquiries[i])
	}
	return out, nil
}

// Messages returns the stored contact messages in insertion order.
func (s *Store) Messages() []*types.ContactMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.ContactMessage(nil), s.messages...)
}

// Inquiries returns the stored partnership inquiries in insertion order.
func (s *Store) Inquiries() []*types.PartnershipInquiry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.PartnershipInquiry(nil), s.inquiries...)
}
