package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"urdf/internal"
	"urdf/internal/auth"
	"urdf/internal/fixtures"
	"urdf/internal/lifecycle"
	"urdf/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminToken = "admin-token"
	staffToken = "staff-token"
)

type fakeVerifier struct {
	identities map[string]types.Identity
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (types.Identity, error) {
	identity, ok := f.identities[token]
	if !ok {
		return types.Identity{}, auth.ErrUnauthenticated
	}
	return identity, nil
}

type fakeAuthenticator struct {
	sessions map[string]string
	signups  []string
}

func (f *fakeAuthenticator) SignIn(_ context.Context, email, password string) (*auth.Session, error) {
	token, ok := f.sessions[email+":"+password]
	if !ok {
		return nil, auth.ErrInvalidCredentials
	}
	return &auth.Session{AccessToken: token, ExpiresIn: 3600}, nil
}

func (f *fakeAuthenticator) SignUp(_ context.Context, email, _ string) error {
	if email == "admin@urdf.org" {
		return auth.ErrUserExists
	}
	f.signups = append(f.signups, email)
	return nil
}

func (f *fakeAuthenticator) ConfirmSignUp(_ context.Context, _, code string) error {
	if code != "123456" {
		return auth.ErrCodeMismatch
	}
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeStorage) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return key, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) DownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?signed", nil
}

type testServer struct {
	svc     *Service
	store   *fixtures.Store
	storage *fakeStorage
	auth    *fakeAuthenticator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := fixtures.NewStore()
	store.Grant("admin-1", types.RoleAdmin)
	store.Put(hopeOrphanage())

	manager := lifecycle.New(logger, store, store, store, "URDF")

	config := &types.Config{
		ServerPort:       0,
		StoreTimeoutSec:  5,
		SessionMaxAgeSec: 3600,
		CookieHashKey:    base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("h"), 32)),
		CookieBlockKey:   base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("b"), 32)),
		ReferencePrefix:  "URDF",
		SupportEmail:     "urdf@proton.me",
		AdminPageSize:    2,
	}

	verifier := &fakeVerifier{identities: map[string]types.Identity{
		adminToken: {UserID: "admin-1", Email: "admin@urdf.org"},
		staffToken: {UserID: "staff-1", Email: "staff@urdf.org"},
	}}
	authenticator := &fakeAuthenticator{sessions: map[string]string{
		"admin@urdf.org:correct": adminToken,
		"staff@urdf.org:correct": staffToken,
	}}
	storage := &fakeStorage{objects: map[string][]byte{}}

	svc, err := New(config, logger, manager, store, authenticator, verifier, storage)
	require.NoError(t, err)

	return &testServer{svc: svc, store: store, storage: storage, auth: authenticator}
}

func hopeOrphanage() *types.Application {
	created := time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)
	return &types.Application{
		ID:                 "app-hope",
		ReferenceNumber:    "URDF-2024-000123",
		OrganizationName:   "Hope Orphanage",
		ApplicantName:      "Grace Achieng",
		Email:              "grace@hope.example",
		Phone:              "+254700000123",
		Country:            "Kenya",
		Location:           "Kisumu",
		ProjectDescription: "Feeding and schooling costs.",
		MonthlyExpenditure: decimal.NewFromInt(2500),
		RequestedAmount:    decimal.NewFromInt(10000),
		ProcessingFee:      decimal.NewFromInt(400),
		PayoutMethod:       types.PayoutMethodBank,
		PayoutDetails: types.PayoutDetails{
			BankName:      "Equity Bank",
			AccountName:   "Hope Orphanage",
			AccountNumber: "0123456789",
			SwiftCode:     "EQBLKENA",
		},
		Status:    types.ApplicationStatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()

	if token != "" {
		encoded, err := ts.svc.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, token)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: internal.COOKIE_ACCESS_TOKEN_NAME, Value: encoded})
	}

	rec := httptest.NewRecorder()
	ts.svc.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPublicPages(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/", "/about", "/programs", "/contact", "/partnerships", "/apply", "/status", "/admin/login", "/admin/register"} {
		t.Run(path, func(t *testing.T) {
			rec := ts.do(t, httptest.NewRequest(http.MethodGet, path, nil), "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "urdf@proton.me")
		})
	}
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/nope", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}

func TestTrailingSlashRedirect(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/about/", nil), "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/about", rec.Header().Get("Location"))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStatusPage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/status?reference=+urdf-2024-000123+", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Hope Orphanage")
	assert.Contains(t, body, "URDF-2024-000123")
	assert.Contains(t, body, "Pending Review")
	assert.NotContains(t, body, "grace@hope.example")
	assert.NotContains(t, body, "0123456789")
	assert.NotContains(t, body, "400.00")
}

func TestStatusPage_Outcomes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/status?reference=URDF-2024-999999", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No application found")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/status?reference=+++", nil), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.store.Fail = true
	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/status?reference=URDF-2024-000123", nil), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "No application found")
}

func TestAPIStatus(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/status?reference=urdf-2024-000123", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"reference_number", "status", "admin_notes", "updated_at", "organization_name", "label", "message"}, keys)
	assert.Equal(t, "pending", body["status"])
	assert.Nil(t, body["admin_notes"])

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/status?reference=URDF-0", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)
}

func TestAdmin_RequiresLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), "forged-token")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdmin_NonAdminForbidden(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), staffToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, postForm("/admin/applications/app-hope", url.Values{"status": {"disbursed"}}), staffToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, postForm("/admin/applications/does-not-exist", url.Values{"status": {"disbursed"}}), staffToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	app, _ := ts.store.Get("app-hope")
	assert.Equal(t, types.ApplicationStatusPending, app.Status)
}

func TestAdmin_Dashboard(t *testing.T) {
	ts := newTestServer(t)

	for i, id := range []string{"app-2", "app-3"} {
		app := hopeOrphanage()
		app.ID = id
		app.ReferenceNumber = fmt.Sprintf("URDF-2024-%06d", i+2)
		app.OrganizationName = "Org " + id
		app.Email = id + "@example.org"
		app.CreatedAt = app.CreatedAt.Add(time.Duration(i+1) * time.Hour)
		ts.store.Put(app)
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Org app-3")
	assert.Contains(t, body, "Org app-2")
	assert.NotContains(t, body, "URDF-2024-000123")
	assert.Contains(t, body, "page=2")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin?page=2", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "URDF-2024-000123")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin?q=hope%20orph", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "URDF-2024-000123")
	assert.NotContains(t, rec.Body.String(), "Org app-2")
}

func TestAdmin_DashboardPageOutOfRange(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin?page=99999999999", nil), adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page number is out of range.")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/admin?page=%d", maxAdminPage), nil), adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdmin_ApplicationDetailByID(t *testing.T) {
	ts := newTestServer(t)

	other := hopeOrphanage()
	other.ID = "app-water"
	other.ReferenceNumber = "URDF-2024-000456"
	other.OrganizationName = "Clean Water Initiative"
	other.PayoutDetails.BankName = "KCB Bank"
	other.PayoutDetails.AccountName = "Clean Water Initiative"
	ts.store.Put(other)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/applications/app-water", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Clean Water Initiative")
	assert.Contains(t, body, "KCB Bank")
	assert.NotContains(t, body, "Hope Orphanage")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/applications/app-hope", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hope Orphanage")
	assert.NotContains(t, rec.Body.String(), "Clean Water Initiative")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/applications/app-water/documents/missing", nil), adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_ApplicationDetailAndTransition(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/applications/app-hope", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Equity Bank")
	assert.Contains(t, rec.Body.String(), "$400.00")

	rec = ts.do(t, postForm("/admin/applications/app-hope", url.Values{
		"status":      {"allocated"},
		"admin_notes": {"Funds approved"},
	}), adminToken)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/admin/applications/app-hope?notice="))

	app, _ := ts.store.Get("app-hope")
	assert.Equal(t, types.ApplicationStatusAllocated, app.Status)
	require.NotNil(t, app.AdminNotes)
	assert.Equal(t, "Funds approved", *app.AdminNotes)

	// Omitting admin_notes keeps them.
	rec = ts.do(t, postForm("/admin/applications/app-hope", url.Values{"status": {"disbursed"}}), adminToken)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	app, _ = ts.store.Get("app-hope")
	assert.Equal(t, types.ApplicationStatusDisbursed, app.Status)
	require.NotNil(t, app.AdminNotes)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/status?reference=URDF-2024-000123", nil), "")
	assert.Contains(t, rec.Body.String(), "Disbursed to Payout")
	assert.Contains(t, rec.Body.String(), "Funds approved")
}

func TestAdmin_TransitionErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, postForm("/admin/applications/app-hope", url.Values{"status": {"approved"}}), adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, postForm("/admin/applications/missing", url.Values{"status": {"allocated"}}), adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, postForm("/admin/login", url.Values{"email": {"admin@urdf.org"}, "password": {"correct"}}), "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == internal.COOKIE_ACCESS_TOKEN_NAME && c.Value != "" {
			found = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found, "expected access token cookie")

	rec = ts.do(t, postForm("/admin/login", url.Values{"email": {"staff@urdf.org"}, "password": {"correct"}}), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, postForm("/admin/login", url.Values{"email": {"admin@urdf.org"}, "password": {"wrong"}}), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, postForm("/admin/register", url.Values{
		"email":            {"new@urdf.org"},
		"password":         {"Sufficiently-l0ng"},
		"confirm_password": {"Sufficiently-l0ng"},
	}), "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/register/confirm?email=new%40urdf.org", rec.Header().Get("Location"))
	assert.Equal(t, []string{"new@urdf.org"}, ts.auth.signups)

	rec = ts.do(t, postForm("/admin/register", url.Values{
		"email":            {"new@urdf.org"},
		"password":         {"alllowercaseletters"},
		"confirm_password": {"different"},
	}), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match.")
	assert.Contains(t, rec.Body.String(), "at least 12 characters")

	rec = ts.do(t, postForm("/admin/register", url.Values{
		"email":            {"admin@urdf.org"},
		"password":         {"Sufficiently-l0ng"},
		"confirm_password": {"Sufficiently-l0ng"},
	}), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "An account with this email already exists.")
	assert.Len(t, ts.auth.signups, 1)
}

func TestRegisterConfirm(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, postForm("/admin/register/confirm", url.Values{"email": {"new@urdf.org"}, "code": {"123456"}}), "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login?confirmed=true", rec.Header().Get("Location"))

	rec = ts.do(t, postForm("/admin/register/confirm", url.Values{"email": {"new@urdf.org"}, "code": {"000000"}}), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid confirmation code.")

	rec = ts.do(t, postForm("/admin/register/confirm", url.Values{"email": {"new@urdf.org"}}), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, strongPassword("Abcdefgh1234!"))
	assert.False(t, strongPassword("abcdefgh1234!"))
	assert.False(t, strongPassword("ABCDEFGH1234!"))
	assert.False(t, strongPassword("Abcdefghijkl!"))
	assert.False(t, strongPassword("Abcdefgh12345"))
}

func TestContactForm(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, postForm("/contact", url.Values{
		"name":    {"Sam"},
		"email":   {"sam@example.org"},
		"subject": {"Question"},
		"message": {"How do I apply?"},
	}), "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, ts.store.Messages(), 1)
	assert.Equal(t, "Sam", ts.store.Messages()[0].Name)

	rec = ts.do(t, postForm("/contact", url.Values{"name": {"Sam"}}), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, ts.store.Messages(), 1)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/messages", nil), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "How do I apply?")
}

func TestPartnershipForm(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, postForm("/partnerships", url.Values{
		"organization_name": {"Acme Foundation"},
		"contact_name":      {"Sam"},
		"email":             {"sam@acme.example"},
		"website":           {""},
		"partnership_type":  {"foundation"},
		"message":           {"We would like to help."},
	}), "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, ts.store.Inquiries(), 1)
	assert.Nil(t, ts.store.Inquiries()[0].Website)

	rec = ts.do(t, postForm("/partnerships", url.Values{
		"organization_name": {"Acme Foundation"},
		"contact_name":      {"Sam"},
		"email":             {"sam@acme.example"},
		"partnership_type":  {"sponsor"},
		"message":           {"Hi"},
	}), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func organizationValues() url.Values {
	return url.Values{
		"organization_name":   {"Clean Water Initiative"},
		"applicant_name":      {"Peter Otieno"},
		"email":               {"peter@water.example"},
		"phone":               {"+254711000000"},
		"country":             {"Kenya"},
		"location":            {"Homa Bay"},
		"project_description": {"Borehole for three villages."},
	}
}

func TestApply_OrganizationStep(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, postForm("/apply/organization", organizationValues()), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/apply/financial"`)
	assert.Contains(t, body, `value="Clean Water Initiative"`)
	assert.Contains(t, body, "4% processing fee")

	values := organizationValues()
	values.Set("email", "nope")
	rec = ts.do(t, postForm("/apply/organization", values), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enter a valid email address.")
}

func TestApply_Submit(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range organizationValues() {
		require.NoError(t, mw.WriteField(k, vs[0]))
	}
	require.NoError(t, mw.WriteField("monthly_expenditure", "1500"))
	require.NoError(t, mw.WriteField("requested_amount", "10000"))
	require.NoError(t, mw.WriteField("payout_method", "crypto"))
	require.NoError(t, mw.WriteField("payout.wallet_address", "0xabc"))
	require.NoError(t, mw.WriteField("id_document_sent", "true"))

	fw, err := mw.CreateFormFile("registration_file", "certificate.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 certificate"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/apply/financial", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := ts.do(t, req, "")
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/apply/confirmation/URDF-"), location)
	reference := strings.TrimPrefix(location, "/apply/confirmation/")

	apps, err := ts.store.Applications(context.Background(), types.ApplicationListFilter{Search: reference})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, types.ApplicationStatusPending, apps[0].Status)
	assert.Equal(t, "400.00", apps[0].ProcessingFee.StringFixed(2))
	assert.Equal(t, "0xabc", apps[0].PayoutDetails.WalletAddress)

	docs, err := ts.store.DocumentsByApplicationID(context.Background(), apps[0].ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, types.DocTypeRegistration, docs[0].DocumentType)
	assert.Equal(t, []byte("%PDF-1.4 certificate"), ts.storage.objects[docs[0].StorageKey])

	confirm := httptest.NewRequest(http.MethodGet, location, nil)
	for _, c := range rec.Result().Cookies() {
		confirm.AddCookie(c)
	}
	rec = ts.do(t, confirm, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), reference)
	assert.Contains(t, rec.Body.String(), "$400.00")
	assert.Contains(t, rec.Body.String(), "Pending Review")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/applications/"+apps[0].ID+"/documents/"+docs[0].ID, nil), adminToken)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "https://bucket.example/")
}

func TestApply_SubmitValidation(t *testing.T) {
	ts := newTestServer(t)

	values := organizationValues()
	values.Set("requested_amount", "0")
	values.Set("payout_method", "bank")

	rec := ts.do(t, postForm("/apply/financial", values), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Requested amount must be greater than zero.")
	assert.Contains(t, body, "Bank name is required.")

	counts, err := ts.store.StatusCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].Count)
}

func TestApply_SubmitMalformedAmount(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
	}{
		{name: "monthly expenditure", field: "monthly_expenditure", value: "twelve hundred"},
		{name: "requested amount", field: "requested_amount", value: "10,000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)

			values := organizationValues()
			values.Set("monthly_expenditure", "1500")
			values.Set("requested_amount", "10000")
			values.Set("payout_method", "crypto")
			values.Set("payout.wallet_address", "0xabc")
			values.Set(tc.field, tc.value)

			rec := ts.do(t, postForm("/apply/financial", values), "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "Enter a number.")
			assert.Contains(t, body, `name="`+tc.field+`"`)
			assert.Contains(t, body, `value="Clean Water Initiative"`)

			counts, err := ts.store.StatusCounts(context.Background())
			require.NoError(t, err)
			require.Len(t, counts, 1)
			assert.Equal(t, 1, counts[0].Count)
		})
	}
}

func TestDecodeForm(t *testing.T) {
	var sub types.ApplicationSubmission
	fields := decodeForm(&sub, url.Values{
		"organization_name":   {"Hope Orphanage"},
		"monthly_expenditure": {"abc"},
		"requested_amount":    {"250.50"},
	})

	assert.Equal(t, map[string]string{"monthly_expenditure": "Enter a number."}, fields)
	assert.Equal(t, "Hope Orphanage", sub.OrganizationName)
	assert.Equal(t, "250.5", sub.RequestedAmount.String())

	var blank types.ApplicationSubmission
	fields = decodeForm(&blank, url.Values{"monthly_expenditure": {""}})
	assert.Empty(t, fields)
	assert.True(t, blank.MonthlyExpenditure.IsZero())
}
