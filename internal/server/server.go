package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"urdf/internal/auth"
	"urdf/internal/lifecycle"
	"urdf/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = newDecoder()

func newDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
		v := strings.TrimSpace(vals[0])
		if v == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(v)
	}, decimal.Decimal{})
	return d
}

// numericFields are decoded into decimal amounts.
var numericFields = map[string]bool{
	"monthly_expenditure": true,
	"requested_amount":    true,
}

// decodeForm fills dst from values. Values that cannot be converted to their
// field type are reported per field instead of being left at the zero value.
func decodeForm(dst any, values url.Values) map[string]string {
	fields := map[string]string{}

	err := decoder.Decode(dst, values)
	if err == nil {
		return fields
	}

	var derrs form.DecodeErrors
	if !errors.As(err, &derrs) {
		fields["form"] = "We could not read this form."
		return fields
	}

	for field := range derrs {
		if numericFields[field] {
			fields[field] = "Enter a number."
			continue
		}
		fields[field] = "This value is invalid."
	}

	return fields
}

type identityVerifier interface {
	Verify(ctx context.Context, accessToken string) (types.Identity, error)
}

type authenticator interface {
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string) error
	ConfirmSignUp(ctx context.Context, email, code string) error
}

type documentStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type formsStore interface {
	CreateContactMessage(ctx context.Context, msg *types.ContactMessage) error
	CreatePartnershipInquiry(ctx context.Context, inquiry *types.PartnershipInquiry) error
	LatestContactMessages(ctx context.Context, limit uint64) ([]*types.ContactMessage, error)
	LatestPartnershipInquiries(ctx context.Context, limit uint64) ([]*types.PartnershipInquiry, error)
}

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	manager   *lifecycle.Manager
	forms     formsStore
	templates *template.Template

	auth     authenticator
	verifier identityVerifier
	storage  documentStorage
	cookie   *securecookie.SecureCookie

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	manager *lifecycle.Manager,
	forms formsStore,
	authenticator authenticator,
	verifier identityVerifier,
	storage documentStorage,
) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie block key: %w", err)
	}

	s := &Service{
		logger:   logger,
		config:   config,
		manager:  manager,
		forms:    forms,
		auth:     authenticator,
		verifier: verifier,
		storage:  storage,
		cookie:   securecookie.New(hashKey, blockKey),

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.NotFound = http.HandlerFunc(s.handleNotFound)

	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(s.OptionalAuth)

	r.HandleFunc("/", s.handleHome, http.MethodGet)
	r.HandleFunc("/about", s.handleAbout, http.MethodGet)
	r.HandleFunc("/programs", s.handlePrograms, http.MethodGet)
	r.HandleFunc("/partnerships", s.handleGetPartnerships, http.MethodGet)
	r.HandleFunc("/partnerships", s.handlePostPartnerships, http.MethodPost)
	r.HandleFunc("/contact", s.handleGetContact, http.MethodGet)
	r.HandleFunc("/contact", s.handlePostContact, http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/apply", s.handleGetApply, http.MethodGet)
	r.HandleFunc("/apply/organization", s.handlePostApplyOrganization, http.MethodPost)
	r.HandleFunc("/apply/financial", s.handlePostApplyFinancial, http.MethodPost)
	r.HandleFunc("/apply/confirmation/:reference", s.handleGetApplyConfirmation, http.MethodGet)

	r.HandleFunc("/status", s.handleStatus, http.MethodGet)
	r.HandleFunc("/api/status", s.handleAPIStatus, http.MethodGet)

	r.HandleFunc("/admin/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/admin/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/admin/logout", s.handlePostLogout, http.MethodPost)
	r.HandleFunc("/admin/register", s.handleGetRegister, http.MethodGet)
	r.HandleFunc("/admin/register", s.handlePostRegister, http.MethodPost)
	r.HandleFunc("/admin/register/confirm", s.handleGetRegisterConfirm, http.MethodGet)
	r.HandleFunc("/admin/register/confirm", s.handlePostRegisterConfirm, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)
		r.Use(s.RequireAdmin)

		r.HandleFunc("/admin", s.handleAdminDashboard, http.MethodGet)
		r.HandleFunc("/admin/messages", s.handleAdminMessages, http.MethodGet)
		r.HandleFunc("/admin/applications/:id", s.handleGetAdminApplication, http.MethodGet)
		r.HandleFunc("/admin/applications/:id", s.handlePostAdminApplication, http.MethodPost)
		r.HandleFunc("/admin/applications/:id/documents/:documentID", s.handleAdminDocument, http.MethodGet)
	})

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"derefOr": func(s *string, defaultVal string) string {
			if s == nil {
				return defaultVal
			}
			return *s
		},
		"money": formatMoney,
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"datetime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04 MST")
		},
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
		"kb": func(n int64) int64 {
			return (n + 1023) / 1024
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// storeContext bounds a request's calls to the record store.
func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.config.StoreTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func renderToBuffer(t *template.Template, name string, data any) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := t.ExecuteTemplate(buf, name, data); err != nil {
		return nil, err
	}
	return buf, nil
}
