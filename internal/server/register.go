package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"urdf/internal/auth"
	"urdf/internal/lifecycle"
	"urdf/pkg/types"
)

const passwordRule = "Password must be at least 12 characters and include uppercase, lowercase, number, and symbol."

func (s *Service) handleGetRegister(w http.ResponseWriter, r *http.Request) {
	if identityFromContext(r.Context()).Authenticated() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "Create Admin Account"},
	}

	if err := s.renderTemplate(w, r, "page.register", data); err != nil {
		s.logger.WithError(err).Error("failed to render register page")
		s.internalServerError(w, r)
		return
	}
}

// handlePostRegister creates an identity provider account. The account has no
// admin role until one is granted from the CLI.
func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form", "We could not read your registration. Please try again.")
		return
	}

	var form types.RegisterForm
	if err := decoder.Decode(&form, r.PostForm); err != nil {
		s.logger.WithError(err).Info("failed to decode register form")
	}
	form.Email = strings.TrimSpace(form.Email)

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "Create Admin Account"},
		Email:        form.Email,
	}

	render := func(msg string, fields map[string]string) {
		data.Error = msg
		data.FieldErrors = fields
		if err := s.renderTemplateStatus(w, r, http.StatusBadRequest, "page.register", data); err != nil {
			s.logger.WithError(err).Error("failed to render register page with errors")
			s.internalServerError(w, r)
		}
	}

	if fields := validateRegistration(&form); len(fields) > 0 {
		s.logger.WithField("field_errors", fields).Info("rejected registration")
		render("Please fix the highlighted fields.", fields)
		return
	}

	if err := s.auth.SignUp(r.Context(), form.Email, form.Password); err != nil {
		msg, fields := s.signUpFailure(err)
		render(msg, fields)
		return
	}

	http.Redirect(w, r, "/admin/register/confirm?"+url.Values{"email": {form.Email}}.Encode(), http.StatusSeeOther)
}

func (s *Service) handleGetRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	data := &types.ConfirmRegisterPageData{
		BasePageData: types.BasePageData{Title: "Confirm Your Account"},
		Email:        strings.TrimSpace(r.URL.Query().Get("email")),
	}

	if err := s.renderTemplate(w, r, "page.register.confirm", data); err != nil {
		s.logger.WithError(err).Error("failed to render register confirm page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handlePostRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form", "We could not read your confirmation. Please try again.")
		return
	}

	var form types.ConfirmRegisterForm
	if err := decoder.Decode(&form, r.PostForm); err != nil {
		s.logger.WithError(err).Info("failed to decode confirm form")
	}
	form.Email = strings.TrimSpace(form.Email)
	form.Code = strings.TrimSpace(form.Code)

	data := &types.ConfirmRegisterPageData{
		BasePageData: types.BasePageData{Title: "Confirm Your Account"},
		Email:        form.Email,
	}

	err := lifecycle.ValidateStruct(&form)
	if err == nil {
		err = s.auth.ConfirmSignUp(r.Context(), form.Email, form.Code)
	}

	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrValidation):
			data.Error = "Enter your email and the confirmation code we sent you."
		case errors.Is(err, auth.ErrCodeMismatch):
			data.Error = "Invalid confirmation code. Please check the code and try again."
		default:
			s.logger.WithError(err).Error("failed to confirm admin sign up")
			data.Error = "Unable to confirm account. Please try again."
		}

		if err := s.renderTemplateStatus(w, r, http.StatusBadRequest, "page.register.confirm", data); err != nil {
			s.logger.WithError(err).Error("failed to render register confirm page with error")
			s.internalServerError(w, r)
		}
		return
	}

	http.Redirect(w, r, "/admin/login?confirmed=true", http.StatusSeeOther)
}

// validateRegistration returns field errors keyed by form name. Password
// strength mirrors the user pool policy so most failures never reach Cognito.
func validateRegistration(form *types.RegisterForm) map[string]string {
	fields := map[string]string{}

	var verr *lifecycle.ValidationError
	if err := lifecycle.ValidateStruct(form); errors.As(err, &verr) {
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}

	if _, ok := fields["password"]; !ok && !strongPassword(form.Password) {
		fields["password"] = passwordRule
	}

	return fields
}

func strongPassword(p string) bool {
	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func (s *Service) signUpFailure(err error) (string, map[string]string) {
	switch {
	case errors.Is(err, auth.ErrInvalidPassword):
		return "Please fix the highlighted fields.", map[string]string{"password": passwordRule}
	case errors.Is(err, auth.ErrUserExists):
		return "Try logging in instead.", map[string]string{"email": "An account with this email already exists."}
	case errors.Is(err, auth.ErrInvalidParameter):
		return "Some details are invalid. Please review and try again.", nil
	}

	s.logger.WithError(err).Error("unhandled sign up error")
	return "Unable to create account right now. Please try again.", nil
}
