package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"urdf/internal/lifecycle"
	"urdf/pkg/types"
)

func partnershipTypes(selected string) []types.SelectOption {
	opts := []types.SelectOption{
		{Value: "corporate", Label: "Corporate Partner"},
		{Value: "foundation", Label: "Foundation"},
		{Value: "ngo", Label: "NGO / Non-profit"},
		{Value: "government", Label: "Government Agency"},
		{Value: "individual", Label: "Individual Donor"},
	}
	for i := range opts {
		opts[i].Selected = opts[i].Value == selected
	}
	return opts
}

func contactFAQs() []types.FAQ {
	return []types.FAQ{
		{Question: "Who can apply for support?", Answer: "Registered community institutions, schools, orphan programs and humanitarian projects."},
		{Question: "How long does review take?", Answer: "Most applications are reviewed within 5-7 business days."},
		{Question: "How do I check my application?", Answer: "Enter the reference number you received on the home page status lookup."},
		{Question: "Where do I send documents?", Answer: "Upload them with your application or email them to us with your organization name in the subject line."},
	}
}

func (s *Service) handleGetContact(w http.ResponseWriter, r *http.Request) {
	data := &types.ContactPageData{
		BasePageData: types.BasePageData{Title: "Contact Us"},
		Notice:       r.URL.Query().Get("notice"),
		FAQs:         contactFAQs(),
	}

	if err := s.renderTemplate(w, r, "page.contact", data); err != nil {
		s.logger.WithError(err).Error("failed to render contact page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handlePostContact(w http.ResponseWriter, r *http.Request) {
	data := &types.ContactPageData{
		BasePageData: types.BasePageData{Title: "Contact Us"},
		FAQs:         contactFAQs(),
	}

	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Info("failed to parse contact form")
		s.renderError(w, r, http.StatusBadRequest, "Invalid form", "We could not read your message. Please try again.")
		return
	}

	msg := &data.Form
	if err := decoder.Decode(msg, r.PostForm); err != nil {
		s.logger.WithError(err).Info("failed to decode contact form")
	}

	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Message = strings.TrimSpace(msg.Message)

	if err := lifecycle.ValidateStruct(msg); err != nil {
		var verr *lifecycle.ValidationError
		if !errors.As(err, &verr) {
			s.logger.WithError(err).Error("failed to validate contact form")
			s.internalServerError(w, r)
			return
		}

		data.Error = "Please fill in all required fields."
		data.FieldErrors = verr.Fields
		if err := s.renderTemplateStatus(w, r, http.StatusBadRequest, "page.contact", data); err != nil {
			s.logger.WithError(err).Error("failed to render contact page with errors")
			s.internalServerError(w, r)
		}
		return
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	if err := s.forms.CreateContactMessage(ctx, msg); err != nil {
		s.logger.WithError(err).Error("failed to submit contact message")
		data.Error = "Unable to send your message right now. Please try again."
		if err := s.renderTemplateStatus(w, r, http.StatusServiceUnavailable, "page.contact", data); err != nil {
			s.logger.WithError(err).Error("failed to render contact page with errors")
			s.internalServerError(w, r)
		}
		return
	}

	http.Redirect(w, r, "/contact?notice="+url.QueryEscape("Message sent! We'll get back to you within 24-48 hours."), http.StatusSeeOther)
}

func (s *Service) handleGetPartnerships(w http.ResponseWriter, r *http.Request) {
	data := &types.PartnershipsPageData{
		BasePageData: types.BasePageData{Title: "Partnerships"},
		Notice:       r.URL.Query().Get("notice"),
		Types:        partnershipTypes(""),
	}

	if err := s.renderTemplate(w, r, "page.partnerships", data); err != nil {
		s.logger.WithError(err).Error("failed to render partnerships page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handlePostPartnerships(w http.ResponseWriter, r *http.Request) {
	data := &types.PartnershipsPageData{
		BasePageData: types.BasePageData{Title: "Partnerships"},
	}

	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Info("failed to parse partnership form")
		s.renderError(w, r, http.StatusBadRequest, "Invalid form", "We could not read your request. Please try again.")
		return
	}

	inquiry := &data.Form
	if err := decoder.Decode(inquiry, r.PostForm); err != nil {
		s.logger.WithError(err).Info("failed to decode partnership form")
	}

	inquiry.OrganizationName = strings.TrimSpace(inquiry.OrganizationName)
	inquiry.ContactName = strings.TrimSpace(inquiry.ContactName)
	inquiry.Email = strings.TrimSpace(inquiry.Email)
	inquiry.Message = strings.TrimSpace(inquiry.Message)
	inquiry.Phone = trimmedOrNil(inquiry.Phone)
	inquiry.Website = trimmedOrNil(inquiry.Website)
	data.Types = partnershipTypes(inquiry.PartnershipType)

	if err := lifecycle.ValidateStruct(inquiry); err != nil {
		var verr *lifecycle.ValidationError
		if !errors.As(err, &verr) {
			s.logger.WithError(err).Error("failed to validate partnership form")
			s.internalServerError(w, r)
			return
		}

		data.Error = "Please fill in all required fields."
		data.FieldErrors = verr.Fields
		if err := s.renderTemplateStatus(w, r, http.StatusBadRequest, "page.partnerships", data); err != nil {
			s.logger.WithError(err).Error("failed to render partnerships page with errors")
			s.internalServerError(w, r)
		}
		return
	}

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	if err := s.forms.CreatePartnershipInquiry(ctx, inquiry); err != nil {
		s.logger.WithError(err).Error("failed to submit partnership inquiry")
		data.Error = "Unable to submit your request right now. Please try again."
		if err := s.renderTemplateStatus(w, r, http.StatusServiceUnavailable, "page.partnerships", data); err != nil {
			s.logger.WithError(err).Error("failed to render partnerships page with errors")
			s.internalServerError(w, r)
		}
		return
	}

	http.Redirect(w, r, "/partnerships?notice="+url.QueryEscape("Partnership request submitted! Our team will contact you within 2-3 business days."), http.StatusSeeOther)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
