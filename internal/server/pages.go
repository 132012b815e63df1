package server

import (
	"net/http"

	"urdf/internal/lifecycle"
	"urdf/pkg/types"
)

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	data := &types.HomePageData{
		BasePageData: types.BasePageData{Title: ""},
		Programs:     programs()[:3],
		Stats:        getStats(),
		Steps:        getSteps(),
		Statuses:     statusCards(),
	}

	if err := s.renderTemplate(w, r, "page.home", data); err != nil {
		s.logger.WithError(err).Error("failed to render home page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handleAbout(w http.ResponseWriter, r *http.Request) {
	data := &types.AboutPageData{
		BasePageData: types.BasePageData{Title: "About Us"},
		Values: []types.ProgramData{
			{Title: "Transparency", Icon: "eye", Description: "Every application is reviewed by a person and every applicant can follow its status with a reference number."},
			{Title: "Dignity", Icon: "heart", Description: "We work with community institutions as partners, not recipients."},
			{Title: "Accountability", Icon: "shield", Description: "Funds are allocated against verified documents and disbursed to the payout method the applicant chooses."},
		},
	}

	if err := s.renderTemplate(w, r, "page.about", data); err != nil {
		s.logger.WithError(err).Error("failed to render about page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handlePrograms(w http.ResponseWriter, r *http.Request) {
	data := &types.ProgramsPageData{
		BasePageData: types.BasePageData{Title: "Programs"},
		Programs:     programs(),
	}

	if err := s.renderTemplate(w, r, "page.programs", data); err != nil {
		s.logger.WithError(err).Error("failed to render programs page")
		s.internalServerError(w, r)
		return
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func statusCard(d lifecycle.StatusDescription) types.StatusCard {
	return types.StatusCard{
		Status:  d.Status,
		Label:   d.Label,
		Message: d.Message,
		Icon:    d.Icon,
		Color:   d.Color,
	}
}

func statusCards() []types.StatusCard {
	descs := lifecycle.StatusDescriptions()
	out := make([]types.StatusCard, 0, len(descs))
	for _, d := range descs {
		out = append(out, statusCard(d))
	}
	return out
}

func programs() []types.ProgramData {
	return []types.ProgramData{
		{
			Title:       "Education Support",
			Icon:        "graduation-cap",
			Description: "Funding for community schools, learning materials and teacher stipends.",
			Highlights:  []string{"School supplies", "Teacher stipends", "Classroom repairs"},
		},
		{
			Title:       "Orphan Care",
			Icon:        "home",
			Description: "Running costs for registered orphan programs: food, shelter and health care.",
			Highlights:  []string{"Nutrition", "Shelter upkeep", "Medical care"},
		},
		{
			Title:       "Community Development",
			Icon:        "users",
			Description: "Clean water, sanitation and small infrastructure projects led by local institutions.",
			Highlights:  []string{"Water access", "Sanitation", "Community buildings"},
		},
		{
			Title:       "Emergency Relief",
			Icon:        "alert-triangle",
			Description: "Rapid support for communities affected by conflict, floods and drought.",
			Highlights:  []string{"Food parcels", "Temporary shelter", "Emergency medical supplies"},
		},
		{
			Title:       "Health Initiatives",
			Icon:        "heart-pulse",
			Description: "Support for clinics and outreach programs serving underserved communities.",
			Highlights:  []string{"Clinic equipment", "Outreach campaigns", "Maternal health"},
		},
		{
			Title:       "Livelihood Programs",
			Icon:        "briefcase",
			Description: "Vocational training and seed funding that help families become self-sufficient.",
			Highlights:  []string{"Vocational training", "Seed grants", "Cooperatives"},
		},
	}
}

func getStats() types.StatsData {
	return types.StatsData{
		CommunitiesServed: 120,
		CountriesReached:  18,
		ProjectsFunded:    340,
	}
}

func getSteps() []types.StepData {
	return []types.StepData{
		{
			Number:      1,
			Title:       "Submit your application",
			Description: "Tell us about your organization and project, and send your registration certificate and ID.",
		},
		{
			Number:      2,
			Title:       "We review and verify",
			Description: "Our team evaluates every application and allocates funds to verified projects.",
		},
		{
			Number:      3,
			Title:       "Track your disbursement",
			Description: "Use your reference number to follow your application from review to payout.",
		},
	}
}
