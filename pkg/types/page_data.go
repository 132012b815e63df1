package types

import "time"

type NavbarData struct {
	IsAuthenticated bool
	IsAdmin         bool
	UserID          string
	UserEmail       string
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

type BasePageData struct {
	Title        string
	Navbar       NavbarData
	SupportEmail string
	Year         int
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

func (d *BasePageData) SetSupport(email string, now time.Time) {
	d.SupportEmail = email
	d.Year = now.Year()
}

type HomePageData struct {
	BasePageData
	Programs []ProgramData
	Stats    StatsData
	Steps    []StepData
	Statuses []StatusCard
}

// StatusCard is a status description ready for display.
type StatusCard struct {
	Status  ApplicationStatus
	Label   string
	Message string
	Icon    string
	Color   string
}

type AboutPageData struct {
	BasePageData
	Values []ProgramData
}

type ProgramsPageData struct {
	BasePageData
	Programs []ProgramData
}

type PartnershipsPageData struct {
	BasePageData
	Notice      string
	Error       string
	Form        PartnershipInquiry
	FieldErrors map[string]string
	Types       []SelectOption
}

type ContactPageData struct {
	BasePageData
	Notice      string
	Error       string
	Form        ContactMessage
	FieldErrors map[string]string
	FAQs        []FAQ
}

type FAQ struct {
	Question string
	Answer   string
}

type SelectOption struct {
	Value    string
	Label    string
	Selected bool
}

type ApplyPageData struct {
	BasePageData
	Step          int
	Form          ApplicationSubmission
	Error         string
	FieldErrors   map[string]string
	PayoutOptions []SelectOption
	FeePercent    string
}

type ApplyConfirmationPageData struct {
	BasePageData
	ReferenceNumber string
	Email           string
	ProcessingFee   string
	RequestedAmount string
	Status          *StatusCard
	DocumentsFailed bool
}

type StatusPageData struct {
	BasePageData
	Reference string
	Result    *PublicView
	Status    *StatusCard
	NotFound  bool
	Error     string
}

type LoginPageData struct {
	BasePageData
	Message string
	Error   string
	Email   string
}

type RegisterPageData struct {
	BasePageData
	Email       string
	Error       string
	FieldErrors map[string]string
}

type ConfirmRegisterPageData struct {
	BasePageData
	Email string
	Error string
}

type AdminDashboardPageData struct {
	BasePageData
	Notice       string
	Error        string
	Search       string
	StatusFilter string
	Filters      []AdminStatusFilter
	Applications []AdminApplicationRow
	Page         int
	PrevPage     int
	NextPage     int
	HasPrev      bool
	HasNext      bool
}

type AdminStatusFilter struct {
	Value  string
	Label  string
	Count  int
	Active bool
}

type AdminApplicationRow struct {
	ID               string
	ReferenceNumber  string
	OrganizationName string
	ApplicantName    string
	Email            string
	Country          string
	RequestedAmount  string
	Status           StatusCard
	CreatedAt        time.Time
}

type AdminApplicationPageData struct {
	BasePageData
	Notice         string
	Error          string
	Application    *Application
	Status         StatusCard
	Statuses       []SelectOption
	PayoutLabel    string
	Documents      []AdminDocumentRow
	MonthlyExpense string
	Requested      string
	ProcessingFee  string
}

type AdminDocumentRow struct {
	ID         string
	FileName   string
	TypeLabel  string
	SizeBytes  int64
	UploadedAt time.Time
}

type AdminMessagesPageData struct {
	BasePageData
	Messages  []*ContactMessage
	Inquiries []*PartnershipInquiry
}

type ErrorPageData struct {
	BasePageData
	Heading string
	Message string
}
