package types

import "time"

type ContactMessage struct {
	ID        string    `db:"id"`
	Name      string    `db:"name" form:"name" validate:"required,max=200"`
	Email     string    `db:"email" form:"email" validate:"required,email,max=320"`
	Subject   string    `db:"subject" form:"subject" validate:"required,max=200"`
	Message   string    `db:"message" form:"message" validate:"required,max=5000"`
	CreatedAt time.Time `db:"created_at" form:"-"`
}

type PartnershipInquiry struct {
	ID               string    `db:"id"`
	OrganizationName string    `db:"organization_name" form:"organization_name" validate:"required,max=200"`
	ContactName      string    `db:"contact_name" form:"contact_name" validate:"required,max=200"`
	Email            string    `db:"email" form:"email" validate:"required,email,max=320"`
	Phone            *string   `db:"phone" form:"phone"`
	Website          *string   `db:"website" form:"website" validate:"omitempty,url"`
	PartnershipType  string    `db:"partnership_type" form:"partnership_type" validate:"required,oneof=corporate foundation ngo government individual"`
	Message          string    `db:"message" form:"message" validate:"required,max=5000"`
	CreatedAt        time.Time `db:"created_at" form:"-"`
}

type ProgramData struct {
	Title       string
	Description string
	Icon        string
	Highlights  []string
}

type StatsData struct {
	CommunitiesServed int
	CountriesReached  int
	ProjectsFunded    int
}

type StepData struct {
	Number      int
	Title       string
	Description string
}

// RegisterForm is an admin account sign-up request.
type RegisterForm struct {
	Email           string `form:"email" validate:"required,email,max=320"`
	Password        string `form:"password" validate:"required,min=12,max=256"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
}

type ConfirmRegisterForm struct {
	Email string `form:"email" validate:"required,email,max=320"`
	Code  string `form:"code" validate:"required,max=16"`
}
