package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAllocated ApplicationStatus = "allocated"
	ApplicationStatusDisbursed ApplicationStatus = "disbursed"
	ApplicationStatusIssue     ApplicationStatus = "issue"
)

// ApplicationStatuses lists every legal status in display order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusAllocated,
	ApplicationStatusDisbursed,
	ApplicationStatusIssue,
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAllocated, ApplicationStatusDisbursed, ApplicationStatusIssue:
		return true
	}
	return false
}

// ParseApplicationStatus accepts only the exact lowercase status names.
func ParseApplicationStatus(v string) (ApplicationStatus, error) {
	s := ApplicationStatus(strings.TrimSpace(v))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}

type PayoutMethod string

const (
	PayoutMethodBank        PayoutMethod = "bank"
	PayoutMethodCrypto      PayoutMethod = "crypto"
	PayoutMethodMobileMoney PayoutMethod = "mobile-money"
	PayoutMethodOther       PayoutMethod = "other"
)

var PayoutMethods = []PayoutMethod{
	PayoutMethodBank,
	PayoutMethodCrypto,
	PayoutMethodMobileMoney,
	PayoutMethodOther,
}

func (m PayoutMethod) Valid() bool {
	switch m {
	case PayoutMethodBank, PayoutMethodCrypto, PayoutMethodMobileMoney, PayoutMethodOther:
		return true
	}
	return false
}

func (m PayoutMethod) Label() string {
	switch m {
	case PayoutMethodBank:
		return "Bank Transfer"
	case PayoutMethodCrypto:
		return "Crypto Wallet"
	case PayoutMethodMobileMoney:
		return "Mobile Money"
	case PayoutMethodOther:
		return "Other / Agent"
	default:
		return "Unknown"
	}
}

// PayoutDetails is stored as jsonb. Which fields are populated depends on the
// payout method of the owning application.
type PayoutDetails struct {
	BankName       string `json:"bank_name,omitempty" form:"bank_name"`
	AccountName    string `json:"account_name,omitempty" form:"account_name"`
	AccountNumber  string `json:"account_number,omitempty" form:"account_number"`
	SwiftCode      string `json:"swift_code,omitempty" form:"swift_code"`
	WalletAddress  string `json:"wallet_address,omitempty" form:"wallet_address"`
	Provider       string `json:"provider,omitempty" form:"provider"`
	PhoneNumber    string `json:"phone_number,omitempty" form:"phone_number"`
	RegisteredName string `json:"registered_name,omitempty" form:"registered_name"`
	Description    string `json:"description,omitempty" form:"description"`
}

// ForMethod returns a copy holding only the fields that belong to method.
func (d PayoutDetails) ForMethod(method PayoutMethod) PayoutDetails {
	switch method {
	case PayoutMethodBank:
		return PayoutDetails{
			BankName:      strings.TrimSpace(d.BankName),
			AccountName:   strings.TrimSpace(d.AccountName),
			AccountNumber: strings.TrimSpace(d.AccountNumber),
			SwiftCode:     strings.ToUpper(strings.TrimSpace(d.SwiftCode)),
		}
	case PayoutMethodCrypto:
		return PayoutDetails{WalletAddress: strings.TrimSpace(d.WalletAddress)}
	case PayoutMethodMobileMoney:
		return PayoutDetails{
			Provider:       strings.TrimSpace(d.Provider),
			PhoneNumber:    strings.TrimSpace(d.PhoneNumber),
			RegisteredName: strings.TrimSpace(d.RegisteredName),
		}
	case PayoutMethodOther:
		return PayoutDetails{Description: strings.TrimSpace(d.Description)}
	}
	return PayoutDetails{}
}

type Application struct {
	ID                 string            `db:"id"`
	ReferenceNumber    string            `db:"reference_number"`
	OrganizationName   string            `db:"organization_name"`
	ApplicantName      string            `db:"applicant_name"`
	Email              string            `db:"email"`
	Phone              string            `db:"phone"`
	Country            string            `db:"country"`
	Location           string            `db:"location"`
	ProjectDescription string            `db:"project_description"`
	MonthlyExpenditure decimal.Decimal   `db:"monthly_expenditure"`
	RequestedAmount    decimal.Decimal   `db:"requested_amount"`
	ProcessingFee      decimal.Decimal   `db:"processing_fee"`
	PayoutMethod       PayoutMethod      `db:"payout_method"`
	PayoutDetails      PayoutDetails     `db:"payout_details"`
	Status             ApplicationStatus `db:"status"`
	AdminNotes         *string           `db:"admin_notes"`
	CreatedAt          time.Time         `db:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at"`
}

// PublicView is the only projection of an application that is shown to an
// unauthenticated caller holding a reference number.
type PublicView struct {
	ReferenceNumber  string            `db:"reference_number" json:"reference_number"`
	Status           ApplicationStatus `db:"status" json:"status"`
	AdminNotes       *string           `db:"admin_notes" json:"admin_notes"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
	OrganizationName string            `db:"organization_name" json:"organization_name"`
}

// ApplicationSubmission is the applicant supplied portion of a new application.
type ApplicationSubmission struct {
	OrganizationName   string          `form:"organization_name" validate:"required,max=200"`
	ApplicantName      string          `form:"applicant_name" validate:"required,max=200"`
	Email              string          `form:"email" validate:"required,email,max=320"`
	Phone              string          `form:"phone" validate:"required,max=50"`
	Country            string          `form:"country" validate:"required,max=100"`
	Location           string          `form:"location" validate:"required,max=200"`
	ProjectDescription string          `form:"project_description" validate:"required,max=10000"`
	MonthlyExpenditure decimal.Decimal `form:"monthly_expenditure"`
	RequestedAmount    decimal.Decimal `form:"requested_amount"`
	PayoutMethod       PayoutMethod    `form:"payout_method" validate:"required"`
	PayoutDetails      PayoutDetails   `form:"payout"`

	RegistrationSent bool `form:"registration_sent"`
	IDDocumentSent   bool `form:"id_document_sent"`
	PhotosSent       bool `form:"photos_sent"`
}

type ApplicationListFilter struct {
	Search string
	Status ApplicationStatus
	Limit  uint64
	Offset uint64
}

type ApplicationStatusCount struct {
	Status ApplicationStatus `db:"status"`
	Count  int               `db:"count"`
}

// ApplicationReview is the admin write applied to an application. Only the
// status, admin notes and updated_at columns are ever changed after creation.
type ApplicationReview struct {
	Status     ApplicationStatus
	AdminNotes *string
	// KeepNotes leaves admin_notes untouched and ignores AdminNotes.
	KeepNotes  bool
	ReviewedAt time.Time
}
