package lifecycle

import (
	"errors"
	"reflect"
	"strings"

	"urdf/pkg/types"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

// MaxAmount is the exclusive upper bound on any amount. The amount columns
// are numeric(14, 2).
var MaxAmount = decimal.New(1, 12)

const maxAmountMessage = "Amount must be less than 1,000,000,000,000."

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"organization_name":   "Organization name is required.",
	"applicant_name":      "Your full name is required.",
	"email":               "Enter a valid email address.",
	"phone":               "Phone number is required.",
	"country":             "Country is required.",
	"location":            "City or region is required.",
	"project_description": "Please describe your project.",
	"payout_method":       "Choose a payout method.",
	"name":                "Name is required.",
	"subject":             "Subject is required.",
	"message":             "Message is required.",
	"contact_name":        "Contact name is required.",
	"partnership_type":    "Choose a partnership type.",
	"website":             "Enter a valid website URL.",
	"password":            "Password must be at least 12 characters and include uppercase, lowercase, number, and symbol.",
	"confirm_password":    "Passwords do not match.",
	"code":                "Enter the confirmation code from your email.",
}

// ValidateStruct runs the validate tags on v and converts any failures into a
// *ValidationError keyed by form field name.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		msg, ok := fieldMessages[field]
		if !ok {
			msg = "This field is invalid."
		}
		if fe.Tag() == "max" {
			msg = "This field is too long."
		}
		out.Fields[field] = msg
	}

	return out
}

// ValidateOrganization checks the first wizard step on its own.
func ValidateOrganization(sub *types.ApplicationSubmission) error {
	return ValidateStruct(struct {
		OrganizationName   string `form:"organization_name" validate:"required,max=200"`
		ApplicantName      string `form:"applicant_name" validate:"required,max=200"`
		Email              string `form:"email" validate:"required,email,max=320"`
		Phone              string `form:"phone" validate:"required,max=50"`
		Country            string `form:"country" validate:"required,max=100"`
		Location           string `form:"location" validate:"required,max=200"`
		ProjectDescription string `form:"project_description" validate:"required,max=10000"`
	}{
		OrganizationName:   sub.OrganizationName,
		ApplicantName:      sub.ApplicantName,
		Email:              sub.Email,
		Phone:              sub.Phone,
		Country:            sub.Country,
		Location:           sub.Location,
		ProjectDescription: sub.ProjectDescription,
	})
}

// ValidateSubmission checks a complete submission.
func ValidateSubmission(sub *types.ApplicationSubmission) error {
	fields := map[string]string{}

	err := ValidateStruct(sub)
	var verr *ValidationError
	if err != nil {
		if !errors.As(err, &verr) {
			return err
		}
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}

	switch {
	case sub.MonthlyExpenditure.IsNegative():
		fields["monthly_expenditure"] = "Monthly expenditure cannot be negative."
	case !sub.MonthlyExpenditure.LessThan(MaxAmount):
		fields["monthly_expenditure"] = maxAmountMessage
	}

	switch {
	case !sub.RequestedAmount.IsPositive():
		fields["requested_amount"] = "Requested amount must be greater than zero."
	case !sub.RequestedAmount.LessThan(MaxAmount):
		fields["requested_amount"] = maxAmountMessage
	}

	if sub.PayoutMethod != "" && !sub.PayoutMethod.Valid() {
		fields["payout_method"] = "Choose a payout method."
	}

	for k, v := range validatePayoutDetails(sub.PayoutMethod, sub.PayoutDetails) {
		fields[k] = v
	}

	if !sub.RegistrationSent {
		fields["registration_sent"] = "Please confirm you have sent the registration certificate."
	}

	if !sub.IDDocumentSent {
		fields["id_document_sent"] = "Please confirm you have sent a copy of your ID or passport."
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

func validatePayoutDetails(method types.PayoutMethod, d types.PayoutDetails) map[string]string {
	errs := map[string]string{}
	d = d.ForMethod(method)

	switch method {
	case types.PayoutMethodBank:
		if d.BankName == "" {
			errs["payout.bank_name"] = "Bank name is required."
		}
		if d.AccountName == "" {
			errs["payout.account_name"] = "Account name is required."
		}
		if d.AccountNumber == "" {
			errs["payout.account_number"] = "Account number is required."
		}
		if d.SwiftCode == "" {
			errs["payout.swift_code"] = "SWIFT code is required."
		}
	case types.PayoutMethodCrypto:
		if d.WalletAddress == "" {
			errs["payout.wallet_address"] = "Wallet address is required."
		}
	case types.PayoutMethodMobileMoney:
		if d.Provider == "" {
			errs["payout.provider"] = "Mobile money provider is required."
		}
		if d.PhoneNumber == "" {
			errs["payout.phone_number"] = "Mobile money number is required."
		}
		if d.RegisteredName == "" {
			errs["payout.registered_name"] = "Registered name is required."
		}
	case types.PayoutMethodOther:
		if d.Description == "" {
			errs["payout.description"] = "Describe how you would like to receive funds."
		}
	}

	return errs
}

// TrimOrganization trims the fields collected by the first wizard step.
func TrimOrganization(sub *types.ApplicationSubmission) {
	sub.OrganizationName = strings.TrimSpace(sub.OrganizationName)
	sub.ApplicantName = strings.TrimSpace(sub.ApplicantName)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Country = strings.TrimSpace(sub.Country)
	sub.Location = strings.TrimSpace(sub.Location)
	sub.ProjectDescription = strings.TrimSpace(sub.ProjectDescription)
}

func trimSubmission(sub *types.ApplicationSubmission) {
	TrimOrganization(sub)
	sub.MonthlyExpenditure = sub.MonthlyExpenditure.Round(2)
	sub.RequestedAmount = sub.RequestedAmount.Round(2)
	sub.PayoutDetails = sub.PayoutDetails.ForMethod(sub.PayoutMethod)
}
