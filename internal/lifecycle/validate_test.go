package lifecycle

import (
	"errors"
	"testing"

	"urdf/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Fields
}

func TestValidateSubmission_Valid(t *testing.T) {
	sub := validSubmission()
	trimSubmission(sub)
	assert.NoError(t, ValidateSubmission(sub))
}

func TestValidateSubmission_RequiredFields(t *testing.T) {
	err := ValidateSubmission(&types.ApplicationSubmission{})
	require.ErrorIs(t, err, ErrValidation)

	fields := fieldsOf(t, err)
	for _, f := range []string{
		"organization_name", "applicant_name", "email", "phone", "country",
		"location", "project_description", "payout_method", "requested_amount",
		"registration_sent", "id_document_sent",
	} {
		assert.Contains(t, fields, f)
	}
	assert.NotContains(t, fields, "monthly_expenditure")
	assert.NotContains(t, fields, "photos_sent")
}

func TestValidateSubmission_Amounts(t *testing.T) {
	sub := validSubmission()
	sub.MonthlyExpenditure = decimal.NewFromInt(-1)
	sub.RequestedAmount = decimal.NewFromInt(-5)

	fields := fieldsOf(t, ValidateSubmission(sub))
	assert.Contains(t, fields, "monthly_expenditure")
	assert.Contains(t, fields, "requested_amount")
}

func TestValidateSubmission_AmountUpperBound(t *testing.T) {
	tests := map[string]struct {
		monthly   decimal.Decimal
		requested decimal.Decimal
		want      []string
	}{
		"largest accepted": {
			monthly:   decimal.RequireFromString("999999999999.99"),
			requested: decimal.RequireFromString("999999999999.99"),
		},
		"monthly expenditure too large": {
			monthly:   MaxAmount,
			requested: decimal.NewFromInt(10000),
			want:      []string{"monthly_expenditure"},
		},
		"requested amount too large": {
			monthly:   decimal.NewFromInt(1500),
			requested: decimal.New(5, 15),
			want:      []string{"requested_amount"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sub := validSubmission()
			sub.MonthlyExpenditure = tt.monthly
			sub.RequestedAmount = tt.requested

			err := ValidateSubmission(sub)
			if len(tt.want) == 0 {
				assert.NoError(t, err)
				return
			}

			fields := fieldsOf(t, err)
			assert.Equal(t, tt.want, keys(fields))
			assert.Equal(t, maxAmountMessage, fields[tt.want[0]])
		})
	}
}

func TestTrimOrganization(t *testing.T) {
	sub := &types.ApplicationSubmission{
		OrganizationName:   "  Hope Orphanage ",
		Email:              " grace@hope.example\n",
		ProjectDescription: "\tMeals ",
		RequestedAmount:    decimal.RequireFromString("10.005"),
	}

	TrimOrganization(sub)

	assert.Equal(t, "Hope Orphanage", sub.OrganizationName)
	assert.Equal(t, "grace@hope.example", sub.Email)
	assert.Equal(t, "Meals", sub.ProjectDescription)
	assert.Equal(t, "10.005", sub.RequestedAmount.String())
}

func TestValidateSubmission_PayoutDetails(t *testing.T) {
	tests := []struct {
		method types.PayoutMethod
		want   []string
	}{
		{types.PayoutMethodBank, []string{"payout.bank_name", "payout.account_name", "payout.account_number", "payout.swift_code"}},
		{types.PayoutMethodCrypto, []string{"payout.wallet_address"}},
		{types.PayoutMethodMobileMoney, []string{"payout.provider", "payout.phone_number", "payout.registered_name"}},
		{types.PayoutMethodOther, []string{"payout.description"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			sub := validSubmission()
			sub.PayoutMethod = tt.method
			sub.PayoutDetails = types.PayoutDetails{}

			fields := fieldsOf(t, ValidateSubmission(sub))
			for _, f := range tt.want {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestValidateSubmission_UnknownPayoutMethod(t *testing.T) {
	sub := validSubmission()
	sub.PayoutMethod = "cheque"

	fields := fieldsOf(t, ValidateSubmission(sub))
	assert.Contains(t, fields, "payout_method")
}

func TestValidateOrganization(t *testing.T) {
	sub := validSubmission()
	sub.RequestedAmount = decimal.Zero
	assert.NoError(t, ValidateOrganization(sub))

	sub.Email = "not-an-email"
	fields := fieldsOf(t, ValidateOrganization(sub))
	assert.Equal(t, []string{"email"}, keys(fields))
}

func TestValidateStruct_Forms(t *testing.T) {
	err := ValidateStruct(&types.PartnershipInquiry{
		OrganizationName: "Acme",
		ContactName:      "Sam",
		Email:            "sam@acme.example",
		PartnershipType:  "sponsor",
		Message:          "Hello",
	})

	fields := fieldsOf(t, err)
	assert.Equal(t, []string{"partnership_type"}, keys(fields))

	assert.NoError(t, ValidateStruct(&types.ContactMessage{
		Name:    "Sam",
		Email:   "sam@acme.example",
		Subject: "Question",
		Message: "Hello",
	}))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "validation failed: a: first; b: second", err.Error())
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
