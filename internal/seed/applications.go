package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"urdf/internal/lifecycle"
	"urdf/internal/store"
	"urdf/internal/utils"
	"urdf/pkg/types"

	"github.com/shopspring/decimal"
)

// DescriptionMarker prefixes the project description of every generated
// application so a reset only removes seeded rows.
const DescriptionMarker = "[seed] "

const maxReferenceAttempts = 5

var fakeOrganizations = []string{
	"Hope Orphanage",
	"Bright Future Community School",
	"Riverside Women's Cooperative",
	"Clean Water Initiative",
	"Mercy Health Outreach",
	"New Dawn Vocational Centre",
	"Harvest Relief Network",
	"St. Mary's Children's Home",
}

var fakeCountries = []struct {
	Country  string
	Location string
}{
	{Country: "Kenya", Location: "Kisumu"},
	{Country: "Uganda", Location: "Gulu"},
	{Country: "Nigeria", Location: "Jos"},
	{Country: "Ghana", Location: "Tamale"},
	{Country: "Philippines", Location: "Tacloban"},
	{Country: "Haiti", Location: "Les Cayes"},
}

var fakeProjects = []string{
	"Feeding and schooling costs for children in our care.",
	"Repairs to classrooms damaged during the rainy season.",
	"Borehole drilling and water storage for three villages.",
	"Sewing machines and training for a women's cooperative.",
	"Medical supplies for a rural outreach clinic.",
	"Emergency food parcels after flooding displaced families.",
}

var fakeNotes = map[types.ApplicationStatus][]string{
	types.ApplicationStatusAllocated: {"Funds approved for the first quarter."},
	types.ApplicationStatusDisbursed: {"Transfer sent. Please confirm receipt by email."},
	types.ApplicationStatusIssue: {
		"Registration certificate is illegible. Please resend.",
		"Payout details could not be verified.",
	},
}

type weightedStatus struct {
	Status types.ApplicationStatus
	Weight int
}

var weightedStatuses = []weightedStatus{
	{Status: types.ApplicationStatusPending, Weight: 45},
	{Status: types.ApplicationStatusAllocated, Weight: 25},
	{Status: types.ApplicationStatusDisbursed, Weight: 20},
	{Status: types.ApplicationStatusIssue, Weight: 10},
}

// DemoApplication is the fixed record used to try the public status lookup.
func DemoApplication() *types.Application {
	created := time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)
	requested := decimal.NewFromInt(10000)

	return &types.Application{
		ID:                 "Jq3uV0xW8kTz1mYbNcRpLs5aHdGf7eQ2",
		ReferenceNumber:    "URDF-2024-000123",
		OrganizationName:   "Hope Orphanage",
		ApplicantName:      "Grace Achieng",
		Email:              "grace@hope-orphanage.example",
		Phone:              "+254 700 000 123",
		Country:            "Kenya",
		Location:           "Kisumu",
		ProjectDescription: "Feeding and schooling costs for 40 children in our care.",
		MonthlyExpenditure: decimal.NewFromInt(2500),
		RequestedAmount:    requested,
		ProcessingFee:      lifecycle.ProcessingFee(requested),
		PayoutMethod:       types.PayoutMethodMobileMoney,
		PayoutDetails: types.PayoutDetails{
			Provider:       "M-Pesa",
			PhoneNumber:    "+254 700 000 123",
			RegisteredName: "Grace Achieng",
		},
		Status:    types.ApplicationStatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// SeedDemoApplication inserts the fixed demo record if it is missing.
func SeedDemoApplication(ctx context.Context, repo *store.ApplicationRepository) error {
	app := DemoApplication()

	created, err := repo.EnsureApplication(ctx, app)
	if err != nil {
		return fmt.Errorf("failed to seed demo application %s: %w", app.ReferenceNumber, err)
	}

	if created {
		fmt.Printf("Demo application created: %s\n", app.ReferenceNumber)
	} else {
		fmt.Printf("Demo application already present: %s\n", app.ReferenceNumber)
	}

	return nil
}

// SeedFakeApplications inserts count randomly generated applications spread
// across every status.
func SeedFakeApplications(ctx context.Context, repo *store.ApplicationRepository, prefix string, count int, reset bool) error {
	if reset {
		deleted, err := repo.DeleteApplicationsByDescriptionPrefix(ctx, DescriptionMarker)
		if err != nil {
			return fmt.Errorf("failed to reset seeded fake applications: %w", err)
		}
		fmt.Printf("Reset seeded fake applications: %d deleted\n", deleted)
	}

	if count <= 0 {
		fmt.Println("Skipping fake applications seed because count <= 0")
		return nil
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	created := 0
	for i := 0; i < count; i++ {
		app := fakeApplication(rng, prefix)

		var err error
		for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
			_, err = repo.EnsureApplication(ctx, app)
			if !errors.Is(err, types.ErrReferenceConflict) {
				break
			}
			app.ReferenceNumber = lifecycle.NewReferenceNumber(prefix, app.CreatedAt)
		}
		if err != nil {
			return fmt.Errorf("failed to create fake application %d: %w", i+1, err)
		}

		created++
	}

	fmt.Printf("Fake applications seeded: %d created\n", created)
	return nil
}

func fakeApplication(rng *rand.Rand, prefix string) *types.Application {
	status := pickWeightedStatus(rng)
	place := fakeCountries[rng.Intn(len(fakeCountries))]
	org := fakeOrganizations[rng.Intn(len(fakeOrganizations))]

	createdAt := time.Now().UTC().Add(-time.Duration(rng.Intn(60*24)) * time.Hour)
	updatedAt := createdAt
	if status != types.ApplicationStatusPending {
		updatedAt = createdAt.Add(time.Duration(rng.Intn(7*24)+1) * time.Hour)
	}

	requested := decimal.NewFromInt(int64((rng.Intn(490) + 10) * 100))
	monthly := decimal.NewFromInt(int64((rng.Intn(90) + 5) * 100))

	app := &types.Application{
		ID:                 utils.NanoID(),
		ReferenceNumber:    lifecycle.NewReferenceNumber(prefix, createdAt),
		OrganizationName:   org,
		ApplicantName:      "Seed Applicant",
		Email:              fmt.Sprintf("applicant+%s@example.org", utils.NanoIDSize(6)),
		Phone:              "+000 000 0000",
		Country:            place.Country,
		Location:           place.Location,
		ProjectDescription: DescriptionMarker + fakeProjects[rng.Intn(len(fakeProjects))],
		MonthlyExpenditure: monthly,
		RequestedAmount:    requested,
		ProcessingFee:      lifecycle.ProcessingFee(requested),
		Status:             status,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}

	app.PayoutMethod = types.PayoutMethods[rng.Intn(len(types.PayoutMethods))]
	app.PayoutDetails = fakePayoutDetails(app.PayoutMethod)

	if notes := fakeNotes[status]; len(notes) > 0 && rng.Intn(100) < 70 {
		app.AdminNotes = utils.StringPtr(notes[rng.Intn(len(notes))])
	}

	return app
}

func fakePayoutDetails(method types.PayoutMethod) types.PayoutDetails {
	switch method {
	case types.PayoutMethodBank:
		return types.PayoutDetails{BankName: "Seed Bank", AccountName: "Seed Applicant", AccountNumber: "0000000000", SwiftCode: "SEEDXXXX"}
	case types.PayoutMethodCrypto:
		return types.PayoutDetails{WalletAddress: "0x0000000000000000000000000000000000000000"}
	case types.PayoutMethodMobileMoney:
		return types.PayoutDetails{Provider: "M-Pesa", PhoneNumber: "+000 000 0000", RegisteredName: "Seed Applicant"}
	default:
		return types.PayoutDetails{Description: "Collect from partner agent."}
	}
}

func pickWeightedStatus(rng *rand.Rand) types.ApplicationStatus {
	total := 0
	for _, s := range weightedStatuses {
		total += s.Weight
	}

	n := rng.Intn(total)
	for _, s := range weightedStatuses {
		if n < s.Weight {
			return s.Status
		}
		n -= s.Weight
	}

	return types.ApplicationStatusPending
}
