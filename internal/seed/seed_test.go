package seed

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingpulse/server/config"
	"listingpulse/server/internal/database"
	"listingpulse/server/internal/models"
)

const fixtureYAML = `
listings:
  - id: 0b6f1c64-0000-4000-8000-000000000001
    address: 12 Oak St
    city: Austin
    price: 100000
    assumableLoanType: FHA
    createdAt: 2026-10-01T08:00:00Z
  - address: 48 Elm Ave
    city: Dallas
    price: 300000
    status: PENDING
    photoUrls: [https://img.example.com/elm.jpg]
  - address: 7 Lake Rd
    city: Austin
    price: 1200000
mortgages:
  - loanType: FHA
    currentBalance: "215000.50"
    interestRate: 2.875
    originationDate: 2021-05-01T00:00:00Z
    remainingTerm: 300
`

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.BatchProcessing.MaxBatchSize = 1
	cfg.BatchProcessing.QueueSize = 1
	cfg.BatchProcessing.MaxRetries = 0
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestParseFixture(t *testing.T) {
	fixture, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	require.Len(t, fixture.Listings, 3)
	first := fixture.Listings[0]
	assert.Equal(t, "0b6f1c64-0000-4000-8000-000000000001", first.ID)
	require.NotNil(t, first.AssumableLoanType)
	assert.Equal(t, "FHA", *first.AssumableLoanType)
	assert.Equal(t, time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC), first.CreatedAt.UTC())
	assert.Equal(t, models.ListingStatusPending, fixture.Listings[1].Status)
	assert.Equal(t, []string{"https://img.example.com/elm.jpg"}, fixture.Listings[1].PhotoURLs)
	assert.Nil(t, fixture.Listings[2].AssumableLoanType)

	require.Len(t, fixture.Mortgages, 1)
	assert.Equal(t, "215000.5", fixture.Mortgages[0].CurrentBalance.String())
	assert.Equal(t, "2.875", fixture.Mortgages[0].InterestRate.String())
	assert.Equal(t, 300, fixture.Mortgages[0].RemainingTerm)
}

func TestParseFixture_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "listings: [::"},
		{"missing address", "listings:\n  - city: Austin\n"},
		{"unknown status", "listings:\n  - address: 1 Main St\n    status: DEMOLISHED\n"},
		{"negative balance", "mortgages:\n  - loanType: FHA\n    currentBalance: \"-5\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFixture_SampleFile(t *testing.T) {
	fixture, err := LoadFixture("../../database/seed.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, fixture.Listings)
	assert.NotEmpty(t, fixture.Mortgages)

	_, err = LoadFixture("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestSeeder_Run(t *testing.T) {
	db, err := database.NewTestDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	fixture, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	ctx := context.Background()
	result, err := NewSeeder(db, testConfig(), quietLogger()).Run(ctx, fixture)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Listings)
	assert.Equal(t, 1, result.Mortgages)

	listings, err := db.GetAllListings(ctx)
	require.NoError(t, err)
	assert.Len(t, listings, 3)

	count, err := db.ActiveListingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	facts, err := db.MortgageFacts(ctx)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "215000.50", facts[0].CurrentBalance.StringFixed(2))

	// seeding twice replaces listings by id instead of duplicating them
	again, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)
	again.Mortgages = nil
	_, err = NewSeeder(db, testConfig(), quietLogger()).Run(ctx, again)
	require.NoError(t, err)

	_, err = db.GetListingByID(ctx, "0b6f1c64-0000-4000-8000-000000000001")
	require.NoError(t, err)
	count, err = db.ActiveListingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "listings without ids are inserted again")
}

func TestSeeder_RunFailsWhenBatchesFail(t *testing.T) {
	db, err := database.NewTestDB(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	fixture, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	result, err := NewSeeder(db, testConfig(), quietLogger()).Run(context.Background(), fixture)
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "failed to import 3 listing batches")
}

func TestSeeder_RunCancelled(t *testing.T) {
	db, err := database.NewTestDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fixture, err := ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	_, err = NewSeeder(db, testConfig(), quietLogger()).Run(ctx, fixture)
	assert.Error(t, err)
}
