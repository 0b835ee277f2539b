package database

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"listingpulse/server/internal/dashboard"
	"listingpulse/server/internal/models"
)

// The queries below back the dashboard aggregator.
var _ dashboard.Store = (*Database)(nil)

func (d *Database) activeListings(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).Model(&models.Listing{}).Where("status = ?", models.ListingStatusActive)
}

func (d *Database) ActiveListingCount(ctx context.Context) (int64, error) {
	var count int64
	err := d.activeListings(ctx).Count(&count).Error
	return count, err
}

func (d *Database) ActiveAveragePrice(ctx context.Context) (float64, error) {
	var avg float64
	err := d.activeListings(ctx).Select("COALESCE(AVG(price), 0)").Row().Scan(&avg)
	return avg, err
}

func (d *Database) ActiveListingsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := d.activeListings(ctx).Where("created_at >= ?", since.UTC()).Count(&count).Error
	return count, err
}

func (d *Database) ActiveListingsInPriceRange(ctx context.Context, min, max float64) (int64, error) {
	q := d.activeListings(ctx).Where("price >= ?", min)
	if !math.IsInf(max, 1) {
		q = q.Where("price < ?", max)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (d *Database) ActiveListingTimings(ctx context.Context) ([]models.ListingTiming, error) {
	var timings []models.ListingTiming
	err := d.activeListings(ctx).
		Select("created_at, updated_at, last_status_change").
		Scan(&timings).Error
	return timings, err
}

func (d *Database) ActiveLoanTypeCounts(ctx context.Context) ([]models.LabelCount, error) {
	var counts []models.LabelCount
	err := d.activeListings(ctx).
		Select("assumable_loan_type AS label, COUNT(*) AS count").
		Where("assumable_loan_type IS NOT NULL").
		Group("assumable_loan_type").
		Scan(&counts).Error
	return counts, err
}

// ListingCreationCounts counts listings of any status per creation timestamp
func (d *Database) ListingCreationCounts(ctx context.Context, since time.Time) ([]models.TimestampCount, error) {
	var counts []models.TimestampCount
	err := d.db.WithContext(ctx).Model(&models.Listing{}).
		Select("created_at, COUNT(*) AS count").
		Where("created_at >= ?", since.UTC()).
		Group("created_at").
		Order("created_at").
		Scan(&counts).Error
	return counts, err
}

// StatusCounts groups every listing by status
func (d *Database) StatusCounts(ctx context.Context) ([]models.LabelCount, error) {
	var counts []models.LabelCount
	err := d.db.WithContext(ctx).Model(&models.Listing{}).
		Select("status AS label, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&counts).Error
	return counts, err
}

func (d *Database) MortgageFacts(ctx context.Context) ([]models.MortgageFacts, error) {
	var facts []models.MortgageFacts
	err := d.db.WithContext(ctx).Model(&models.AssumableMortgage{}).
		Select("current_balance, interest_rate, origination_date, remaining_term").
		Scan(&facts).Error
	return facts, err
}
