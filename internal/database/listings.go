package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"listingpulse/server/internal/models"
)

// GetAllListings returns every listing, newest first
func (d *Database) GetAllListings(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	if err := d.db.WithContext(ctx).Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	return listings, nil
}

// GetListingByID returns nil without an error when no listing has the id
func (d *Database) GetListingByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query listing %s: %w", id, err)
	}
	return &listing, nil
}

// SearchListings matches query case-insensitively against the address fields and property type
func (d *Database) SearchListings(ctx context.Context, query string) ([]models.Listing, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var listings []models.Listing
	err := d.db.WithContext(ctx).
		Where("LOWER(address) LIKE ? OR LOWER(city) LIKE ? OR LOWER(state) LIKE ? OR LOWER(zip_code) LIKE ? OR LOWER(property_type) LIKE ?",
			pattern, pattern, pattern, pattern, pattern).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	return listings, nil
}

func (d *Database) CreateListing(ctx context.Context, listing *models.Listing) error {
	if err := d.db.WithContext(ctx).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// UpdateListing replaces a listing. The creation time is preserved and the
// status change time moves to now when the status differs from the stored one.
func (d *Database) UpdateListing(ctx context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		return ErrMissingID
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Listing
		err := tx.Where("id = ?", listing.ID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load listing %s: %w", listing.ID, err)
		}

		listing.CreatedAt = existing.CreatedAt
		if listing.Status == "" {
			listing.Status = existing.Status
		}
		if listing.Status != existing.Status {
			listing.LastStatusChange = tx.NowFunc()
		} else {
			listing.LastStatusChange = existing.LastStatusChange
		}

		if err := tx.Save(listing).Error; err != nil {
			return fmt.Errorf("failed to update listing %s: %w", listing.ID, err)
		}
		return nil
	})
}

func (d *Database) DeleteListing(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}

	result := d.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Listing{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

// GetRecentListings returns the most recently created listings as summaries
func (d *Database) GetRecentListings(ctx context.Context, limit int) ([]models.ListingSummary, error) {
	var listings []models.Listing
	err := d.db.WithContext(ctx).
		Select("id", "address", "city", "state", "price", "bedrooms", "bathrooms",
			"square_feet", "property_type", "photo_urls", "status", "created_at").
		Order("created_at DESC").
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent listings: %w", err)
	}

	summaries := make([]models.ListingSummary, len(listings))
	for i := range listings {
		summaries[i] = listings[i].Summary()
	}
	return summaries, nil
}

// UpsertListings inserts a batch of listings, replacing rows with the same id.
// It runs on the caller's transaction.
func UpsertListings(tx *gorm.DB, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&listings).Error
}

func (d *Database) CreateMortgages(ctx context.Context, mortgages []models.AssumableMortgage) error {
	if len(mortgages) == 0 {
		return nil
	}
	if err := d.db.WithContext(ctx).Create(&mortgages).Error; err != nil {
		return fmt.Errorf("failed to create mortgages: %w", err)
	}
	return nil
}
