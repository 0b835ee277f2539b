package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingStatus is the lifecycle state of a listing
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "ACTIVE"
	ListingStatusPending   ListingStatus = "PENDING"
	ListingStatusSold      ListingStatus = "SOLD"
	ListingStatusWithdrawn ListingStatus = "WITHDRAWN"
	ListingStatusExpired   ListingStatus = "EXPIRED"
	ListingStatusOffMarket ListingStatus = "OFF_MARKET"
)

// Valid reports whether s is one of the known statuses
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusActive, ListingStatusPending, ListingStatusSold,
		ListingStatusWithdrawn, ListingStatusExpired, ListingStatusOffMarket:
		return true
	}
	return false
}

type Listing struct {
	ID           string        `gorm:"type:varchar(36);primaryKey" json:"id" yaml:"id"`
	Address      string        `gorm:"type:varchar(255);not null" json:"address" yaml:"address"`
	City         string        `gorm:"type:varchar(100);index" json:"city" yaml:"city"`
	State        string        `gorm:"type:varchar(50)" json:"state" yaml:"state"`
	ZipCode      string        `gorm:"type:varchar(20)" json:"zipCode" yaml:"zipCode"`
	Price        float64       `gorm:"not null;index" json:"price" yaml:"price"`
	Bedrooms     int           `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms    float64       `json:"bathrooms" yaml:"bathrooms"`
	SquareFeet   int           `json:"squareFeet" yaml:"squareFeet"`
	PropertyType string        `gorm:"type:varchar(50)" json:"propertyType" yaml:"propertyType"`
	Description  string        `gorm:"type:text" json:"description,omitempty" yaml:"description"`
	PhotoURLs    []string      `gorm:"column:photo_urls;serializer:json" json:"photoUrls" yaml:"photoUrls"`
	Status       ListingStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status" yaml:"status"`

	// Denormalized assumable mortgage classification, nil when the listing has none
	AssumableLoanType *string `gorm:"type:varchar(50);index" json:"assumableLoanType" yaml:"assumableLoanType"`

	CreatedAt        time.Time `gorm:"not null;index" json:"createdAt" yaml:"createdAt"`
	UpdatedAt        time.Time `gorm:"not null" json:"updatedAt" yaml:"updatedAt"`
	LastStatusChange time.Time `gorm:"not null" json:"lastStatusChange" yaml:"lastStatusChange"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate fills the identifier, status and status-change time of new listings
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = ListingStatusActive
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = tx.NowFunc()
	}
	if l.LastStatusChange.IsZero() {
		l.LastStatusChange = l.CreatedAt
	}
	return nil
}

// BeforeSave stores every timestamp in UTC so range comparisons in SQLite stay lexical
func (l *Listing) BeforeSave(tx *gorm.DB) error {
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	l.LastStatusChange = l.LastStatusChange.UTC()
	return nil
}

// ListingSummary is the projection served by the recent listings endpoint
type ListingSummary struct {
	ID           string        `json:"id"`
	Address      string        `json:"address"`
	City         string        `json:"city"`
	State        string        `json:"state"`
	Price        float64       `json:"price"`
	Bedrooms     int           `json:"bedrooms"`
	Bathrooms    float64       `json:"bathrooms"`
	SquareFeet   int           `json:"squareFeet"`
	PropertyType string        `json:"propertyType"`
	PhotoURLs    []string      `json:"photoUrls"`
	Status       ListingStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Summary projects the listing onto the recent listings fields
func (l *Listing) Summary() ListingSummary {
	return ListingSummary{
		ID:           l.ID,
		Address:      l.Address,
		City:         l.City,
		State:        l.State,
		Price:        l.Price,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		SquareFeet:   l.SquareFeet,
		PropertyType: l.PropertyType,
		PhotoURLs:    l.PhotoURLs,
		Status:       l.Status,
		CreatedAt:    l.CreatedAt,
	}
}
