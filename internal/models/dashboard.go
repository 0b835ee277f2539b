package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChartData holds index-aligned labels and values
type ChartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// TimeSeriesData holds ascending date keys and the counts for each key.
// Keys without activity are absent rather than zero.
type TimeSeriesData struct {
	Dates  []string `json:"dates"`
	Values []int64  `json:"values"`
}

type DashboardMetrics struct {
	AveragePrice               float64 `json:"averagePrice"`
	AverageDaysOnMarket        float64 `json:"averageDaysOnMarket"`
	AverageUpdateFrequency     float64 `json:"averageUpdateFrequency"`
	TotalNewListingsLast30Days int64   `json:"totalNewListingsLast30Days"`
}

type ListingTrends struct {
	Weekly  TimeSeriesData `json:"weekly"`
	Monthly TimeSeriesData `json:"monthly"`
}

type MortgageAnalytics struct {
	AgeDistribution          ChartData `json:"ageDistribution"`
	BalanceDistribution      ChartData `json:"balanceDistribution"`
	InterestRateDistribution ChartData `json:"interestRateDistribution"`
}

type ListingLifecycle struct {
	StatusDistribution ChartData `json:"statusDistribution"`
	DaysOnMarketByType ChartData `json:"daysOnMarketByType"`
	UpdateFrequency    ChartData `json:"updateFrequency"`
}

// GeographicPoint is reserved for the geographic section, which is not populated yet
type GeographicPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// DashboardData is recomputed from the store on every request
type DashboardData struct {
	TotalListings     int64             `json:"totalListings"`
	Metrics           DashboardMetrics  `json:"metrics"`
	AssumableListings ChartData         `json:"assumableListings"`
	PriceDistribution ChartData         `json:"priceDistribution"`
	ListingTrends     ListingTrends     `json:"listingTrends"`
	MortgageAnalytics MortgageAnalytics `json:"mortgageAnalytics"`
	GeographicData    []GeographicPoint `json:"geographicData"`
	ListingLifecycle  ListingLifecycle  `json:"listingLifecycle"`
}

// ListingTiming is the slice of an active listing the aggregator works on
type ListingTiming struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastStatusChange time.Time
}

// MortgageFacts is the slice of a mortgage the aggregator works on
type MortgageFacts struct {
	CurrentBalance  decimal.Decimal
	InterestRate    decimal.Decimal
	OriginationDate time.Time
	RemainingTerm   int
}

// LabelCount is a grouped count keyed by a label such as a status or loan type
type LabelCount struct {
	Label string
	Count int64
}

// TimestampCount is the number of listings created at one instant
type TimestampCount struct {
	CreatedAt time.Time
	Count     int64
}
