package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"listingpulse/server/config"
	"listingpulse/server/internal/bucket"
	"listingpulse/server/internal/models"
)

// ErrAggregationFailed wraps every error returned by Build.
var ErrAggregationFailed = errors.New("aggregation failed")

// Store is the read side of the listing database the aggregator needs.
// Counts and averages are computed by the store, everything else is bucketed here.
type Store interface {
	ActiveListingCount(ctx context.Context) (int64, error)
	ActiveAveragePrice(ctx context.Context) (float64, error)
	ActiveListingsCreatedSince(ctx context.Context, since time.Time) (int64, error)
	// ActiveListingsInPriceRange counts prices in [min, max); max may be +Inf.
	ActiveListingsInPriceRange(ctx context.Context, min, max float64) (int64, error)
	ActiveListingTimings(ctx context.Context) ([]models.ListingTiming, error)
	// ActiveLoanTypeCounts groups active listings with a non-null loan type.
	ActiveLoanTypeCounts(ctx context.Context) ([]models.LabelCount, error)
	ListingCreationCounts(ctx context.Context, since time.Time) ([]models.TimestampCount, error)
	StatusCounts(ctx context.Context) ([]models.LabelCount, error)
	MortgageFacts(ctx context.Context) ([]models.MortgageFacts, error)
}

type Options struct {
	RecencyWindow time.Duration
	WeeklyWindow  time.Duration
	MonthlyWindow time.Duration
	TopLoanTypes  int
}

func DefaultOptions() Options {
	return Options{
		RecencyWindow: 30 * day,
		WeeklyWindow:  90 * day,
		MonthlyWindow: 365 * day,
		TopLoanTypes:  3,
	}
}

// OptionsFromConfig converts the configured day counts into Options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		RecencyWindow: time.Duration(cfg.Dashboard.RecencyWindowDays) * day,
		WeeklyWindow:  time.Duration(cfg.Dashboard.WeeklyTrendDays) * day,
		MonthlyWindow: time.Duration(cfg.Dashboard.MonthlyTrendDays) * day,
		TopLoanTypes:  cfg.Dashboard.TopLoanTypes,
	}
}

// Aggregator builds the dashboard payload. It keeps no state between calls.
type Aggregator struct {
	store  Store
	opts   Options
	logger *logrus.Logger
	now    func() time.Time
}

func NewAggregator(store Store, opts Options, logger *logrus.Logger) *Aggregator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Aggregator{
		store:  store,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// snapshot collects the results of the concurrent store reads
type snapshot struct {
	activeCount   int64
	averagePrice  float64
	newListings   int64
	priceCounts   []int64
	listings      []models.ListingTiming
	loanTypes     []models.LabelCount
	weeklyCounts  []models.TimestampCount
	monthlyCounts []models.TimestampCount
	statuses      []models.LabelCount
	mortgages     []models.MortgageFacts
}

// Build reads the store concurrently and assembles the dashboard.
// Any failed read fails the whole build; no partial payload is returned.
func (a *Aggregator) Build(ctx context.Context) (*models.DashboardData, error) {
	start := a.now()
	now := start.UTC()

	snap, err := a.fetch(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAggregationFailed, err)
	}

	data := &models.DashboardData{
		TotalListings: snap.activeCount,
		Metrics: models.DashboardMetrics{
			AveragePrice:               snap.averagePrice,
			AverageDaysOnMarket:        averageDaysOnMarket(snap.listings, now),
			AverageUpdateFrequency:     averageUpdateFrequency(snap.listings, now),
			TotalNewListingsLast30Days: snap.newListings,
		},
		AssumableListings: topLoanTypes(snap.loanTypes, a.opts.TopLoanTypes),
		PriceDistribution: priceDistribution(snap.priceCounts),
		ListingTrends: models.ListingTrends{
			Weekly:  groupSeries(snap.weeklyCounts, weekKey),
			Monthly: groupSeries(snap.monthlyCounts, monthKey),
		},
		MortgageAnalytics: mortgageAnalytics(snap.mortgages, now),
		GeographicData:    []models.GeographicPoint{},
		ListingLifecycle:  listingLifecycle(snap.statuses, snap.listings, now),
	}

	a.logger.WithFields(logrus.Fields{
		"active_listings": len(snap.listings),
		"mortgages":       len(snap.mortgages),
		"duration_ms":     a.now().Sub(start).Milliseconds(),
	}).Debug("Built dashboard")

	return data, nil
}

func (a *Aggregator) fetch(ctx context.Context, now time.Time) (*snapshot, error) {
	snap := &snapshot{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.activeCount, err = a.store.ActiveListingCount(ctx)
		return wrap("count active listings", err)
	})
	g.Go(func() (err error) {
		snap.averagePrice, err = a.store.ActiveAveragePrice(ctx)
		return wrap("average active price", err)
	})
	g.Go(func() (err error) {
		snap.newListings, err = a.store.ActiveListingsCreatedSince(ctx, now.Add(-a.opts.RecencyWindow))
		return wrap("count new listings", err)
	})

	ranges := bucket.Price.Ranges()
	snap.priceCounts = make([]int64, len(ranges))
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() (err error) {
			snap.priceCounts[i], err = a.store.ActiveListingsInPriceRange(ctx, r.Min, r.Max)
			return wrap("count price range "+r.Label, err)
		})
	}

	g.Go(func() (err error) {
		snap.listings, err = a.store.ActiveListingTimings(ctx)
		return wrap("load active listings", err)
	})
	g.Go(func() (err error) {
		snap.loanTypes, err = a.store.ActiveLoanTypeCounts(ctx)
		return wrap("group loan types", err)
	})
	g.Go(func() (err error) {
		snap.weeklyCounts, err = a.store.ListingCreationCounts(ctx, now.Add(-a.opts.WeeklyWindow))
		return wrap("load weekly trend", err)
	})
	g.Go(func() (err error) {
		snap.monthlyCounts, err = a.store.ListingCreationCounts(ctx, now.Add(-a.opts.MonthlyWindow))
		return wrap("load monthly trend", err)
	})
	g.Go(func() (err error) {
		snap.statuses, err = a.store.StatusCounts(ctx)
		return wrap("group statuses", err)
	})
	g.Go(func() (err error) {
		snap.mortgages, err = a.store.MortgageFacts(ctx)
		return wrap("load mortgages", err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func wrap(op string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}

func priceDistribution(counts []int64) models.ChartData {
	chart := models.ChartData{
		Labels: bucket.Price.Labels(),
		Values: make([]float64, len(counts)),
	}
	for i, c := range counts {
		chart.Values[i] = float64(c)
	}
	return chart
}
