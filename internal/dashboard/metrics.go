package dashboard

import (
	"sort"
	"time"

	"listingpulse/server/internal/bucket"
	"listingpulse/server/internal/models"
)

const (
	day  = 24 * time.Hour
	year = 365 * day

	unknownLoanType = "Unknown"
)

func days(d time.Duration) float64 {
	return d.Hours() / 24
}

// daysOnMarket runs from creation to the later of the last status change and now.
// A status change recorded before creation is bad data and is replaced by now.
func daysOnMarket(l models.ListingTiming, now time.Time) float64 {
	end := l.LastStatusChange
	if end.Before(l.CreatedAt) || now.After(end) {
		end = now
	}
	return max(0, days(end.Sub(l.CreatedAt)))
}

// updateFrequency is days since the last update over days listed, floored at one day.
func updateFrequency(l models.ListingTiming, now time.Time) float64 {
	sinceUpdate := max(0, days(now.Sub(l.UpdatedAt)))
	sinceCreation := max(1, days(now.Sub(l.CreatedAt)))
	return sinceUpdate / sinceCreation
}

// An empty population averages to zero.
func average(listings []models.ListingTiming, now time.Time, f func(models.ListingTiming, time.Time) float64) float64 {
	if len(listings) == 0 {
		return 0
	}
	var sum float64
	for _, l := range listings {
		sum += f(l, now)
	}
	return sum / float64(len(listings))
}

func averageDaysOnMarket(listings []models.ListingTiming, now time.Time) float64 {
	return average(listings, now, daysOnMarket)
}

func averageUpdateFrequency(listings []models.ListingTiming, now time.Time) float64 {
	return average(listings, now, updateFrequency)
}

// topLoanTypes keeps the n largest groups, largest first. Ties are ordered by label.
func topLoanTypes(groups []models.LabelCount, n int) models.ChartData {
	sorted := make([]models.LabelCount, len(groups))
	copy(sorted, groups)
	for i := range sorted {
		if sorted[i].Label == "" {
			sorted[i].Label = unknownLoanType
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Label < sorted[j].Label
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	chart := models.ChartData{
		Labels: make([]string, len(sorted)),
		Values: make([]float64, len(sorted)),
	}
	for i, g := range sorted {
		chart.Labels[i] = g.Label
		chart.Values[i] = float64(g.Count)
	}
	return chart
}

// weekKey is the ISO date of the Sunday starting t's week.
func weekKey(t time.Time) string {
	t = t.UTC()
	sunday := time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, time.UTC)
	return sunday.Format("2006-01-02")
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// groupSeries sums counts per key and orders the keys ascending.
// Keys are fixed-width dates so string order is chronological.
func groupSeries(counts []models.TimestampCount, key func(time.Time) string) models.TimeSeriesData {
	sums := make(map[string]int64)
	for _, c := range counts {
		sums[key(c.CreatedAt)] += c.Count
	}

	series := models.TimeSeriesData{
		Dates:  make([]string, 0, len(sums)),
		Values: make([]int64, 0, len(sums)),
	}
	for k := range sums {
		series.Dates = append(series.Dates, k)
	}
	sort.Strings(series.Dates)
	for _, k := range series.Dates {
		series.Values = append(series.Values, sums[k])
	}
	return series
}

func mortgageAnalytics(mortgages []models.MortgageFacts, now time.Time) models.MortgageAnalytics {
	ages := bucket.NewTally(bucket.MortgageAge)
	balances := bucket.NewTally(bucket.MortgageBalance)
	rates := bucket.NewTally(bucket.InterestRate)

	for _, m := range mortgages {
		ages.Observe(float64(now.Sub(m.OriginationDate)) / float64(year))
		balances.Observe(m.CurrentBalance.InexactFloat64())
		rates.Observe(m.InterestRate.InexactFloat64())
	}

	return models.MortgageAnalytics{
		AgeDistribution:          ages.ChartData(),
		BalanceDistribution:      balances.ChartData(),
		InterestRateDistribution: rates.ChartData(),
	}
}

func listingLifecycle(statuses []models.LabelCount, listings []models.ListingTiming, now time.Time) models.ListingLifecycle {
	statusChart := models.ChartData{
		Labels: make([]string, len(statuses)),
		Values: make([]float64, len(statuses)),
	}
	for i, s := range statuses {
		statusChart.Labels[i] = s.Label
		statusChart.Values[i] = float64(s.Count)
	}

	onMarket := bucket.NewTally(bucket.DaysOnMarket)
	frequency := bucket.NewTally(bucket.UpdateFrequency)
	for _, l := range listings {
		onMarket.Observe(daysOnMarket(l, now))
		frequency.Observe(updateFrequency(l, now))
	}

	return models.ListingLifecycle{
		StatusDistribution: statusChart,
		DaysOnMarketByType: onMarket.ChartData(),
		UpdateFrequency:    frequency.ChartData(),
	}
}
