// Package bucket classifies listing and mortgage measurements into the fixed
// histogram ranges shown on the dashboard.
package bucket

import (
	"math"

	"listingpulse/server/internal/models"
)

// Classifier maps a measurement to exactly one of its labels.
type Classifier interface {
	Classify(v float64) string
	Labels() []string
}

// Range is one bucket of a Scale. Max is math.Inf(1) for the open-ended last bucket.
type Range struct {
	Min   float64
	Max   float64
	Label string
}

// Scale is an ordered partition of [0, ∞).
// Lower-inclusive scales use [Min, Max) ranges, the others use (Min, Max] with the
// first range closed at zero.
type Scale struct {
	ranges         []Range
	lowerInclusive bool
}

// Classify returns the label of the range containing v.
// Negative and NaN inputs fall into the first range.
func (s Scale) Classify(v float64) string {
	if math.IsNaN(v) || v < 0 {
		return s.ranges[0].Label
	}
	for _, r := range s.ranges {
		if s.lowerInclusive && v < r.Max {
			return r.Label
		}
		if !s.lowerInclusive && v <= r.Max {
			return r.Label
		}
	}
	return s.ranges[len(s.ranges)-1].Label
}

func (s Scale) Labels() []string {
	labels := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		labels[i] = r.Label
	}
	return labels
}

// Ranges returns a copy of the scale's ranges.
func (s Scale) Ranges() []Range {
	return append([]Range(nil), s.ranges...)
}

// Threshold is a lower bound of a Thresholds classifier.
type Threshold struct {
	Min   float64
	Label string
}

// Thresholds are evaluated top-down; the first Min that v reaches wins,
// anything below every Min gets Fallback.
type Thresholds struct {
	steps    []Threshold
	fallback string
}

func (t Thresholds) Classify(v float64) string {
	for _, s := range t.steps {
		if v >= s.Min {
			return s.Label
		}
	}
	return t.fallback
}

func (t Thresholds) Labels() []string {
	labels := make([]string, 0, len(t.steps)+1)
	for _, s := range t.steps {
		labels = append(labels, s.Label)
	}
	return append(labels, t.fallback)
}

var inf = math.Inf(1)

var (
	Price = Scale{lowerInclusive: true, ranges: []Range{
		{0, 250_000, "0-250k"},
		{250_000, 500_000, "250k-500k"},
		{500_000, 750_000, "500k-750k"},
		{750_000, 1_000_000, "750k-1M"},
		{1_000_000, inf, "1M+"},
	}}

	// MortgageAge is measured in years since origination
	MortgageAge = Scale{ranges: []Range{
		{0, 5, "0-5 years"},
		{5, 10, "5-10 years"},
		{10, 15, "10-15 years"},
		{15, 20, "15-20 years"},
		{20, inf, "20+ years"},
	}}

	MortgageBalance = Scale{ranges: []Range{
		{0, 100_000, "0-100k"},
		{100_000, 250_000, "100k-250k"},
		{250_000, 500_000, "250k-500k"},
		{500_000, inf, "500k+"},
	}}

	// InterestRate is a percentage, 4.5 means 4.5%
	InterestRate = Scale{ranges: []Range{
		{0, 3, "0-3%"},
		{3, 4, "3-4%"},
		{4, 5, "4-5%"},
		{5, 6, "5-6%"},
		{6, inf, "6%+"},
	}}

	DaysOnMarket = Scale{ranges: []Range{
		{0, 30, "0-30 days"},
		{30, 60, "30-60 days"},
		{60, 90, "60-90 days"},
		{90, inf, "90+ days"},
	}}

	// UpdateFrequency is measured in updates per day
	UpdateFrequency = Thresholds{
		steps: []Threshold{
			{1, "Daily"},
			{0.25, "Weekly"},
			{0.033, "Monthly"},
		},
		fallback: "Quarterly",
	}
)

func PriceBucket(price float64) string { return Price.Classify(price) }
func MortgageAgeBucket(years float64) string { return MortgageAge.Classify(years) }
func MortgageBalanceBucket(balance float64) string { return MortgageBalance.Classify(balance) }
func InterestRateBucket(rate float64) string { return InterestRate.Classify(rate) }
func DaysOnMarketBucket(days float64) string { return DaysOnMarket.Classify(days) }
func UpdateFrequencyBucket(perDay float64) string { return UpdateFrequency.Classify(perDay) }

// Tally counts observations per label. Every label of the classifier is present
// from the start so zero counts survive into the chart.
type Tally struct {
	classifier Classifier
	labels     []string
	counts     map[string]int64
}

func NewTally(c Classifier) *Tally {
	labels := c.Labels()
	counts := make(map[string]int64, len(labels))
	for _, l := range labels {
		counts[l] = 0
	}
	return &Tally{classifier: c, labels: labels, counts: counts}
}

// Observe classifies v and counts it.
func (t *Tally) Observe(v float64) {
	t.counts[t.classifier.Classify(v)]++
}

func (t *Tally) Count(label string) int64 {
	return t.counts[label]
}

// ChartData returns the counts in the classifier's label order.
func (t *Tally) ChartData() models.ChartData {
	values := make([]float64, len(t.labels))
	for i, l := range t.labels {
		values[i] = float64(t.counts[l])
	}
	return models.ChartData{
		Labels: append([]string(nil), t.labels...),
		Values: values,
	}
}
