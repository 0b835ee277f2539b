package bucket

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceBucket(t *testing.T) {
	tests := []struct {
		price    float64
		expected string
	}{
		{0, "0-250k"},
		{249999.99, "0-250k"},
		{250000, "250k-500k"},
		{499999, "250k-500k"},
		{500000, "500k-750k"},
		{750000, "750k-1M"},
		{999999.99, "750k-1M"},
		{1000000, "1M+"},
		{25000000, "1M+"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PriceBucket(tt.price), "price %v", tt.price)
	}
}

func TestMortgageAgeBucket(t *testing.T) {
	tests := []struct {
		years    float64
		expected string
	}{
		{0, "0-5 years"},
		{5, "0-5 years"},
		{5.01, "5-10 years"},
		{10, "5-10 years"},
		{15, "10-15 years"},
		{20, "15-20 years"},
		{20.5, "20+ years"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MortgageAgeBucket(tt.years), "years %v", tt.years)
	}
}

func TestMortgageBalanceBucket(t *testing.T) {
	assert.Equal(t, "0-100k", MortgageBalanceBucket(100000))
	assert.Equal(t, "100k-250k", MortgageBalanceBucket(100000.01))
	assert.Equal(t, "100k-250k", MortgageBalanceBucket(250000))
	assert.Equal(t, "250k-500k", MortgageBalanceBucket(500000))
	assert.Equal(t, "500k+", MortgageBalanceBucket(500001))
}

func TestInterestRateBucket(t *testing.T) {
	assert.Equal(t, "0-3%", InterestRateBucket(2.75))
	assert.Equal(t, "0-3%", InterestRateBucket(3))
	assert.Equal(t, "3-4%", InterestRateBucket(3.125))
	assert.Equal(t, "4-5%", InterestRateBucket(5))
	assert.Equal(t, "5-6%", InterestRateBucket(6))
	assert.Equal(t, "6%+", InterestRateBucket(7.25))
}

func TestDaysOnMarketBucket(t *testing.T) {
	assert.Equal(t, "0-30 days", DaysOnMarketBucket(0))
	assert.Equal(t, "0-30 days", DaysOnMarketBucket(30))
	assert.Equal(t, "30-60 days", DaysOnMarketBucket(30.5))
	assert.Equal(t, "60-90 days", DaysOnMarketBucket(90))
	assert.Equal(t, "90+ days", DaysOnMarketBucket(91))
}

func TestUpdateFrequencyBucket(t *testing.T) {
	tests := []struct {
		perDay   float64
		expected string
	}{
		{3, "Daily"},
		{1.0, "Daily"},
		{0.5, "Weekly"},
		{0.25, "Weekly"},
		{0.2, "Monthly"},
		{0.033, "Monthly"},
		{0.0329, "Quarterly"},
		{0.01, "Quarterly"},
		{0, "Quarterly"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UpdateFrequencyBucket(tt.perDay), "frequency %v", tt.perDay)
	}
}

func TestScale_OutOfDomainInputs(t *testing.T) {
	assert.Equal(t, "0-250k", PriceBucket(-1))
	assert.Equal(t, "0-250k", PriceBucket(math.NaN()))
	assert.Equal(t, "1M+", PriceBucket(math.Inf(1)))
	assert.Equal(t, "0-5 years", MortgageAgeBucket(-3))
	assert.Equal(t, "20+ years", MortgageAgeBucket(math.Inf(1)))
	assert.Equal(t, "Quarterly", UpdateFrequencyBucket(math.NaN()))
	assert.Equal(t, "Daily", UpdateFrequencyBucket(math.Inf(1)))
}

// Every input lands in exactly one range and that range contains it.
func TestScale_Partition(t *testing.T) {
	scales := map[string]Scale{
		"price":   Price,
		"age":     MortgageAge,
		"balance": MortgageBalance,
		"rate":    InterestRate,
		"days":    DaysOnMarket,
	}
	samples := []float64{0, 0.5, 3, 4, 5, 6, 10, 15, 20, 30, 59.9, 60, 90, 100000, 250000, 499999.5, 500000, 750000, 1e6, 1e9}

	for name, s := range scales {
		for _, v := range samples {
			label := s.Classify(v)
			var matches int
			for i, r := range s.Ranges() {
				var contains bool
				if s.lowerInclusive {
					contains = v >= r.Min && v < r.Max
				} else {
					contains = (v > r.Min || (i == 0 && v == r.Min)) && v <= r.Max
				}
				if contains {
					matches++
					assert.Equal(t, r.Label, label, "%s: %v", name, v)
				}
			}
			assert.Equal(t, 1, matches, "%s: %v must fall in exactly one range", name, v)
		}
	}
}

func TestTally_KeepsZeroCountLabels(t *testing.T) {
	tally := NewTally(MortgageBalance)
	tally.Observe(50000)
	tally.Observe(75000)
	tally.Observe(600000)

	chart := tally.ChartData()
	assert.Equal(t, []string{"0-100k", "100k-250k", "250k-500k", "500k+"}, chart.Labels)
	assert.Equal(t, []float64{2, 0, 0, 1}, chart.Values)
	assert.Equal(t, int64(2), tally.Count("0-100k"))
}

func TestTally_Empty(t *testing.T) {
	chart := NewTally(UpdateFrequency).ChartData()
	assert.Equal(t, []string{"Daily", "Weekly", "Monthly", "Quarterly"}, chart.Labels)
	assert.Equal(t, []float64{0, 0, 0, 0}, chart.Values)
}
