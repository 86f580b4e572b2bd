package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binapora/binapora-api/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestParseValuePlainNumbers(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want *float64
	}{
		{"dot decimal", "5.50", fptr(5.5)},
		{"comma decimal", "5,50", fptr(5.5)},
		{"integer", "12", fptr(12)},
		{"padded", "  7.25  ", fptr(7.25)},
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"garbage", "abc", nil},
		{"mixed garbage", "12abc", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseValue(tc.raw)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tc.want, *got, 1e-9)
		})
	}
}

func TestParseValueCommaDotEquivalence(t *testing.T) {
	pairs := [][2]string{
		{"5,5", "5.5"},
		{"0,01", "0.01"},
		{"123,456", "123.456"},
	}
	for _, p := range pairs {
		comma, dot := ParseValue(p[0]), ParseValue(p[1])
		require.NotNil(t, comma)
		require.NotNil(t, dot)
		assert.Equal(t, *dot, *comma)
	}
}

func TestParseValueDurations(t *testing.T) {
	cases := []struct {
		raw  string
		want *float64
	}{
		{"00:45", fptr(45)},
		{"02:30", fptr(150)},
		{"01:02:30", fptr(3750)},
		{"00:12.94", fptr(12.94)},
		{"1:2:3:4", nil},
		{"ab:cd", nil},
		{":30", nil},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got := ParseValue(tc.raw)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tc.want, *got, 1e-9)
		})
	}
}

func TestPerformance(t *testing.T) {
	cases := []struct {
		name        string
		measurement *float64
		target      *float64
		direction   models.Direction
		wantBounded *float64
		wantReal    *float64
	}{
		{"max below target", fptr(70), fptr(80), models.DirectionMax, fptr(87.5), fptr(87.5)},
		{"min beats target", fptr(14), fptr(12), models.DirectionMin, fptr(85.71), fptr(85.71)},
		{"max over target clamps", fptr(100), fptr(50), models.DirectionMax, fptr(100), fptr(200)},
		{"min over target clamps", fptr(6), fptr(12), models.DirectionMin, fptr(100), fptr(200)},
		{"zero target", fptr(50), fptr(0), models.DirectionMax, nil, nil},
		{"negative target", fptr(50), fptr(-3), models.DirectionMin, nil, nil},
		{"nil target", fptr(50), nil, models.DirectionMax, nil, nil},
		{"nil measurement", nil, fptr(50), models.DirectionMax, nil, nil},
		{"zero measurement under min", fptr(0), fptr(12), models.DirectionMin, nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bounded, real := Performance(tc.measurement, tc.target, tc.direction)
			if tc.wantBounded == nil {
				assert.Nil(t, bounded)
				assert.Nil(t, real)
				return
			}
			require.NotNil(t, bounded)
			require.NotNil(t, real)
			assert.Equal(t, *tc.wantBounded, *bounded)
			assert.Equal(t, *tc.wantReal, *real)
		})
	}
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		value *float64
		want  *models.Band
	}{
		{nil, nil},
		{fptr(0), bandPtr(models.BandVeryLow)},
		{fptr(29.9), bandPtr(models.BandVeryLow)},
		{fptr(30), bandPtr(models.BandLow)},
		{fptr(59.99), bandPtr(models.BandLow)},
		{fptr(60), bandPtr(models.BandMedium)},
		{fptr(84.9), bandPtr(models.BandMedium)},
		{fptr(85), bandPtr(models.BandNearTarget)},
		{fptr(99.99), bandPtr(models.BandNearTarget)},
		{fptr(100), bandPtr(models.BandTarget)},
	}
	for _, tc := range cases {
		got := Classify(tc.value)
		if tc.want == nil {
			assert.Nil(t, got)
			continue
		}
		require.NotNil(t, got)
		assert.Equal(t, *tc.want, *got)
	}
}

func TestAverage(t *testing.T) {
	assert.Nil(t, Average(nil))
	assert.Nil(t, Average([]*float64{}))
	assert.Nil(t, Average([]*float64{nil, nil}))

	got := Average([]*float64{fptr(80), nil, fptr(100)})
	require.NotNil(t, got)
	assert.Equal(t, 90.0, *got)

	single := Average([]*float64{fptr(42.42)})
	require.NotNil(t, single)
	assert.Equal(t, 42.42, *single)

	midpoint := Average([]*float64{fptr(93.33), fptr(100)})
	require.NotNil(t, midpoint)
	assert.Equal(t, 96.67, *midpoint)
}

// Adding a value to an existing average must land the new average between the
// old average and the added value.
func TestAverageBetweenness(t *testing.T) {
	existing := []*float64{fptr(40), fptr(60), fptr(80)}
	oldAvg := Average(existing)
	require.NotNil(t, oldAvg)

	for _, added := range []float64{0, 55, 59.99, 60.01, 100} {
		newAvg := Average(append(append([]*float64{}, existing...), fptr(added)))
		require.NotNil(t, newAvg)
		lo, hi := *oldAvg, added
		if lo > hi {
			lo, hi = hi, lo
		}
		assert.GreaterOrEqual(t, *newAvg, lo-0.01)
		assert.LessOrEqual(t, *newAvg, hi+0.01)
	}
}

func TestTrend(t *testing.T) {
	cases := []struct {
		name   string
		values []*float64
		want   models.TrendDirection
	}{
		{"rising", []*float64{fptr(70), fptr(80)}, models.TrendUp},
		{"falling", []*float64{fptr(80), fptr(70)}, models.TrendDown},
		{"flat", []*float64{fptr(80), fptr(80)}, models.TrendStable},
		{"within threshold", []*float64{fptr(80), fptr(80.5)}, models.TrendStable},
		{"just over threshold", []*float64{fptr(80), fptr(80.51)}, models.TrendUp},
		{"nil gaps skipped", []*float64{nil, fptr(70), nil, fptr(90), nil}, models.TrendUp},
		{"single value", []*float64{nil, fptr(70), nil}, models.TrendStable},
		{"all nil", []*float64{nil, nil}, models.TrendStable},
		{"empty", nil, models.TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Trend(tc.values))
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 85.71, Round2(85.714285))
	assert.Equal(t, 93.33, Round2(93.3333333))
	assert.Equal(t, 96.67, Round2(96.665))
	assert.Equal(t, 100.0, Round2(100))
	assert.Equal(t, -2.5, Round2(-2.4999999))
}

func bandPtr(b models.Band) *models.Band { return &b }
