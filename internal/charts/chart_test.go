package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/syntwin/console/internal/client"
)

func TestDownsample(t *testing.T) {
	seq := func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	tests := []struct {
		name    string
		n       int
		wantLen int
		wantEnd int
	}{
		{"empty", 0, 0, -1},
		{"under threshold", 50, 50, 49},
		{"at threshold", 100, 100, 99},
		{"just over", 101, 51, 100},
		{"double", 200, 100, 198},
		{"large", 1050, 96, 1045},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downsample(seq(tt.n), 100)
			assert.Len(t, got, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, 0, got[0])
				assert.Equal(t, tt.wantEnd, got[len(got)-1])
			}
		})
	}
}

func TestActivityWindowsToRecentPoints(t *testing.T) {
	points := make([]client.TimelinePoint, 120)
	for i := range points {
		points[i].Emotion = "neutral"
	}
	points[len(points)-1].Emotion = "happy"

	c := Build(ActivityTimeline, &client.AnalyticsSnapshot{SentimentTimeline: points})
	assert.Len(t, c.Series, 2)
	assert.Len(t, c.Series[0].Y, 50)
	assert.Equal(t, 1.0, c.Series[0].Y[49])
}

func TestActivityFallsBackToHourlyTrend(t *testing.T) {
	c := Build(ActivityTimeline, &client.AnalyticsSnapshot{
		HourlyTrend: []client.HourlyTrend{
			{Hour: "2024-01-01 09:00", TotalDetections: 12},
			{Hour: "2024-01-01 10:00", TotalDetections: 30},
		},
	})
	assert.False(t, c.Placeholder)
	assert.Len(t, c.Series, 1)
	assert.Equal(t, hourlySeries, c.Series[0].Name)
	assert.Equal(t, []float64{12, 30}, c.Series[0].Y)
	assert.Equal(t, 30.0, c.YMax)
}

func TestSentimentTrendDownsamples(t *testing.T) {
	points := make([]client.TimelinePoint, 300)
	c := Build(SentimentTrend, &client.AnalyticsSnapshot{SentimentTimeline: points})
	assert.Len(t, c.Series[0].Y, 100)
	assert.Equal(t, -1.0, c.YMin)
	assert.Equal(t, 1.0, c.YMax)
}

func TestDistributionSkipsZeroCounts(t *testing.T) {
	c := Build(Posture, &client.AnalyticsSnapshot{PostureDistribution: map[string]int{"Slouching": 0}})
	assert.True(t, c.Placeholder)
	assert.Equal(t, []string{NoDataLabel}, c.Labels)
	assert.Equal(t, []float64{0}, c.Values)
}

func TestRenderFallsBackToBlank(t *testing.T) {
	// A pie with no values cannot be drawn.
	png, err := render(&Chart{Kind: Emotion}, 120, 80)
	assert.Error(t, err)
	assert.NotEmpty(t, png)
}

func TestBlankReportsEncodeError(t *testing.T) {
	img, err := blank(0, 0)
	assert.Error(t, err)
	assert.Nil(t, img)

	img, err = blank(4, 4)
	assert.NoError(t, err)
	assert.NotEmpty(t, img)
}

func TestRenderJoinsBlankError(t *testing.T) {
	png, err := render(&Chart{Kind: Emotion}, 0, 0)
	assert.ErrorContains(t, err, "render emotion")
	assert.ErrorContains(t, err, "blank 0x0")
	assert.Nil(t, png)
}

func TestNilSnapshotBuildsPlaceholders(t *testing.T) {
	for _, kind := range Kinds() {
		assert.True(t, Build(kind, nil).Placeholder, kind.String())
	}
}
