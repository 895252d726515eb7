// Package charts builds the analytics chart surfaces. Each refresh turns an
// AnalyticsSnapshot into four render objects (PNG images plus the data they
// were drawn from) and swaps them onto a Canvas, disposing the previous
// object on a surface before its replacement is built.
package charts

import (
	"sort"

	"github.com/syntwin/console/internal/client"
)

// Kind identifies a drawing surface.
type Kind int

const (
	Emotion Kind = iota
	Posture
	SentimentTrend
	ActivityTimeline
	numKinds
)

// Kinds lists every surface in refresh order.
func Kinds() []Kind {
	return []Kind{Emotion, Posture, SentimentTrend, ActivityTimeline}
}

func (k Kind) String() string {
	switch k {
	case Emotion:
		return "emotion"
	case Posture:
		return "posture"
	case SentimentTrend:
		return "sentiment-trend"
	case ActivityTimeline:
		return "activity-timeline"
	default:
		return "unknown"
	}
}

// Title is the surface heading.
func (k Kind) Title() string {
	switch k {
	case Emotion:
		return "Emotion Distribution"
	case Posture:
		return "Posture Distribution"
	case SentimentTrend:
		return "Sentiment Trend"
	case ActivityTimeline:
		return "Activity Timeline"
	default:
		return ""
	}
}

// Placeholder labels.
const (
	NoDataLabel     = "No data"
	StartDetecting  = "Start detecting to see activity"
	maxPoints       = 100
	activityWindow  = 50
	emotionSeries   = "Emotion level"
	sentimentSeries = "Sentiment"
	hourlySeries    = "Detections per hour"
)

// Series is one line of a line chart.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Chart is a render object bound to one surface. Pie and bar charts use
// Labels/Values; line charts use Series.
type Chart struct {
	Kind        Kind
	Title       string
	Labels      []string
	Values      []float64
	Series      []Series
	YMin, YMax  float64
	Placeholder bool

	PNG []byte

	disposed bool
}

// Dispose releases the rendered image. A disposed chart must not be mounted
// again.
func (c *Chart) Dispose() {
	c.PNG = nil
	c.disposed = true
}

// Disposed reports whether Dispose was called.
func (c *Chart) Disposed() bool { return c.disposed }

// Build constructs the data for kind from snap. It never fails: an empty or
// missing dataset yields the surface's placeholder.
func Build(kind Kind, snap *client.AnalyticsSnapshot) *Chart {
	if snap == nil {
		snap = &client.AnalyticsSnapshot{}
	}
	switch kind {
	case Emotion:
		return distribution(Emotion, snap.EmotionDistribution)
	case Posture:
		return distribution(Posture, snap.PostureDistribution)
	case SentimentTrend:
		return sentimentTrend(snap.SentimentTimeline)
	default:
		return activity(snap.SentimentTimeline, snap.HourlyTrend)
	}
}

func distribution(kind Kind, dist map[string]int) *Chart {
	c := &Chart{Kind: kind, Title: kind.Title(), YMin: 0, YMax: 1}
	type entry struct {
		label string
		n     int
	}
	var entries []entry
	for label, n := range dist {
		if n > 0 {
			entries = append(entries, entry{label, n})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].label < entries[j].label
	})
	if len(entries) == 0 {
		c.Placeholder = true
		c.Labels = []string{NoDataLabel}
		if kind == Emotion {
			c.Values = []float64{1}
		} else {
			c.Values = []float64{0}
		}
		return c
	}
	for _, e := range entries {
		c.Labels = append(c.Labels, e.label)
		c.Values = append(c.Values, float64(e.n))
		if float64(e.n) > c.YMax {
			c.YMax = float64(e.n)
		}
	}
	return c
}

func sentimentTrend(points []client.TimelinePoint) *Chart {
	c := &Chart{Kind: SentimentTrend, Title: SentimentTrend.Title(), YMin: -1, YMax: 1}
	points = Downsample(points, maxPoints)
	if len(points) == 0 {
		return placeholderLine(c)
	}
	s := Series{Name: sentimentSeries}
	for i, p := range points {
		s.X = append(s.X, float64(i))
		s.Y = append(s.Y, p.SentimentValue())
	}
	c.Series = []Series{s}
	return c
}

func activity(points []client.TimelinePoint, trend []client.HourlyTrend) *Chart {
	c := &Chart{Kind: ActivityTimeline, Title: ActivityTimeline.Title(), YMin: -1, YMax: 1}
	switch {
	case len(points) > 0:
		if len(points) > activityWindow {
			points = points[len(points)-activityWindow:]
		}
		level := Series{Name: emotionSeries}
		sentiment := Series{Name: sentimentSeries}
		for i, p := range points {
			level.X = append(level.X, float64(i))
			level.Y = append(level.Y, client.EmotionLevel(p.Emotion))
			sentiment.X = append(sentiment.X, float64(i))
			sentiment.Y = append(sentiment.Y, p.SentimentValue())
		}
		c.Series = []Series{level, sentiment}
	case len(trend) > 0:
		trend = Downsample(trend, maxPoints)
		s := Series{Name: hourlySeries}
		c.YMin, c.YMax = 0, 1
		for i, h := range trend {
			s.X = append(s.X, float64(i))
			s.Y = append(s.Y, float64(h.TotalDetections))
			if float64(h.TotalDetections) > c.YMax {
				c.YMax = float64(h.TotalDetections)
			}
		}
		c.Series = []Series{s}
	default:
		return placeholderLine(c)
	}
	return c
}

func placeholderLine(c *Chart) *Chart {
	c.Placeholder = true
	c.Series = []Series{{Name: StartDetecting, X: []float64{0, 1}, Y: []float64{0, 0}}}
	return c
}

// Downsample returns at most about max evenly spaced elements of in. Inputs
// at or under max are returned unchanged; otherwise every step-th element is
// kept, where step is ceil(len/max).
func Downsample[T any](in []T, max int) []T {
	n := len(in)
	if max <= 0 || n <= max {
		return in
	}
	step := (n + max - 1) / max
	out := make([]T, 0, (n+step-1)/step)
	for i := 0; i < n; i += step {
		out = append(out, in[i])
	}
	return out
}
