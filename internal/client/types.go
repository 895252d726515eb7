// Package client provides the WebSocket wire types and the HTTP client for the
// SynTwin backend. Types mirror the backend wire protocol; the domain snapshot
// types are what the rest of the console consumes.
package client

import (
	"encoding/json"
	"time"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgDetection MessageType = "detection"
	MsgError     MessageType = "error"
	MsgKeepalive MessageType = "keepalive"
	MsgStatus    MessageType = "status"
)

// WSMessage is the envelope for all server→client WebSocket messages.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Running *bool           `json:"running,omitempty"`
}

// Action is a client→server control verb.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// ControlMessage is the only client→server message.
type ControlMessage struct {
	Action Action `json:"action"`
}

// --- REST envelopes ---

// envelope is the {success, data, message, count} wrapper used by every
// JSON endpoint.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// Priority ranks a suggestion set.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// SuggestionSnapshot is returned by /api/nlp/suggestions.
type SuggestionSnapshot struct {
	Priority    Priority `json:"priority"`
	Context     string   `json:"recommendation_context"`
	Suggestions []string `json:"suggestions"`
}

// StateSnapshot is returned by /api/nlp/state.
type StateSnapshot struct {
	DataPoints      int     `json:"data_points"`
	DominantEmotion string  `json:"dominant_emotion"`
	EnergyLevel     string  `json:"energy_level"`
	AvgSentiment    float64 `json:"avg_sentiment"`
}

// Valid reports whether the snapshot carries any data. A snapshot with no
// data points is treated as absent.
func (s *StateSnapshot) Valid() bool {
	return s != nil && s.DataPoints > 0
}

// DetectionStats is returned by /api/detection/stats.
type DetectionStats struct {
	TotalDetections     int            `json:"total_detections"`
	AverageSentiment    float64        `json:"average_sentiment"`
	EmotionDistribution map[string]int `json:"emotion_distribution"`
	PostureDistribution map[string]int `json:"posture_distribution"`
}

// TimelinePoint is one entry of /api/detection/timeline.
type TimelinePoint struct {
	Timestamp string   `json:"timestamp"`
	Emotion   string   `json:"emotion"`
	Posture   string   `json:"posture,omitempty"`
	Sentiment *float64 `json:"sentiment"`
}

// Time parses the backend timestamp. The zero time is returned when the
// value is missing or malformed.
func (p TimelinePoint) Time() time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, p.Timestamp, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SentimentValue returns the sentiment or 0 when absent.
func (p TimelinePoint) SentimentValue() float64 {
	if p.Sentiment == nil {
		return 0
	}
	return *p.Sentiment
}

// HourlyTrend is one entry of /api/analytics/emotion-trends.
type HourlyTrend struct {
	Hour            string `json:"hour"`
	DominantEmotion string `json:"dominant_emotion,omitempty"`
	Count           int    `json:"count,omitempty"`
	TotalDetections int    `json:"total_detections"`
}

// Time parses the "YYYY-MM-DD HH:00" bucket key.
func (h HourlyTrend) Time() time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", h.Hour, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Detection is one row of /api/detection/recent.
type Detection struct {
	Timestamp           string   `json:"timestamp"`
	Emotion             string   `json:"emotion"`
	Smile               string   `json:"smile,omitempty"`
	Eyes                string   `json:"eyes,omitempty"`
	Posture             string   `json:"posture,omitempty"`
	Sentiment           *float64 `json:"sentiment"`
	EnvironmentFeedback string   `json:"environment_feedback,omitempty"`
}

// AnalyticsSnapshot bundles everything the chart surfaces are built from.
// Each sub-dataset carries its own fetch error; a failed endpoint leaves the
// corresponding fields empty and the others usable.
type AnalyticsSnapshot struct {
	EmotionDistribution map[string]int
	PostureDistribution map[string]int
	SentimentTimeline   []TimelinePoint
	HourlyTrend         []HourlyTrend

	StatsErr    error
	TimelineErr error
	TrendsErr   error
}

// Err returns the first sub-dataset error, if any.
func (a *AnalyticsSnapshot) Err() error {
	switch {
	case a.StatsErr != nil:
		return a.StatsErr
	case a.TimelineErr != nil:
		return a.TimelineErr
	default:
		return a.TrendsErr
	}
}
