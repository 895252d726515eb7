package client

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Display placeholders.
const (
	NoData       = "-"
	NotAvailable = "N/A"
)

// DetectionFrame is the decoded payload of a "detection" message. It is
// replaced wholesale on every message; nil fields mean the backend did not
// send them.
type DetectionFrame struct {
	Emotion        *string
	Posture        *string
	Eyes           *string
	SentimentScore *float64
	Image          []byte
}

// DecodeFrame decodes the data object of a detection message. Missing or
// mistyped subfields decode to nil rather than failing the frame.
func DecodeFrame(raw json.RawMessage) DetectionFrame {
	var f DetectionFrame

	var top map[string]json.RawMessage
	if json.Unmarshal(raw, &top) != nil {
		return f
	}

	var b64 string
	if json.Unmarshal(top["frame"], &b64) == nil && b64 != "" {
		if img, err := base64.StdEncoding.DecodeString(b64); err == nil {
			f.Image = img
		}
	}

	var results map[string]json.RawMessage
	if json.Unmarshal(top["results"], &results) == nil {
		f.Emotion = optString(results["emotion"])
		f.Posture = optString(results["posture"])
		f.Eyes = optString(results["eyes"])
	}

	var sentiment map[string]json.RawMessage
	if json.Unmarshal(top["sentiment"], &sentiment) == nil {
		var score float64
		if raw, ok := sentiment["score"]; ok && json.Unmarshal(raw, &score) == nil {
			f.SentimentScore = &score
		}
	}
	return f
}

func optString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) != nil || s == "" {
		return nil
	}
	return &s
}

// FrameDisplay is the rendered text of the detection readout.
type FrameDisplay struct {
	Emotion   string
	Posture   string
	Eyes      string
	Sentiment string
	HasFrame  bool
	ImageSize int
}

// NoFrame is the readout shown while no session is streaming.
var NoFrame = FrameDisplay{
	Emotion:   NoData,
	Posture:   NoData,
	Eyes:      NoData,
	Sentiment: NoData,
}

// Display formats the frame for the readout panel.
func (f DetectionFrame) Display() FrameDisplay {
	d := FrameDisplay{
		Emotion:   orNA(f.Emotion),
		Posture:   orNA(f.Posture),
		Eyes:      orNA(f.Eyes),
		Sentiment: "0.00",
		HasFrame:  true,
		ImageSize: len(f.Image),
	}
	if f.SentimentScore != nil {
		d.Sentiment = fmt.Sprintf("%.2f", *f.SentimentScore)
	}
	return d
}

func orNA(s *string) string {
	if s == nil {
		return NotAvailable
	}
	return *s
}
