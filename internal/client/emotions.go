package client

import "strings"

// EmotionEntry describes how a detected emotion label is plotted on the
// activity timeline.
type EmotionEntry struct {
	Label string
	Level float64 // -1 (negative) .. 1 (positive)
}

// Emotions lists the labels the backend classifier emits, in display order.
var Emotions = []string{"happy", "focused", "neutral", "drowsy", "sad", "angry"}

// EmotionCatalog returns the static emotion level table.
func EmotionCatalog() []EmotionEntry {
	return []EmotionEntry{
		{Label: "happy", Level: 1.0},
		{Label: "focused", Level: 0.7},
		{Label: "neutral", Level: 0.0},
		{Label: "drowsy", Level: -0.3},
		{Label: "sad", Level: -0.5},
		{Label: "angry", Level: -0.8},
	}
}

var emotionLevels = func() map[string]float64 {
	out := make(map[string]float64)
	for _, e := range EmotionCatalog() {
		out[e.Label] = e.Level
	}
	return out
}()

// EmotionLevel maps an emotion label to its timeline level. Unknown or empty
// labels count as neutral.
func EmotionLevel(emotion string) float64 {
	return emotionLevels[strings.ToLower(strings.TrimSpace(emotion))]
}
