package models

// TranscriptSegment is one caption cue. Start and Duration are in seconds.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}
