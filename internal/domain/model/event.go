package model

import (
	"math"
	"time"
)

// DetectedEvent is a calendar-like event the backend extracted from an
// ingested document. Start and end times are nil when the source text did
// not pin them down.
type DetectedEvent struct {
	ID         string
	Title      string
	StartTime  *time.Time
	EndTime    *time.Time
	Recurrence string
	Confidence float64
	SourceText string
}

// ConfidencePercent returns the detection confidence as a whole percentage.
func (e DetectedEvent) ConfidencePercent() int {
	return int(math.Round(e.Confidence * 100))
}
