package service

import (
	"time"

	"github.com/devdattatalele/zapmygoal/internal/models"
)

// Timestamp failure reasons. The two are kept distinct so logs can
// tell "user stripped EXIF" apart from "user sent an old photo".
const (
	TimestampReasonMissing  = "No timestamp found in image metadata"
	TimestampReasonWrongDay = "Image must be taken today to verify task completion"
)

// TimestampResult is the outcome of the metadata timestamp check.
type TimestampResult struct {
	Valid  bool
	Reason string
}

// TimestampCheck validates that proof media was captured on the
// calendar day of the verification attempt, in the server's reference
// time zone.
type TimestampCheck struct {
	now func() time.Time
}

func NewTimestampCheck() *TimestampCheck {
	return &TimestampCheck{now: time.Now}
}

// NewTimestampCheckAt pins the reference clock, for tests.
func NewTimestampCheckAt(now func() time.Time) *TimestampCheck {
	return &TimestampCheck{now: now}
}

// Check validates the capture timestamp. Callers fall back to the
// file-modification time before this point; a nil CaptureTime here
// means no usable timestamp existed at all.
func (c *TimestampCheck) Check(metadata models.ImageMetadata) TimestampResult {
	if metadata.CaptureTime == nil {
		return TimestampResult{Valid: false, Reason: TimestampReasonMissing}
	}

	now := c.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	captured := metadata.CaptureTime.In(now.Location())
	if captured.Before(dayStart) || !captured.Before(dayEnd) {
		return TimestampResult{Valid: false, Reason: TimestampReasonWrongDay}
	}

	return TimestampResult{Valid: true}
}
