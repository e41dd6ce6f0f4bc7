package models

import "time"

// Submission verification status values.
const (
	VerificationStatusPending      = "pending"
	VerificationStatusApproved     = "approved"
	VerificationStatusFailed       = "failed"
	VerificationStatusManualReview = "manual_review"
)

// ImageMetadata is what gets extracted from the proof media before
// verification. CaptureTime is nil when the media carries no usable
// timestamp at all.
type ImageMetadata struct {
	CaptureTime *time.Time `json:"capture_time,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	Size        int64      `json:"size,omitempty"`
	FileName    string     `json:"file_name,omitempty"`
}

// Submission is the single proof row per challenge. Resubmissions
// update the same row; it is never deleted.
type Submission struct {
	ID                 string        `json:"id"`
	ChallengeID        string        `json:"challenge_id"`
	UserID             string        `json:"user_id"`
	ProofText          string        `json:"proof_text,omitempty"`
	ImageURL           string        `json:"image_url,omitempty"`
	Metadata           ImageMetadata `json:"metadata"`
	VerificationStatus string        `json:"verification_status"`
	// Verified is tri-state: nil means not yet decided.
	Verified          *bool     `json:"verified"`
	MetadataAttempts  int       `json:"metadata_attempts"`
	AIAttempts        int       `json:"ai_attempts"`
	VerificationNotes string    `json:"verification_notes,omitempty"`
	SubmittedAt       time.Time `json:"submitted_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
