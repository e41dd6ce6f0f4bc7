package models

import "time"

// Reminder schedules a one-shot nudge before a challenge deadline.
// The dispatcher sets Sent exactly once; nothing else mutates it.
type Reminder struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	RemindAt    time.Time `json:"remind_at"`
	Sent        bool      `json:"sent"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PendingReminder is a reminder joined with the recipient phone and
// challenge details the dispatcher needs to build the message.
type PendingReminder struct {
	Reminder
	Phone          string    `json:"phone"`
	ChallengeTitle string    `json:"challenge_title"`
	Deadline       time.Time `json:"deadline"`
}
