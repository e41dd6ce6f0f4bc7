package models

import "time"

// Profile is the minimal user record: a stable id plus the phone
// number used to reach the user on WhatsApp/SMS.
type Profile struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
