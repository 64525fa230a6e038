package model

import "time"

// Tier is a user's subscription level.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

type User struct {
	ID                      int64      `json:"id"`
	GoogleID                string     `json:"-"`
	Email                   string     `json:"email"`
	FirstName               string     `json:"first_name"`
	LastName                string     `json:"last_name"`
	DisplayName             string     `json:"display_name"`
	ProfileImageURL         string     `json:"profile_image_url"`
	Tier                    Tier       `json:"tier"`
	SubscriptionActivatedAt *time.Time `json:"subscription_activated_at"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// Profile holds the identity fields refreshed on every login.
type Profile struct {
	FirstName       string
	LastName        string
	DisplayName     string
	ProfileImageURL string
}

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
