package models

import "time"

const (
	DefaultCredits = 3
	DefaultTier    = "free"
)

type Profile struct {
	UserID    string
	Credits   int
	Tier      string
	CreatedAt time.Time
}
