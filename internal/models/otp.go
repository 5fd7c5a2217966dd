package models

import "time"

// OTPCode is a single outstanding verification attempt. The unique index on
// Email guarantees at most one live code per address: issuing a new code is an
// upsert that supersedes the previous row atomically.
type OTPCode struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Code      string    `gorm:"size:8;not null" json:"code"`
	Attempts  int       `gorm:"default:0" json:"attempts"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the code is no longer valid at the given instant.
func (o *OTPCode) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
