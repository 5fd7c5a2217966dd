package models

import (
	"time"
)

// Subscription states an account can be in. Transitions beyond the initial
// trial are owned by billing, which is outside this service.
const (
	SubscriptionTrial    = "trial"
	SubscriptionPro      = "pro"
	SubscriptionLifetime = "lifetime"
	SubscriptionExpired  = "expired"
)

// Account is a registered user, created on the first successful OTP
// verification for an email address.
type Account struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	Email              string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	WalletAddress      *string    `gorm:"size:42" json:"wallet_address"`
	SubscriptionStatus string     `gorm:"size:16;default:trial" json:"subscription_status"`
	TrialStartDate     *time.Time `json:"trial_start_date"`
	TrialEndDate       *time.Time `json:"trial_end_date"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
