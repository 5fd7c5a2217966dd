package models

import "time"

// VestingSchedule is a token-release plan. Only create/read are implemented;
// release and revocation happen on-chain, outside this service.
type VestingSchedule struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	AccountID       string    `gorm:"index;size:36;not null" json:"account_id"`
	TokenAddress    string    `gorm:"size:42;not null" json:"token_address"`
	Beneficiary     string    `gorm:"size:42;not null" json:"beneficiary"`
	TotalAmount     string    `gorm:"size:78;not null" json:"total_amount"`
	ReleasedAmount  string    `gorm:"size:78;default:0" json:"released_amount"`
	StartTime       time.Time `gorm:"not null" json:"start_time"`
	DurationSeconds int64     `gorm:"not null" json:"duration"`
	Revoked         bool      `gorm:"default:false" json:"revoked"`
	CreatedAt       time.Time `json:"created_at"`
}
