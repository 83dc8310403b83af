package models

import "github.com/shopspring/decimal"

const (
	PayoutKindPlatformFee   = "platform_fee"
	PayoutKindReward        = "reward"
	PayoutKindCreatorRefund = "creator_refund"
)

// Payout is one settled transfer out of the platform custody.
type Payout struct {
	BaseModel

	PollID uint            `json:"poll_id" gorm:"index"`
	UserID string          `json:"user_id" gorm:"index;size:128"`
	Kind   string          `json:"kind" gorm:"size:32"`
	Amount decimal.Decimal `json:"amount" gorm:"type:numeric(78,0)"`
}
