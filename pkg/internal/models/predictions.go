package models

import "github.com/shopspring/decimal"

type Prediction struct {
	BaseModel

	PollID           uint            `json:"poll_id" gorm:"uniqueIndex:idx_prediction_poll_user"`
	UserID           string          `json:"user_id" gorm:"uniqueIndex:idx_prediction_poll_user;size:128"`
	OptionIndex      int             `json:"option_index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(78,0)"`
	HasPredicted     bool            `json:"has_predicted"`
	HasClaimedReward bool            `json:"has_claimed_reward"`
	Reward           decimal.Decimal `json:"reward" gorm:"type:numeric(78,0)"`
}
