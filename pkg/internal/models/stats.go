package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type UserStats struct {
	UserID string `json:"user_id" gorm:"primaryKey;size:128"`

	TotalPredictions   int64                     `json:"total_predictions"`
	CorrectPredictions int64                     `json:"correct_predictions"`
	TotalRewardsEarned decimal.Decimal           `json:"total_rewards_earned" gorm:"type:numeric(78,0)"`
	CurrentStreak      int64                     `json:"current_streak"`
	LongestStreak      int64                     `json:"longest_streak"`
	ParticipatedPolls  datatypes.JSONSlice[uint] `json:"participated_polls"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v UserStats) Clone() UserStats {
	v.ParticipatedPolls = append(datatypes.JSONSlice[uint]{}, v.ParticipatedPolls...)
	return v
}

type LeaderboardEntry struct {
	Rank               int             `json:"rank"`
	UserID             string          `json:"user_id"`
	CorrectPredictions int64           `json:"correct_predictions"`
	TotalRewardsEarned decimal.Decimal `json:"total_rewards_earned"`
	CurrentStreak      int64           `json:"current_streak"`
	LongestStreak      int64           `json:"longest_streak"`
}
