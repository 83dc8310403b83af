package models

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Poll struct {
	BaseModel

	Creator      string                      `json:"creator" gorm:"index;size:128"`
	Question     string                      `json:"question"`
	Language     string                      `json:"language" gorm:"size:8"`
	Options      datatypes.JSONSlice[string] `json:"options"`
	OptionImages datatypes.JSONSlice[string] `json:"option_images"`
	OptionVotes  datatypes.JSONSlice[int64]  `json:"option_votes"`

	// RewardPool is kept in the smallest value unit, fractions never appear.
	RewardPool decimal.Decimal `json:"reward_pool" gorm:"type:numeric(78,0)"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time" gorm:"index"`

	IsActive           bool  `json:"is_active" gorm:"index"`
	RewardsDistributed bool  `json:"rewards_distributed"`
	TotalPredictions   int64 `json:"total_predictions"`
	WinningOption      *int  `json:"winning_option"`
}

// Clone returns a copy which shares no slices with the receiver.
func (v Poll) Clone() Poll {
	v.Options = append(datatypes.JSONSlice[string]{}, v.Options...)
	v.OptionImages = append(datatypes.JSONSlice[string]{}, v.OptionImages...)
	v.OptionVotes = append(datatypes.JSONSlice[int64]{}, v.OptionVotes...)
	if v.WinningOption != nil {
		v.WinningOption = lo.ToPtr(*v.WinningOption)
	}
	return v
}

func (v Poll) IsExpiredAt(now time.Time) bool {
	return !now.Before(v.EndTime)
}
