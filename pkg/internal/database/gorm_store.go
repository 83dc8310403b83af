package database

import (
	"context"
	"errors"
	"fmt"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (v *GormStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	return v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// locked adds a row lock when the dialect supports one.
func (v *GormStore) locked() *gorm.DB {
	if v.db.Dialector.Name() == "postgres" {
		return v.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return v.db
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func wrapDuplicated(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicated, err)
	}
	return err
}

func (v *GormStore) CreatePoll(poll *models.Poll) error {
	return v.db.Create(poll).Error
}

func (v *GormStore) GetPoll(id uint) (models.Poll, error) {
	var poll models.Poll
	if err := v.locked().Where("id = ?", id).First(&poll).Error; err != nil {
		return poll, wrapNotFound(err)
	}
	return poll, nil
}

func (v *GormStore) ListPolls(active bool) ([]models.Poll, error) {
	var polls []models.Poll
	if err := v.db.Where("is_active = ?", active).Order("id ASC").Find(&polls).Error; err != nil {
		return nil, err
	}
	return polls, nil
}

func (v *GormStore) CountPolls() (int64, error) {
	var count int64
	if err := v.db.Model(&models.Poll{}).Count(&count).Error; err != nil {
		return count, err
	}
	return count, nil
}

func (v *GormStore) SavePoll(poll *models.Poll) error {
	if poll.ID == 0 {
		return fmt.Errorf("unable to save poll without id")
	}
	return v.db.Save(poll).Error
}

func (v *GormStore) CreatePrediction(prediction *models.Prediction) error {
	return wrapDuplicated(v.db.Create(prediction).Error)
}

func (v *GormStore) GetPrediction(pollID uint, user string) (models.Prediction, error) {
	var prediction models.Prediction
	if err := v.db.Where("poll_id = ? AND user_id = ?", pollID, user).First(&prediction).Error; err != nil {
		return prediction, wrapNotFound(err)
	}
	return prediction, nil
}

func (v *GormStore) ListPredictions(pollID uint) ([]models.Prediction, error) {
	var predictions []models.Prediction
	if err := v.db.Where("poll_id = ?", pollID).Order("user_id ASC").Find(&predictions).Error; err != nil {
		return nil, err
	}
	return predictions, nil
}

func (v *GormStore) SavePrediction(prediction *models.Prediction) error {
	return v.db.Save(prediction).Error
}

func (v *GormStore) GetUserStats(user string) (models.UserStats, error) {
	var stats models.UserStats
	if err := v.locked().Where("user_id = ?", user).First(&stats).Error; err != nil {
		return stats, wrapNotFound(err)
	}
	return stats, nil
}

func (v *GormStore) ListUserStats() ([]models.UserStats, error) {
	var stats []models.UserStats
	if err := v.db.Order("user_id ASC").Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (v *GormStore) SaveUserStats(stats *models.UserStats) error {
	return v.db.Save(stats).Error
}

func (v *GormStore) CreatePayouts(payouts []models.Payout) error {
	if len(payouts) == 0 {
		return nil
	}
	return v.db.CreateInBatches(&payouts, 100).Error
}

func (v *GormStore) SumPayouts(kind string) (decimal.Decimal, error) {
	var payouts []models.Payout
	if err := v.db.Select("amount").Where("kind = ?", kind).Find(&payouts).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, item := range payouts {
		sum = sum.Add(item.Amount)
	}
	return sum, nil
}
