package database

import (
	"context"
	"errors"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicated = errors.New("record already exists")
)

// Tx is the set of reads and writes the engine performs. Every method called
// on a Tx handed out by Store.Transaction commits or rolls back together.
type Tx interface {
	CreatePoll(poll *models.Poll) error
	GetPoll(id uint) (models.Poll, error)
	ListPolls(active bool) ([]models.Poll, error)
	CountPolls() (int64, error)
	SavePoll(poll *models.Poll) error

	CreatePrediction(prediction *models.Prediction) error
	GetPrediction(pollID uint, user string) (models.Prediction, error)
	ListPredictions(pollID uint) ([]models.Prediction, error)
	SavePrediction(prediction *models.Prediction) error

	GetUserStats(user string) (models.UserStats, error)
	ListUserStats() ([]models.UserStats, error)
	SaveUserStats(stats *models.UserStats) error

	CreatePayouts(payouts []models.Payout) error
	SumPayouts(kind string) (decimal.Decimal, error)
}

type Store interface {
	Tx

	// Transaction runs fn atomically. Returning an error from fn discards
	// every write fn made.
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}
