package database

import (
	"context"
	"errors"
	"testing"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := RunMigration(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return NewGormStore(db)
}

func TestGormStorePollRoundTrip(t *testing.T) {
	store := newTestGormStore(t)

	poll := newTestPoll()
	if err := store.CreatePoll(&poll); err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}
	if poll.ID == 0 {
		t.Fatal("Expected an id to be assigned")
	}

	poll.OptionVotes[1] = 3
	poll.TotalPredictions = 3
	poll.IsActive = false
	winner := 1
	poll.WinningOption = &winner
	if err := store.SavePoll(&poll); err != nil {
		t.Fatalf("Failed to save poll: %v", err)
	}

	fetched, err := store.GetPoll(poll.ID)
	if err != nil {
		t.Fatalf("Failed to get poll: %v", err)
	}
	if fetched.OptionVotes[1] != 3 || fetched.WinningOption == nil || *fetched.WinningOption != 1 {
		t.Errorf("Unexpected poll after save: %+v", fetched)
	}
	if !fetched.RewardPool.Equal(decimal.NewFromInt(98)) {
		t.Errorf("Expected pool 98, got %s", fetched.RewardPool)
	}

	active, _ := store.ListPolls(true)
	closed, _ := store.ListPolls(false)
	if len(active) != 0 || len(closed) != 1 {
		t.Errorf("Expected the poll to be listed as closed, got %d active and %d closed", len(active), len(closed))
	}

	if _, err := store.GetPoll(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGormStoreTransactionRollback(t *testing.T) {
	store := newTestGormStore(t)
	poll := newTestPoll()
	if err := store.CreatePoll(&poll); err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}

	failure := errors.New("abort")
	err := store.Transaction(context.Background(), func(tx Tx) error {
		if err := tx.CreatePrediction(&models.Prediction{
			PollID:       poll.ID,
			UserID:       "alice",
			Amount:       decimal.NewFromInt(10),
			HasPredicted: true,
		}); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Expected the transaction error, got %v", err)
	}
	if _, err := store.GetPrediction(poll.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected the prediction to be rolled back, got %v", err)
	}
}

func TestGormStoreUserStatsUpsert(t *testing.T) {
	store := newTestGormStore(t)

	stats := models.UserStats{UserID: "alice", TotalRewardsEarned: decimal.Zero, ParticipatedPolls: datatypes.JSONSlice[uint]{}}
	if err := store.SaveUserStats(&stats); err != nil {
		t.Fatalf("Failed to create stats: %v", err)
	}
	stats.CorrectPredictions = 2
	stats.ParticipatedPolls = append(stats.ParticipatedPolls, 1, 2)
	if err := store.SaveUserStats(&stats); err != nil {
		t.Fatalf("Failed to update stats: %v", err)
	}

	fetched, err := store.GetUserStats("alice")
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if fetched.CorrectPredictions != 2 || len(fetched.ParticipatedPolls) != 2 {
		t.Errorf("Unexpected stats: %+v", fetched)
	}
	if all, _ := store.ListUserStats(); len(all) != 1 {
		t.Errorf("Expected a single stats row, got %d", len(all))
	}
}

func TestGormStoreSumPayouts(t *testing.T) {
	store := newTestGormStore(t)
	if err := store.CreatePayouts([]models.Payout{
		{PollID: 1, UserID: "a", Kind: models.PayoutKindReward, Amount: decimal.NewFromInt(64)},
		{PollID: 1, UserID: "b", Kind: models.PayoutKindReward, Amount: decimal.NewFromInt(64)},
		{PollID: 1, UserID: "treasury", Kind: models.PayoutKindPlatformFee, Amount: decimal.NewFromInt(2)},
	}); err != nil {
		t.Fatalf("Failed to create payouts: %v", err)
	}

	rewards, _ := store.SumPayouts(models.PayoutKindReward)
	fees, _ := store.SumPayouts(models.PayoutKindPlatformFee)
	if !rewards.Equal(decimal.NewFromInt(128)) || !fees.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected 128 in rewards and 2 in fees, got %s and %s", rewards, fees)
	}
}
