package database

import (
	"context"
	"errors"
	"testing"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func newTestPoll() models.Poll {
	return models.Poll{
		Creator:      "creator",
		Question:     "Ship it?",
		Options:      datatypes.JSONSlice[string]{"Yes", "No"},
		OptionImages: datatypes.JSONSlice[string]{"", ""},
		OptionVotes:  datatypes.JSONSlice[int64]{0, 0},
		RewardPool:   decimal.NewFromInt(98),
		IsActive:     true,
	}
}

func TestMemoryStoreRollback(t *testing.T) {
	store := NewMemoryStore()
	poll := newTestPoll()
	if err := store.CreatePoll(&poll); err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}

	failure := errors.New("abort")
	err := store.Transaction(context.Background(), func(tx Tx) error {
		current, _ := tx.GetPoll(poll.ID)
		current.OptionVotes[0]++
		current.TotalPredictions++
		if err := tx.SavePoll(&current); err != nil {
			return err
		}
		if err := tx.CreatePrediction(&models.Prediction{PollID: poll.ID, UserID: "alice", HasPredicted: true}); err != nil {
			return err
		}
		if err := tx.SaveUserStats(&models.UserStats{UserID: "alice"}); err != nil {
			return err
		}
		if err := tx.CreatePayouts([]models.Payout{{PollID: poll.ID, UserID: "alice", Kind: models.PayoutKindReward, Amount: decimal.NewFromInt(5)}}); err != nil {
			return err
		}
		extra := newTestPoll()
		if err := tx.CreatePoll(&extra); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Expected the transaction error, got %v", err)
	}

	current, _ := store.GetPoll(poll.ID)
	if current.TotalPredictions != 0 || current.OptionVotes[0] != 0 {
		t.Errorf("Expected the poll write to be undone, got %+v", current)
	}
	if _, err := store.GetPrediction(poll.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected the prediction to be undone, got %v", err)
	}
	if _, err := store.GetUserStats("alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected the stats to be undone, got %v", err)
	}
	if sum, _ := store.SumPayouts(models.PayoutKindReward); !sum.IsZero() {
		t.Errorf("Expected the payouts to be undone, got %s", sum)
	}
	if count, _ := store.CountPolls(); count != 1 {
		t.Errorf("Expected 1 poll after rollback, got %d", count)
	}

	next := newTestPoll()
	if err := store.CreatePoll(&next); err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}
	if next.ID != poll.ID+1 {
		t.Errorf("Expected the id counter to be restored, got %d", next.ID)
	}
}

func TestMemoryStoreDuplicatePrediction(t *testing.T) {
	store := NewMemoryStore()
	prediction := models.Prediction{PollID: 1, UserID: "alice"}
	if err := store.CreatePrediction(&prediction); err != nil {
		t.Fatalf("Failed to create prediction: %v", err)
	}
	again := models.Prediction{PollID: 1, UserID: "alice"}
	if err := store.CreatePrediction(&again); !errors.Is(err, ErrDuplicated) {
		t.Errorf("Expected ErrDuplicated, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	poll := newTestPoll()
	if err := store.CreatePoll(&poll); err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}

	fetched, _ := store.GetPoll(poll.ID)
	fetched.OptionVotes[0] = 42
	fetched.Options[0] = "Changed"

	again, _ := store.GetPoll(poll.ID)
	if again.OptionVotes[0] != 0 || again.Options[0] != "Yes" {
		t.Errorf("Expected stored poll to be isolated from callers, got %+v", again)
	}
}

func TestMemoryStoreSaveUnknownPoll(t *testing.T) {
	store := NewMemoryStore()
	poll := newTestPoll()
	poll.ID = 7
	if err := store.SavePoll(&poll); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	if err := store.Transaction(ctx, func(tx Tx) error {
		called = true
		return nil
	}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("Expected the transaction body not to run")
	}
}
