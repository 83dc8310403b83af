package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func submit(h *testHarness, pollID uint, user string, option int, amount int64) error {
	_, err := h.engine.SubmitPrediction(context.Background(), SubmitPredictionInput{
		PollID:      pollID,
		User:        user,
		OptionIndex: option,
		Amount:      decimal.NewFromInt(amount),
	})
	return err
}

func TestSubmitPredictionTwice(t *testing.T) {
	h := newHarness(t)
	poll := h.createPoll(t, 100)
	h.fund(t, "alice", 100)

	if err := submit(h, poll.ID, "alice", 0, 10); err != nil {
		t.Fatalf("First prediction failed: %v", err)
	}
	for _, option := range []int{0, 1} {
		if err := submit(h, poll.ID, "alice", option, 10); !errors.Is(err, ErrAlreadyPredicted) {
			t.Errorf("Expected ErrAlreadyPredicted for option %d, got %v", option, err)
		}
	}

	if got := h.balance("alice"); got != 90 {
		t.Errorf("Expected only one stake to be taken, balance is %d", got)
	}
	current, _ := h.engine.GetPoll(poll.ID)
	if current.TotalPredictions != 1 {
		t.Errorf("Expected 1 prediction, got %d", current.TotalPredictions)
	}
	if prediction := h.engine.GetPrediction(poll.ID, "alice"); !prediction.HasPredicted || prediction.OptionIndex != 0 {
		t.Errorf("Expected the first prediction to stand, got %+v", prediction)
	}
}

func TestSubmitPredictionBelowMinimum(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.SetMinStakeAmount(decimal.NewFromInt(5)); err != nil {
		t.Fatalf("Failed to set minimum stake: %v", err)
	}
	poll := h.createPoll(t, 100)
	h.fund(t, "alice", 100)

	if err := submit(h, poll.ID, "alice", 0, 4); !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("Expected ErrInsufficientStake, got %v", err)
	}

	current, _ := h.engine.GetPoll(poll.ID)
	if !current.RewardPool.Equal(poll.RewardPool) || current.OptionVotes[0] != 0 {
		t.Errorf("Expected the poll to stay unchanged, got %+v", current)
	}
	if got := h.balance("alice"); got != 100 {
		t.Errorf("Expected no charge, balance is %d", got)
	}

	if err := submit(h, poll.ID, "alice", 0, 5); err != nil {
		t.Errorf("Expected a stake at the minimum to pass, got %v", err)
	}
}

func TestSubmitPredictionRejections(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(h *testHarness, pollID uint)
		pollID   func(pollID uint) uint
		option   int
		amount   int64
		expected error
	}{
		{
			name:     "unknown poll",
			pollID:   func(uint) uint { return 999 },
			amount:   10,
			expected: ErrNotFound,
		},
		{
			name:     "invalid option",
			option:   2,
			amount:   10,
			expected: ErrInvalidOption,
		},
		{
			name:     "negative option",
			option:   -1,
			amount:   10,
			expected: ErrInvalidOption,
		},
		{
			name:     "zero amount",
			amount:   0,
			expected: ErrInsufficientStake,
		},
		{
			name:     "negative amount",
			amount:   -10,
			expected: ErrInsufficientStake,
		},
		{
			name:     "expired poll",
			prepare:  func(h *testHarness, _ uint) { h.clock.Advance(24 * time.Hour) },
			amount:   10,
			expected: ErrPollExpired,
		},
		{
			name: "closed poll",
			prepare: func(h *testHarness, pollID uint) {
				h.clock.Advance(24 * time.Hour)
				_, _ = h.engine.ClosePoll(context.Background(), pollID)
			},
			amount:   10,
			expected: ErrPollNotActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			poll := h.createPoll(t, 100)
			h.fund(t, "alice", 100)
			if tt.prepare != nil {
				tt.prepare(h, poll.ID)
			}
			target := poll.ID
			if tt.pollID != nil {
				target = tt.pollID(poll.ID)
			}

			if err := submit(h, target, "alice", tt.option, tt.amount); !errors.Is(err, tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, err)
			}
			if got := h.balance("alice"); got != 100 {
				t.Errorf("Expected no charge, balance is %d", got)
			}
			if prediction := h.engine.GetPrediction(poll.ID, "alice"); prediction.HasPredicted {
				t.Error("Expected no prediction to be recorded")
			}
		})
	}
}

func TestSubmitPredictionFractionalAmount(t *testing.T) {
	h := newHarness(t)
	poll := h.createPoll(t, 100)
	h.fund(t, "alice", 100)

	_, err := h.engine.SubmitPrediction(context.Background(), SubmitPredictionInput{
		PollID: poll.ID,
		User:   "alice",
		Amount: decimal.RequireFromString("10.5"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput for a fractional amount, got %v", err)
	}
	if got := h.balance("alice"); got != 100 {
		t.Errorf("Expected no charge, balance is %d", got)
	}
}

func TestPollLockReleasedAfterDistribution(t *testing.T) {
	h := newHarness(t)
	poll := h.createPoll(t, 100)
	h.stake(t, poll.ID, "alice", 0, 10)

	if _, ok := h.engine.pollLocks.Load(poll.ID); !ok {
		t.Fatal("Expected a lock while the poll is open")
	}

	h.clock.Advance(24 * time.Hour)
	h.settle(t, poll.ID)
	if _, ok := h.engine.pollLocks.Load(poll.ID); ok {
		t.Error("Expected the lock to be dropped after distribution")
	}

	if _, err := h.engine.ClosePoll(context.Background(), poll.ID); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("Expected ErrAlreadyClosed, got %v", err)
	}
	if _, err := h.engine.DistributeRewards(context.Background(), poll.ID); !errors.Is(err, ErrAlreadyDistributed) {
		t.Errorf("Expected ErrAlreadyDistributed, got %v", err)
	}
	h.fund(t, "late", 10)
	if err := submit(h, poll.ID, "late", 0, 10); !errors.Is(err, ErrPollNotActive) {
		t.Errorf("Expected ErrPollNotActive, got %v", err)
	}
	if _, ok := h.engine.pollLocks.Load(poll.ID); ok {
		t.Error("Expected calls on a distributed poll not to keep a lock around")
	}
}

func TestSubmitPredictionChargeFailure(t *testing.T) {
	h := newHarness(t)
	poll := h.createPoll(t, 100)

	if err := submit(h, poll.ID, "broke", 0, 10); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("Expected ErrTransferFailed, got %v", err)
	}
	current, _ := h.engine.GetPoll(poll.ID)
	if current.TotalPredictions != 0 || !current.RewardPool.Equal(poll.RewardPool) {
		t.Errorf("Expected no stake to be recorded, got %+v", current)
	}
}

func TestSubmitPredictionCreatesStatsLazily(t *testing.T) {
	h := newHarness(t)
	poll := h.createPoll(t, 100)

	if _, err := h.store.GetUserStats("alice"); err == nil {
		t.Fatal("Expected no stats before the first prediction")
	}
	h.stake(t, poll.ID, "alice", 0, 10)

	stats, err := h.store.GetUserStats("alice")
	if err != nil {
		t.Fatalf("Expected stats after the first prediction: %v", err)
	}
	if stats.TotalPredictions != 0 {
		t.Errorf("Expected totals to wait for settlement, got %d", stats.TotalPredictions)
	}
}

func TestSubmitPredictionConcurrently(t *testing.T) {
	h := newHarness(t)
	poll := h.createPoll(t, 100, "A", "B", "C")

	const users = 50
	for i := 0; i < users; i++ {
		h.fund(t, fmt.Sprintf("user-%02d", i), 10)
	}

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := submit(h, poll.ID, fmt.Sprintf("user-%02d", i), i%3, 10); err != nil {
				t.Errorf("Prediction %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	current, _ := h.engine.GetPoll(poll.ID)
	if current.TotalPredictions != users {
		t.Errorf("Expected %d predictions, got %d", users, current.TotalPredictions)
	}
	assertVotesConsistent(t, current)
	if expected := decimal.NewFromInt(98 + users*10); !current.RewardPool.Equal(expected) {
		t.Errorf("Expected pool %s, got %s", expected, current.RewardPool)
	}
}

func TestSubmitPredictionSameUserConcurrently(t *testing.T) {
	h := newHarness(t)
	poll := h.createPoll(t, 100)
	h.fund(t, "alice", 1000)

	var wg sync.WaitGroup
	var succeeded, rejected atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := submit(h, poll.ID, "alice", i%2, 10)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrAlreadyPredicted):
				rejected.Add(1)
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded.Load() != 1 || rejected.Load() != 19 {
		t.Errorf("Expected 1 success and 19 rejections, got %d and %d", succeeded.Load(), rejected.Load())
	}
	if got := h.balance("alice"); got != 990 {
		t.Errorf("Expected a single stake to be charged, balance is %d", got)
	}
}

func TestStakeCannotLandAfterClose(t *testing.T) {
	h := newHarness(t)
	poll := h.createPoll(t, 100)
	h.clock.Advance(24 * time.Hour)

	for i := 0; i < 10; i++ {
		h.fund(t, fmt.Sprintf("late-%d", i), 10)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = h.engine.ClosePoll(context.Background(), poll.ID)
	}()
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = submit(h, poll.ID, fmt.Sprintf("late-%d", i), 0, 10)
		}(i)
	}
	wg.Wait()

	current, _ := h.engine.GetPoll(poll.ID)
	if current.TotalPredictions != 0 {
		t.Errorf("Expected no stake after the end time, got %d", current.TotalPredictions)
	}
}
