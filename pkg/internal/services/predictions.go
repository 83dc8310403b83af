package services

import (
	"context"
	"errors"
	"fmt"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/database"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/events"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type SubmitPredictionInput struct {
	PollID      uint
	User        string
	OptionIndex int
	Amount      decimal.Decimal
}

// checkStakeable reports why the user cannot stake on the poll right now.
func (v *Engine) checkStakeable(tx database.Tx, in SubmitPredictionInput) (models.Poll, error) {
	poll, err := tx.GetPoll(in.PollID)
	if err != nil {
		return poll, wrapStoreError(err)
	}
	if _, err := tx.GetPrediction(in.PollID, in.User); err == nil {
		return poll, ErrAlreadyPredicted
	} else if !errors.Is(err, database.ErrNotFound) {
		return poll, err
	}

	probe := poll.Clone()
	return poll, v.recordStake(&probe, in.OptionIndex, in.Amount)
}

// SubmitPrediction stakes the amount on one option. The stake is taken from
// the user first and handed back when the prediction cannot be recorded.
func (v *Engine) SubmitPrediction(ctx context.Context, in SubmitPredictionInput) (models.Prediction, error) {
	if len(in.User) == 0 {
		return models.Prediction{}, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return models.Prediction{}, ErrInsufficientStake
	} else if err := validateAmount(in.Amount); err != nil {
		return models.Prediction{}, err
	}
	if v.IsPaused() {
		return models.Prediction{}, ErrPaused
	}
	if in.Amount.LessThan(v.Settings().MinStakeAmount) {
		return models.Prediction{}, ErrInsufficientStake
	}

	unlock := v.lockPoll(in.PollID)
	defer unlock()

	if err := v.store.Transaction(ctx, func(tx database.Tx) error {
		current, err := v.checkStakeable(tx, in)
		if current.RewardsDistributed {
			v.forgetPoll(in.PollID)
		}
		return err
	}); err != nil {
		return models.Prediction{}, err
	}

	if err := v.charge(ctx, in.User, in.Amount, fmt.Sprintf("Stake on poll #%d", in.PollID)); err != nil {
		return models.Prediction{}, err
	}

	var poll models.Poll
	var newcomer bool
	prediction := models.Prediction{
		PollID:       in.PollID,
		UserID:       in.User,
		OptionIndex:  in.OptionIndex,
		Amount:       in.Amount,
		HasPredicted: true,
		Reward:       decimal.Zero,
	}
	if err := v.store.Transaction(ctx, func(tx database.Tx) error {
		var err error
		if poll, err = v.checkStakeable(tx, in); err != nil {
			return err
		}
		if err := v.recordStake(&poll, in.OptionIndex, in.Amount); err != nil {
			return err
		}
		if err := tx.SavePoll(&poll); err != nil {
			return err
		}
		if err := tx.CreatePrediction(&prediction); err != nil {
			if errors.Is(err, database.ErrDuplicated) {
				return ErrAlreadyPredicted
			}
			return err
		}
		newcomer, err = v.ensureUserStats(tx, in.User)
		return err
	}); err != nil {
		v.compensate([]func(ctx context.Context) error{func(ctx context.Context) error {
			return v.pay(ctx, in.User, in.Amount, fmt.Sprintf("Stake on poll #%d - Refund", in.PollID))
		}})
		return models.Prediction{}, err
	}

	if newcomer {
		v.generation.Add(1)
	}

	log.Debug().Uint("poll", in.PollID).Str("user", in.User).Int("option", in.OptionIndex).Msg("Prediction submitted.")

	v.publish(events.TopicPredictionSubmitted, in.PollID, map[string]any{
		"user":         in.User,
		"option_index": in.OptionIndex,
		"amount":       in.Amount.String(),
		"reward_pool":  poll.RewardPool.String(),
	})

	return prediction, nil
}

// GetPrediction never fails, a user without a stake gets HasPredicted false.
func (v *Engine) GetPrediction(pollID uint, user string) models.Prediction {
	prediction, err := v.store.GetPrediction(pollID, user)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Warn().Err(err).Uint("poll", pollID).Str("user", user).Msg("Unable to load prediction.")
		}
		return models.Prediction{PollID: pollID, UserID: user, Amount: decimal.Zero, Reward: decimal.Zero}
	}
	return prediction
}

func (v *Engine) ListPollParticipants(pollID uint) ([]models.Prediction, error) {
	if _, err := v.GetPoll(pollID); err != nil {
		return nil, err
	}
	return v.store.ListPredictions(pollID)
}

// ensureUserStats reports whether the user was seen for the first time.
func (v *Engine) ensureUserStats(tx database.Tx, user string) (bool, error) {
	if _, err := tx.GetUserStats(user); err == nil {
		return false, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}
	err := tx.SaveUserStats(&models.UserStats{
		UserID:             user,
		TotalRewardsEarned: decimal.Zero,
		ParticipatedPolls:  datatypes.JSONSlice[uint]{},
	})
	return err == nil, err
}
