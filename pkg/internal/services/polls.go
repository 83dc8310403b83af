package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/database"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/events"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CreatePollInput struct {
	Creator      string
	Question     string
	Options      []string
	OptionImages []string
	Duration     time.Duration
	Deposit      decimal.Decimal
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsInteger() {
		return fmt.Errorf("%w: amount must be a whole number of the smallest unit", ErrInvalidInput)
	} else if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidInput)
	}
	return nil
}

func (v *Engine) validatePollInput(in *CreatePollInput, cfg Config) error {
	in.Question = strings.TrimSpace(in.Question)
	in.Options = lo.Map(in.Options, func(item string, _ int) string {
		return strings.TrimSpace(item)
	})

	if len(in.Creator) == 0 {
		return fmt.Errorf("%w: creator is required", ErrInvalidInput)
	}
	if len(in.Question) == 0 {
		return fmt.Errorf("%w: question cannot be empty", ErrInvalidInput)
	} else if utf8.RuneCountInString(in.Question) > cfg.MaxQuestionLength {
		return fmt.Errorf("%w: question is longer than %d characters", ErrInvalidInput, cfg.MaxQuestionLength)
	}
	if len(in.Options) < MinOptions || len(in.Options) > MaxOptions {
		return fmt.Errorf("%w: invalid number of options", ErrInvalidInput)
	}
	for idx, option := range in.Options {
		if len(option) == 0 {
			return fmt.Errorf("%w: option #%d cannot be empty", ErrInvalidInput, idx)
		} else if utf8.RuneCountInString(option) > cfg.MaxOptionLength {
			return fmt.Errorf("%w: option #%d is longer than %d characters", ErrInvalidInput, idx, cfg.MaxOptionLength)
		}
	}
	if len(in.OptionImages) > 0 && len(in.OptionImages) != len(in.Options) {
		return fmt.Errorf("%w: option images must match the options", ErrInvalidInput)
	}
	if in.Duration < cfg.MinPollDuration || in.Duration > cfg.MaxPollDuration {
		return fmt.Errorf("%w: duration must be between %s and %s", ErrInvalidInput, cfg.MinPollDuration, cfg.MaxPollDuration)
	}
	if !in.Deposit.IsPositive() {
		return fmt.Errorf("%w: reward pool must be greater than 0", ErrInvalidInput)
	}
	return validateAmount(in.Deposit)
}

// CreatePoll takes the deposit from the creator, forwards the platform fee
// and registers the poll with the rest as its reward pool.
func (v *Engine) CreatePoll(ctx context.Context, in CreatePollInput) (models.Poll, error) {
	cfg := v.Settings()
	if err := v.validatePollInput(&in, cfg); err != nil {
		return models.Poll{}, err
	}
	if v.IsPaused() {
		return models.Poll{}, ErrPaused
	}

	fee := ComputeFee(in.Deposit, cfg.FeePercent)
	start := v.now()
	poll := models.Poll{
		Creator:     in.Creator,
		Question:    in.Question,
		Options:     in.Options,
		OptionVotes: make(datatypes.JSONSlice[int64], len(in.Options)),
		RewardPool:  in.Deposit.Sub(fee),
		StartTime:   start,
		EndTime:     start.Add(in.Duration),
		IsActive:    true,
	}
	if len(in.OptionImages) > 0 {
		poll.OptionImages = in.OptionImages
	} else {
		poll.OptionImages = make(datatypes.JSONSlice[string], len(in.Options))
	}
	if v.detectLanguage != nil {
		poll.Language = v.detectLanguage(in.Question)
	}

	var reverse []func(ctx context.Context) error
	if err := v.charge(ctx, in.Creator, in.Deposit, "Poll reward pool deposit"); err != nil {
		return poll, err
	}
	reverse = append(reverse, func(ctx context.Context) error {
		return v.pay(ctx, in.Creator, in.Deposit, "Poll reward pool deposit - Refund")
	})
	if fee.IsPositive() {
		if err := v.pay(ctx, cfg.FeeRecipient, fee, "Platform fee"); err != nil {
			v.compensate(reverse)
			return poll, err
		}
		reverse = append(reverse, func(ctx context.Context) error {
			return v.charge(ctx, cfg.FeeRecipient, fee, "Platform fee - Refund")
		})
	}

	if err := v.store.Transaction(ctx, func(tx database.Tx) error {
		if err := tx.CreatePoll(&poll); err != nil {
			return err
		}
		return tx.CreatePayouts([]models.Payout{{
			PollID: poll.ID,
			UserID: cfg.FeeRecipient,
			Kind:   models.PayoutKindPlatformFee,
			Amount: fee,
		}})
	}); err != nil {
		v.compensate(reverse)
		return poll, fmt.Errorf("unable to register poll: %v", err)
	}

	log.Debug().Uint("poll", poll.ID).Str("creator", poll.Creator).Str("pool", poll.RewardPool.String()).Msg("Poll created.")

	v.publish(events.TopicPollCreated, poll.ID, map[string]any{
		"creator":     poll.Creator,
		"question":    poll.Question,
		"options":     []string(poll.Options),
		"reward_pool": poll.RewardPool.String(),
		"end_time":    poll.EndTime,
	})
	v.publish(events.TopicPlatformFeeCollected, poll.ID, map[string]any{
		"recipient": cfg.FeeRecipient,
		"amount":    fee.String(),
	})

	return poll, nil
}

func wrapStoreError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (v *Engine) GetPoll(id uint) (models.Poll, error) {
	poll, err := v.store.GetPoll(id)
	return poll, wrapStoreError(err)
}

func (v *Engine) ListActivePolls() ([]models.Poll, error) {
	return v.store.ListPolls(true)
}

func (v *Engine) ListClosedPolls() ([]models.Poll, error) {
	return v.store.ListPolls(false)
}

func (v *Engine) CountPolls() (int64, error) {
	return v.store.CountPolls()
}

// recordStake adds one staker to an option. The caller saves the poll.
func (v *Engine) recordStake(poll *models.Poll, option int, amount decimal.Decimal) error {
	if !poll.IsActive {
		return ErrPollNotActive
	} else if poll.IsExpiredAt(v.now()) {
		return ErrPollExpired
	} else if option < 0 || option >= len(poll.Options) {
		return fmt.Errorf("%w: option #%d does not exist", ErrInvalidOption, option)
	}

	poll.OptionVotes[option]++
	poll.TotalPredictions++
	poll.RewardPool = poll.RewardPool.Add(amount)
	return nil
}

// ClosePoll freezes the poll once it ran past its end time and picks the
// option with the most stakers, the lowest index wins a tie.
func (v *Engine) ClosePoll(ctx context.Context, id uint) (models.Poll, error) {
	unlock := v.lockPoll(id)
	defer unlock()

	var poll models.Poll
	if err := v.store.Transaction(ctx, func(tx database.Tx) error {
		var err error
		if poll, err = tx.GetPoll(id); err != nil {
			return wrapStoreError(err)
		}
		if !poll.IsActive {
			if poll.RewardsDistributed {
				v.forgetPoll(id)
			}
			return ErrAlreadyClosed
		} else if !poll.IsExpiredAt(v.now()) {
			return ErrPollStillActive
		}

		poll.WinningOption = lo.ToPtr(ComputeWinningOption(poll.OptionVotes))
		poll.IsActive = false
		return tx.SavePoll(&poll)
	}); err != nil {
		return poll, err
	}

	log.Debug().Uint("poll", poll.ID).Int("winner", *poll.WinningOption).Msg("Poll closed.")

	v.publish(events.TopicPollClosed, poll.ID, map[string]any{
		"winning_option": *poll.WinningOption,
		"option_votes":   []int64(poll.OptionVotes),
	})

	return poll, nil
}
