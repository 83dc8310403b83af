package services

import (
	"context"
	"fmt"
	"sort"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/database"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/events"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeFee is deposit * percent / 100, truncated.
func ComputeFee(deposit decimal.Decimal, percent int64) decimal.Decimal {
	fee, _ := deposit.Mul(decimal.NewFromInt(percent)).QuoRem(hundred, 0)
	return fee
}

// ComputeWinningOption returns the index with the most votes, the lowest
// index wins a tie. It is -1 when there are no options.
func ComputeWinningOption(votes []int64) int {
	winner := -1
	for idx, count := range votes {
		if winner < 0 || count > votes[winner] {
			winner = idx
		}
	}
	return winner
}

// ComputePayouts splits the pool among the winners proportionally to their
// stake. Floor division leaves at most len(winners)-1 units, those go one
// each to the largest remainders, ties to the smaller user id. The result
// is ordered by user id and always sums to exactly the pool.
func ComputePayouts(pool decimal.Decimal, winners []models.Prediction) []models.Payout {
	if len(winners) == 0 {
		return nil
	}

	sorted := append([]models.Prediction{}, winners...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UserID < sorted[j].UserID })

	total := lo.Reduce(sorted, func(sum decimal.Decimal, item models.Prediction, _ int) decimal.Decimal {
		return sum.Add(item.Amount)
	}, decimal.Zero)
	if !total.IsPositive() {
		return nil
	}

	payouts := make([]models.Payout, len(sorted))
	remainders := make([]decimal.Decimal, len(sorted))
	paid := decimal.Zero
	for idx, item := range sorted {
		share, remainder := pool.Mul(item.Amount).QuoRem(total, 0)
		payouts[idx] = models.Payout{
			PollID: item.PollID,
			UserID: item.UserID,
			Kind:   models.PayoutKindReward,
			Amount: share,
		}
		remainders[idx] = remainder
		paid = paid.Add(share)
	}

	order := lo.Range(len(sorted))
	sort.SliceStable(order, func(i, j int) bool {
		return remainders[order[i]].GreaterThan(remainders[order[j]])
	})
	leftover := pool.Sub(paid).IntPart()
	for i := int64(0); i < leftover && i < int64(len(order)); i++ {
		target := &payouts[order[i]]
		target.Amount = target.Amount.Add(decimal.NewFromInt(1))
	}

	return payouts
}

// planDistribution decides who receives what when the poll settles. A poll
// nobody staked on hands its pool back to the creator.
func planDistribution(poll models.Poll, predictions []models.Prediction) []models.Payout {
	winners := lo.Filter(predictions, func(item models.Prediction, _ int) bool {
		return poll.WinningOption != nil && item.OptionIndex == *poll.WinningOption
	})
	if len(winners) > 0 {
		return ComputePayouts(poll.RewardPool, winners)
	}
	if !poll.RewardPool.IsPositive() {
		return nil
	}
	return []models.Payout{{
		PollID: poll.ID,
		UserID: poll.Creator,
		Kind:   models.PayoutKindCreatorRefund,
		Amount: poll.RewardPool,
	}}
}

type DistributionResult struct {
	Poll    models.Poll     `json:"poll"`
	Payouts []models.Payout `json:"payouts"`
	Total   decimal.Decimal `json:"total"`
	Winners int             `json:"winners"`
}

// DistributeRewards pays a closed poll out. Transfers go first, and when one
// of them fails the ones already made are reversed and nothing is recorded,
// so the call can simply be retried.
func (v *Engine) DistributeRewards(ctx context.Context, id uint) (DistributionResult, error) {
	unlock := v.lockPoll(id)
	defer unlock()

	var result DistributionResult
	poll, err := v.GetPoll(id)
	if err != nil {
		return result, err
	}
	if poll.IsActive {
		return result, ErrPollStillActive
	} else if poll.RewardsDistributed {
		v.forgetPoll(id)
		return result, ErrAlreadyDistributed
	}

	predictions, err := v.store.ListPredictions(id)
	if err != nil {
		return result, err
	}
	payouts := planDistribution(poll, predictions)

	var reverse []func(ctx context.Context) error
	for _, item := range payouts {
		if !item.Amount.IsPositive() {
			continue
		}
		remark := fmt.Sprintf("Reward of poll #%d", id)
		if item.Kind == models.PayoutKindCreatorRefund {
			remark = fmt.Sprintf("Unclaimed reward pool of poll #%d", id)
		}
		if err := v.pay(ctx, item.UserID, item.Amount, remark); err != nil {
			log.Warn().Err(err).Uint("poll", id).Str("user", item.UserID).Msg("Reward transfer failed, reversing the distribution.")
			v.compensate(reverse)
			return result, err
		}
		payee, amount := item.UserID, item.Amount
		reverse = append(reverse, func(ctx context.Context) error {
			return v.charge(ctx, payee, amount, remark+" - Reversal")
		})
	}

	rewards := make(map[string]decimal.Decimal)
	for _, item := range payouts {
		if item.Kind == models.PayoutKindReward {
			rewards[item.UserID] = item.Amount
		}
	}

	v.reputationLock.Lock()
	err = v.store.Transaction(ctx, func(tx database.Tx) error {
		current, err := tx.GetPoll(id)
		if err != nil {
			return wrapStoreError(err)
		}
		if current.RewardsDistributed {
			return ErrAlreadyDistributed
		}
		current.RewardsDistributed = true
		if err := tx.SavePoll(&current); err != nil {
			return err
		}
		poll = current

		for _, prediction := range predictions {
			reward, ok := rewards[prediction.UserID]
			if !ok {
				continue
			}
			prediction.HasClaimedReward = true
			prediction.Reward = reward
			if err := tx.SavePrediction(&prediction); err != nil {
				return err
			}
		}
		if err := tx.CreatePayouts(payouts); err != nil {
			return err
		}
		return v.onSettled(tx, current, predictions, rewards)
	})
	if err == nil {
		v.generation.Add(1)
		v.forgetPoll(id)
	}
	v.reputationLock.Unlock()

	if err != nil {
		v.compensate(reverse)
		return result, err
	}

	result = DistributionResult{Poll: poll, Payouts: payouts, Winners: len(rewards)}
	for _, item := range payouts {
		result.Total = result.Total.Add(item.Amount)
	}

	log.Debug().Uint("poll", id).Str("total", result.Total.String()).Int("winners", result.Winners).Msg("Rewards distributed.")

	for _, item := range payouts {
		if item.Kind != models.PayoutKindReward {
			continue
		}
		v.publish(events.TopicRewardClaimed, id, map[string]any{
			"user":   item.UserID,
			"amount": item.Amount.String(),
		})
	}
	v.publish(events.TopicRewardsDistributed, id, map[string]any{
		"total":        result.Total.String(),
		"winner_count": result.Winners,
	})

	return result, nil
}

// TotalRewardsDistributed sums every reward paid to winners so far.
func (v *Engine) TotalRewardsDistributed() (decimal.Decimal, error) {
	return v.store.SumPayouts(models.PayoutKindReward)
}
