package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

type KeeperReport struct {
	Closed      int `json:"closed"`
	Distributed int `json:"distributed"`
	Failed      int `json:"failed"`
}

// RunKeeper closes every poll past its end time and settles every closed one
// that has not paid out yet. Failures are left for the next run.
func (v *Engine) RunKeeper(ctx context.Context) KeeperReport {
	var report KeeperReport

	active, err := v.ListActivePolls()
	if err != nil {
		log.Error().Err(err).Msg("Keeper was unable to list active polls.")
		return report
	}
	now := v.now()
	for _, poll := range active {
		if !poll.IsExpiredAt(now) {
			continue
		}
		_, err := v.ClosePoll(ctx, poll.ID)
		switch {
		case err == nil:
			report.Closed++
		case errors.Is(err, ErrAlreadyClosed):
			// Closed by another caller since the listing.
		default:
			log.Warn().Err(err).Uint("poll", poll.ID).Msg("Keeper was unable to close poll.")
			report.Failed++
		}
	}

	closed, err := v.ListClosedPolls()
	if err != nil {
		log.Error().Err(err).Msg("Keeper was unable to list closed polls.")
		return report
	}
	for _, poll := range closed {
		if poll.RewardsDistributed {
			continue
		}
		_, err := v.DistributeRewards(ctx, poll.ID)
		switch {
		case err == nil:
			report.Distributed++
		case errors.Is(err, ErrAlreadyDistributed):
		default:
			log.Warn().Err(err).Uint("poll", poll.ID).Msg("Keeper was unable to distribute rewards.")
			report.Failed++
		}
	}

	if report.Closed > 0 || report.Distributed > 0 || report.Failed > 0 {
		log.Info().
			Int("closed", report.Closed).
			Int("distributed", report.Distributed).
			Int("failed", report.Failed).
			Msg("Keeper run finished.")
	}

	return report
}
