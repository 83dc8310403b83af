package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/database"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/eko/gocache/lib/v4/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const MaxLeaderboardSize = 100

// onSettled folds one settled poll into the stats of everyone who staked on
// it. It runs inside the distribution transaction, which only commits once
// per poll.
func (v *Engine) onSettled(tx database.Tx, poll models.Poll, predictions []models.Prediction, rewards map[string]decimal.Decimal) error {
	sorted := append([]models.Prediction{}, predictions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UserID < sorted[j].UserID })

	for _, prediction := range sorted {
		stats, err := tx.GetUserStats(prediction.UserID)
		if errors.Is(err, database.ErrNotFound) {
			stats = models.UserStats{
				UserID:             prediction.UserID,
				TotalRewardsEarned: decimal.Zero,
				ParticipatedPolls:  datatypes.JSONSlice[uint]{},
			}
		} else if err != nil {
			return err
		}

		stats.TotalPredictions++
		if poll.WinningOption != nil && prediction.OptionIndex == *poll.WinningOption {
			stats.CorrectPredictions++
			stats.TotalRewardsEarned = stats.TotalRewardsEarned.Add(rewards[prediction.UserID])
			stats.CurrentStreak++
			stats.LongestStreak = max(stats.LongestStreak, stats.CurrentStreak)
		} else {
			stats.CurrentStreak = 0
		}
		if !lo.Contains(stats.ParticipatedPolls, poll.ID) {
			stats.ParticipatedPolls = append(stats.ParticipatedPolls, poll.ID)
		}

		if err := tx.SaveUserStats(&stats); err != nil {
			return err
		}
	}

	return nil
}

// GetUserStats returns empty stats for users who never staked.
func (v *Engine) GetUserStats(user string) (models.UserStats, error) {
	stats, err := v.store.GetUserStats(user)
	if errors.Is(err, database.ErrNotFound) {
		return models.UserStats{
			UserID:             user,
			TotalRewardsEarned: decimal.Zero,
			ParticipatedPolls:  datatypes.JSONSlice[uint]{},
		}, nil
	}
	return stats, err
}

func buildLeaderboard(stats []models.UserStats) []models.LeaderboardEntry {
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.CorrectPredictions != b.CorrectPredictions {
			return a.CorrectPredictions > b.CorrectPredictions
		}
		if cmp := a.TotalRewardsEarned.Cmp(b.TotalRewardsEarned); cmp != 0 {
			return cmp > 0
		}
		return a.UserID < b.UserID
	})

	if len(stats) > MaxLeaderboardSize {
		stats = stats[:MaxLeaderboardSize]
	}
	return lo.Map(stats, func(item models.UserStats, idx int) models.LeaderboardEntry {
		return models.LeaderboardEntry{
			Rank:               idx + 1,
			UserID:             item.UserID,
			CorrectPredictions: item.CorrectPredictions,
			TotalRewardsEarned: item.TotalRewardsEarned,
			CurrentStreak:      item.CurrentStreak,
			LongestStreak:      item.LongestStreak,
		}
	})
}

// GetLeaderboard ranks users by correct predictions, then rewards earned,
// then user id. The ranking is cached until the next settlement.
func (v *Engine) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}

	cacheKey := fmt.Sprintf("leaderboard#%d", v.generation.Load())
	if v.cache != nil {
		if val, err := v.cache.Get(ctx, cacheKey); err == nil {
			var entries []models.LeaderboardEntry
			if raw, ok := val.([]byte); ok && jsoniter.Unmarshal(raw, &entries) == nil {
				return lo.Slice(entries, 0, limit), nil
			}
		}
	}

	stats, err := v.store.ListUserStats()
	if err != nil {
		return nil, err
	}
	entries := buildLeaderboard(stats)

	if v.cache != nil {
		if raw, err := jsoniter.Marshal(entries); err == nil {
			if err := v.cache.Set(
				ctx,
				cacheKey,
				raw,
				store.WithExpiration(10*time.Minute),
				store.WithTags([]string{"leaderboard"}),
			); err != nil {
				log.Warn().Err(err).Msg("Unable to cache leaderboard.")
			}
		}
	}

	return lo.Slice(entries, 0, limit), nil
}
