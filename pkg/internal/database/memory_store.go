package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type predictionKey struct {
	PollID uint
	UserID string
}

// MemoryStore keeps every record in process. Transactions hold the store
// lock for their whole duration and undo their writes on failure.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{
		polls:       make(map[uint]models.Poll),
		predictions: make(map[predictionKey]models.Prediction),
		stats:       make(map[string]models.UserStats),
	}}
}

func (v *MemoryStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	tx := &memoryTx{state: v.state}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (v *MemoryStore) write(fn func(tx Tx) error) error {
	return v.Transaction(context.Background(), fn)
}

func (v *MemoryStore) CreatePoll(poll *models.Poll) error {
	return v.write(func(tx Tx) error { return tx.CreatePoll(poll) })
}

func (v *MemoryStore) GetPoll(id uint) (models.Poll, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.getPoll(id)
}

func (v *MemoryStore) ListPolls(active bool) ([]models.Poll, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.listPolls(active), nil
}

func (v *MemoryStore) CountPolls() (int64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return int64(len(v.state.polls)), nil
}

func (v *MemoryStore) SavePoll(poll *models.Poll) error {
	return v.write(func(tx Tx) error { return tx.SavePoll(poll) })
}

func (v *MemoryStore) CreatePrediction(prediction *models.Prediction) error {
	return v.write(func(tx Tx) error { return tx.CreatePrediction(prediction) })
}

func (v *MemoryStore) GetPrediction(pollID uint, user string) (models.Prediction, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.getPrediction(pollID, user)
}

func (v *MemoryStore) ListPredictions(pollID uint) ([]models.Prediction, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.listPredictions(pollID), nil
}

func (v *MemoryStore) SavePrediction(prediction *models.Prediction) error {
	return v.write(func(tx Tx) error { return tx.SavePrediction(prediction) })
}

func (v *MemoryStore) GetUserStats(user string) (models.UserStats, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.getUserStats(user)
}

func (v *MemoryStore) ListUserStats() ([]models.UserStats, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.listUserStats(), nil
}

func (v *MemoryStore) SaveUserStats(stats *models.UserStats) error {
	return v.write(func(tx Tx) error { return tx.SaveUserStats(stats) })
}

func (v *MemoryStore) CreatePayouts(payouts []models.Payout) error {
	return v.write(func(tx Tx) error { return tx.CreatePayouts(payouts) })
}

func (v *MemoryStore) SumPayouts(kind string) (decimal.Decimal, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.sumPayouts(kind), nil
}

type memoryState struct {
	lastPollID   uint
	lastRecordID uint

	polls       map[uint]models.Poll
	predictions map[predictionKey]models.Prediction
	stats       map[string]models.UserStats
	payouts     []models.Payout
}

func (v *memoryState) getPoll(id uint) (models.Poll, error) {
	poll, ok := v.polls[id]
	if !ok {
		return models.Poll{}, ErrNotFound
	}
	return poll.Clone(), nil
}

func (v *memoryState) listPolls(active bool) []models.Poll {
	var out []models.Poll
	for _, poll := range v.polls {
		if poll.IsActive == active {
			out = append(out, poll.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *memoryState) getPrediction(pollID uint, user string) (models.Prediction, error) {
	prediction, ok := v.predictions[predictionKey{pollID, user}]
	if !ok {
		return models.Prediction{}, ErrNotFound
	}
	return prediction, nil
}

func (v *memoryState) listPredictions(pollID uint) []models.Prediction {
	var out []models.Prediction
	for key, prediction := range v.predictions {
		if key.PollID == pollID {
			out = append(out, prediction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (v *memoryState) getUserStats(user string) (models.UserStats, error) {
	stats, ok := v.stats[user]
	if !ok {
		return models.UserStats{}, ErrNotFound
	}
	return stats.Clone(), nil
}

func (v *memoryState) listUserStats() []models.UserStats {
	out := lo.MapToSlice(v.stats, func(_ string, item models.UserStats) models.UserStats {
		return item.Clone()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (v *memoryState) sumPayouts(kind string) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range v.payouts {
		if item.Kind == kind {
			sum = sum.Add(item.Amount)
		}
	}
	return sum
}

type memoryTx struct {
	state *memoryState
	undo  []func()
}

func (v *memoryTx) rollback() {
	for i := len(v.undo) - 1; i >= 0; i-- {
		v.undo[i]()
	}
	v.undo = nil
}

func (v *memoryTx) rememberPoll(id uint) {
	old, existed := v.state.polls[id]
	v.undo = append(v.undo, func() {
		if existed {
			v.state.polls[id] = old
		} else {
			delete(v.state.polls, id)
		}
	})
}

func (v *memoryTx) CreatePoll(poll *models.Poll) error {
	lastID := v.state.lastPollID
	v.undo = append(v.undo, func() { v.state.lastPollID = lastID })
	v.state.lastPollID++

	now := time.Now()
	poll.ID = v.state.lastPollID
	poll.CreatedAt = now
	poll.UpdatedAt = now

	v.rememberPoll(poll.ID)
	v.state.polls[poll.ID] = poll.Clone()
	return nil
}

func (v *memoryTx) GetPoll(id uint) (models.Poll, error) {
	return v.state.getPoll(id)
}

func (v *memoryTx) ListPolls(active bool) ([]models.Poll, error) {
	return v.state.listPolls(active), nil
}

func (v *memoryTx) CountPolls() (int64, error) {
	return int64(len(v.state.polls)), nil
}

func (v *memoryTx) SavePoll(poll *models.Poll) error {
	if _, ok := v.state.polls[poll.ID]; !ok {
		return ErrNotFound
	}
	v.rememberPoll(poll.ID)
	poll.UpdatedAt = time.Now()
	v.state.polls[poll.ID] = poll.Clone()
	return nil
}

func (v *memoryTx) nextRecordID() uint {
	lastID := v.state.lastRecordID
	v.undo = append(v.undo, func() { v.state.lastRecordID = lastID })
	v.state.lastRecordID++
	return v.state.lastRecordID
}

func (v *memoryTx) rememberPrediction(key predictionKey) {
	old, existed := v.state.predictions[key]
	v.undo = append(v.undo, func() {
		if existed {
			v.state.predictions[key] = old
		} else {
			delete(v.state.predictions, key)
		}
	})
}

func (v *memoryTx) CreatePrediction(prediction *models.Prediction) error {
	key := predictionKey{prediction.PollID, prediction.UserID}
	if _, ok := v.state.predictions[key]; ok {
		return ErrDuplicated
	}

	now := time.Now()
	prediction.ID = v.nextRecordID()
	prediction.CreatedAt = now
	prediction.UpdatedAt = now

	v.rememberPrediction(key)
	v.state.predictions[key] = *prediction
	return nil
}

func (v *memoryTx) GetPrediction(pollID uint, user string) (models.Prediction, error) {
	return v.state.getPrediction(pollID, user)
}

func (v *memoryTx) ListPredictions(pollID uint) ([]models.Prediction, error) {
	return v.state.listPredictions(pollID), nil
}

func (v *memoryTx) SavePrediction(prediction *models.Prediction) error {
	key := predictionKey{prediction.PollID, prediction.UserID}
	if _, ok := v.state.predictions[key]; !ok {
		return ErrNotFound
	}
	v.rememberPrediction(key)
	prediction.UpdatedAt = time.Now()
	v.state.predictions[key] = *prediction
	return nil
}

func (v *memoryTx) GetUserStats(user string) (models.UserStats, error) {
	return v.state.getUserStats(user)
}

func (v *memoryTx) ListUserStats() ([]models.UserStats, error) {
	return v.state.listUserStats(), nil
}

func (v *memoryTx) SaveUserStats(stats *models.UserStats) error {
	key := stats.UserID
	old, existed := v.state.stats[key]
	v.undo = append(v.undo, func() {
		if existed {
			v.state.stats[key] = old
		} else {
			delete(v.state.stats, key)
		}
	})

	now := time.Now()
	if !existed {
		stats.CreatedAt = now
	}
	stats.UpdatedAt = now
	v.state.stats[key] = stats.Clone()
	return nil
}

func (v *memoryTx) CreatePayouts(payouts []models.Payout) error {
	size := len(v.state.payouts)
	v.undo = append(v.undo, func() { v.state.payouts = v.state.payouts[:size] })

	now := time.Now()
	for _, item := range payouts {
		item.ID = v.nextRecordID()
		item.CreatedAt = now
		item.UpdatedAt = now
		v.state.payouts = append(v.state.payouts, item)
	}
	return nil
}

func (v *memoryTx) SumPayouts(kind string) (decimal.Decimal, error) {
	return v.state.sumPayouts(kind), nil
}
