package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/database"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/events"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/gap"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	MinOptions = 2
	MaxOptions = 10
)

type Config struct {
	FeePercent        int64           `json:"fee_percent"`
	MinStakeAmount    decimal.Decimal `json:"min_stake_amount"`
	MinPollDuration   time.Duration   `json:"min_poll_duration"`
	MaxPollDuration   time.Duration   `json:"max_poll_duration"`
	FeeRecipient      string          `json:"fee_recipient"`
	TransferTimeout   time.Duration   `json:"transfer_timeout"`
	MaxQuestionLength int             `json:"max_question_length"`
	MaxOptionLength   int             `json:"max_option_length"`
}

// DefaultConfig returns the platform defaults, amounts are in wei.
func DefaultConfig() Config {
	return Config{
		FeePercent:        2,
		MinStakeAmount:    decimal.New(1, 15),
		MinPollDuration:   time.Hour,
		MaxPollDuration:   30 * 24 * time.Hour,
		FeeRecipient:      "platform",
		TransferTimeout:   3 * time.Second,
		MaxQuestionLength: 512,
		MaxOptionLength:   128,
	}
}

type Option func(v *Engine)

func WithBus(bus *events.Bus) Option {
	return func(v *Engine) { v.bus = bus }
}

func WithClock(now func() time.Time) Option {
	return func(v *Engine) { v.now = now }
}

func WithCache(s store.StoreInterface) Option {
	return func(v *Engine) { v.cache = cache.New[any](s) }
}

func WithLanguageDetector(detect func(string) string) Option {
	return func(v *Engine) { v.detectLanguage = detect }
}

// Engine is the poll accounting core. Every write to a poll runs under that
// poll's lock, so checks and writes never interleave within one poll.
type Engine struct {
	store  database.Store
	wallet gap.Wallet
	bus    *events.Bus
	cache  *cache.Cache[any]

	now            func() time.Time
	detectLanguage func(string) string

	settingsLock sync.RWMutex
	config       Config
	paused       bool

	pollLocks      sync.Map
	reputationLock sync.Mutex
	generation     atomic.Int64
}

func NewEngine(store database.Store, wallet gap.Wallet, cfg Config, opts ...Option) *Engine {
	v := &Engine{
		store:  store,
		wallet: wallet,
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Engine) lockPoll(id uint) func() {
	mu, _ := v.pollLocks.LoadOrStore(id, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// forgetPoll drops the lock of a distributed poll. A distributed poll never
// changes again, so callers racing on a fresh lock only ever read it.
func (v *Engine) forgetPoll(id uint) {
	v.pollLocks.Delete(id)
}

func (v *Engine) publish(topic string, pollID uint, payload map[string]any) {
	if v.bus == nil {
		return
	}
	v.bus.Publish(events.Event{
		Topic:     topic,
		PollID:    pollID,
		Payload:   payload,
		CreatedAt: v.now(),
	})
}

// pay sends value out of the platform custody within the transfer timeout.
func (v *Engine) pay(ctx context.Context, payee string, amount decimal.Decimal, remark string) error {
	ctx, cancel := context.WithTimeout(ctx, v.Settings().TransferTimeout)
	defer cancel()
	if err := v.wallet.Pay(ctx, payee, amount, remark); err != nil {
		return fmt.Errorf("%w: pay %s to %s: %v", ErrTransferFailed, amount, payee, err)
	}
	return nil
}

// charge pulls value from an account into the platform custody.
func (v *Engine) charge(ctx context.Context, payer string, amount decimal.Decimal, remark string) error {
	ctx, cancel := context.WithTimeout(ctx, v.Settings().TransferTimeout)
	defer cancel()
	if err := v.wallet.Charge(ctx, payer, amount, remark); err != nil {
		return fmt.Errorf("%w: charge %s from %s: %v", ErrTransferFailed, amount, payer, err)
	}
	return nil
}

// compensate reverses transfers that already went out. It does not use the
// caller context, which may be the reason the operation is unwinding.
func (v *Engine) compensate(steps []func(ctx context.Context) error) {
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i](context.Background()); err != nil {
			log.Error().Err(err).Msg("Unable to reverse a transfer, manual reconciliation is required.")
		}
	}
}
