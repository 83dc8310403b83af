package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	TopicPollCreated          = "polls.created"
	TopicPlatformFeeCollected = "polls.fee_collected"
	TopicPredictionSubmitted  = "predictions.submitted"
	TopicPollClosed           = "polls.closed"
	TopicRewardClaimed        = "rewards.claimed"
	TopicRewardsDistributed   = "rewards.distributed"
	TopicPlatformPaused       = "platform.paused"
	TopicPlatformUnpaused     = "platform.unpaused"

	// TopicAll subscribes a handler to every topic.
	TopicAll = "*"
)

type Event struct {
	Topic     string         `json:"topic"`
	PollID    uint           `json:"poll_id,omitempty"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

type Handler func(evt Event)

// Bus is the outbound notification point of the engine. Events are only
// published after the write they describe has been committed.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

func (v *Bus) Subscribe(topic string, handler Handler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.handlers[topic] = append(v.handlers[topic], handler)
}

func (v *Bus) Publish(evt Event) {
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}

	v.mu.RLock()
	handlers := make([]Handler, 0, len(v.handlers[evt.Topic])+len(v.handlers[TopicAll]))
	handlers = append(handlers, v.handlers[evt.Topic]...)
	handlers = append(handlers, v.handlers[TopicAll]...)
	v.mu.RUnlock()

	for _, handler := range handlers {
		v.dispatch(handler, evt)
	}
}

func (v *Bus) dispatch(handler Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("topic", evt.Topic).Msg("An event handler panicked...")
		}
	}()
	handler(evt)
}
