package events

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Publisher is the part of *nats.Conn the forwarder needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// NewNatsForwarder relays every event to <subject>.<topic> for external indexers.
func NewNatsForwarder(conn Publisher, subject string) Handler {
	return func(evt Event) {
		raw, err := jsoniter.Marshal(evt)
		if err != nil {
			log.Error().Err(err).Str("topic", evt.Topic).Msg("Unable to encode event...")
			return
		}
		target := fmt.Sprintf("%s.%s", subject, evt.Topic)
		if err := conn.Publish(target, raw); err != nil {
			log.Warn().Err(err).Str("subject", target).Msg("Unable to forward event to nats...")
		}
	}
}
