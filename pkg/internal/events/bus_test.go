package events

import (
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

func TestBusDeliversToTopicAndWildcard(t *testing.T) {
	bus := NewBus()

	var topicHits, allHits []string
	bus.Subscribe(TopicPollCreated, func(evt Event) { topicHits = append(topicHits, evt.Topic) })
	bus.Subscribe(TopicAll, func(evt Event) { allHits = append(allHits, evt.Topic) })

	bus.Publish(Event{Topic: TopicPollCreated, PollID: 1})
	bus.Publish(Event{Topic: TopicPollClosed, PollID: 1})

	if len(topicHits) != 1 {
		t.Errorf("Expected 1 topic delivery, got %d", len(topicHits))
	}
	if len(allHits) != 2 {
		t.Errorf("Expected 2 wildcard deliveries, got %d", len(allHits))
	}
}

func TestBusRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus()

	delivered := false
	bus.Subscribe(TopicPollClosed, func(evt Event) { panic("boom") })
	bus.Subscribe(TopicPollClosed, func(evt Event) { delivered = true })

	bus.Publish(Event{Topic: TopicPollClosed})

	if !delivered {
		t.Error("Expected handler after a panicking one to still receive the event")
	}
}

func TestBusStampsCreatedAt(t *testing.T) {
	bus := NewBus()

	var got Event
	bus.Subscribe(TopicAll, func(evt Event) { got = evt })
	bus.Publish(Event{Topic: TopicPlatformPaused})

	if got.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set on publish")
	}
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (v *recordingPublisher) Publish(subject string, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subjects = append(v.subjects, subject)
	v.payloads = append(v.payloads, data)
	return nil
}

func TestNatsForwarderPublishesEncodedEvent(t *testing.T) {
	pub := &recordingPublisher{}
	bus := NewBus()
	bus.Subscribe(TopicAll, NewNatsForwarder(pub, "ponder"))

	bus.Publish(Event{Topic: TopicRewardsDistributed, PollID: 7, Payload: map[string]any{"winner_count": 2}})

	if len(pub.subjects) != 1 || pub.subjects[0] != "ponder.rewards.distributed" {
		t.Fatalf("Unexpected subjects: %v", pub.subjects)
	}

	var decoded Event
	if err := jsoniter.Unmarshal(pub.payloads[0], &decoded); err != nil {
		t.Fatalf("Failed to decode forwarded payload: %v", err)
	}
	if decoded.PollID != 7 {
		t.Errorf("Expected poll id 7, got %d", decoded.PollID)
	}
}
