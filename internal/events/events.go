package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"form95/config"
	"form95/internal/database"
	"form95/internal/logger"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const ChannelClaims = "claims"

const (
	ClaimDrafted     = "claim.drafted"
	ClaimFinalized   = "claim.finalized"
	ClaimFillFailed  = "claim.fill_failed"
	ClaimUpdated     = "claim.updated"
	ClaimRegenerated = "claim.regenerated"
	ClaimDeleted     = "claim.deleted"
)

type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewEvent(eventType string, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

type Handler func(Event)

// EventBus fans events out over valkey pub/sub so every server process
// sees them. Without a cache client events are delivered in-process.
type EventBus struct {
	client   database.CacheClient
	prefix   string
	log      logger.Logger
	mu       sync.RWMutex
	handlers map[string][]Handler
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func New(client database.CacheClient, config config.Config) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	prefix := "form95"
	if config.Environment != "" {
		prefix += ":" + config.Environment
	}

	return &EventBus{
		client:   client,
		prefix:   prefix,
		log:      logger.New("events"),
		handlers: make(map[string][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (b *EventBus) channelName(channel string) string {
	return b.prefix + ":" + channel
}

func (b *EventBus) Publish(ctx context.Context, channel string, event Event) error {
	log := b.log.Function("Publish")
	event.Channel = channel

	if b.client == nil {
		b.dispatch(channel, event)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "type", event.Type)
	}

	cmd := b.client.B().Publish().Channel(b.channelName(channel)).Message(valkey.BinaryString(payload)).Build()
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		return log.Err("failed to publish event", err, "type", event.Type, "channel", channel)
	}

	log.Debug("published event", "type", event.Type, "channel", channel)
	return nil
}

// Subscribe registers handler for channel. The first subscription to a
// channel starts its valkey receiver.
func (b *EventBus) Subscribe(channel string, handler Handler) {
	b.mu.Lock()
	first := len(b.handlers[channel]) == 0
	b.handlers[channel] = append(b.handlers[channel], handler)
	b.mu.Unlock()

	if first && b.client != nil {
		b.wg.Add(1)
		go b.receive(channel)
	}
}

func (b *EventBus) receive(channel string) {
	defer b.wg.Done()
	log := b.log.Function("receive")

	for {
		err := b.client.Receive(b.ctx, b.client.B().Subscribe().Channel(b.channelName(channel)).Build(),
			func(msg valkey.PubSubMessage) {
				var event Event
				if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
					log.Warn("dropping malformed event", "channel", channel, "error", err)
					return
				}
				b.dispatch(channel, event)
			})

		if b.ctx.Err() != nil {
			return
		}

		log.Warn("event subscription ended, retrying", "channel", channel, "error", err)
		select {
		case <-b.ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (b *EventBus) dispatch(channel string, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[channel]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (b *EventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}
