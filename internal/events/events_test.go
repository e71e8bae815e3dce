package events

import (
	"context"
	"testing"

	"form95/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventBus_LocalDelivery(t *testing.T) {
	bus := New(nil, config.Config{Environment: "test"})
	defer bus.Close()

	var got []Event
	bus.Subscribe(ChannelClaims, func(e Event) { got = append(got, e) })
	bus.Subscribe("other", func(e Event) { t.Fatalf("unexpected event on other channel: %v", e) })

	err := bus.Publish(context.Background(), ChannelClaims, NewEvent(ClaimDrafted, map[string]any{"claimId": "abc"}))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, ClaimDrafted, got[0].Type)
	assert.Equal(t, ChannelClaims, got[0].Channel)
	assert.Equal(t, "abc", got[0].Data["claimId"])
	assert.NotEmpty(t, got[0].ID)
}

func TestEventBus_ChannelName(t *testing.T) {
	assert.Equal(t, "form95:production:claims", New(nil, config.Config{Environment: "production"}).channelName(ChannelClaims))
	assert.Equal(t, "form95:claims", New(nil, config.Config{}).channelName(ChannelClaims))
}
