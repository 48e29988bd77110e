package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	first := hub.Subscribe()
	second := hub.Subscribe()

	tx := Transaction{Amount: 1500, Code: "NLJ7RT61SV", Phone: "254712345678", Status: StatusSuccess}
	hub.Publish(tx)

	assert.Equal(t, tx, <-first.C)
	assert.Equal(t, tx, <-second.C)
}

func TestUnsubscribedListenerReceivesNothing(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe()
	hub.Unsubscribe(sub)

	hub.Publish(Transaction{Code: "NLJ7RT61SV"})

	// The channel is closed on unsubscribe and must stay empty.
	tx, ok := <-sub.C
	assert.False(t, ok)
	assert.Zero(t, tx)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe()
	hub.Unsubscribe(sub)

	require.NotPanics(t, func() {
		hub.Unsubscribe(sub)
	})
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe()

	// Overfill the subscriber's buffer without draining it; publish must
	// drop, not stall the webhook handler.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2*cap(sub.C); i++ {
			hub.Publish(Transaction{Code: "RCPT"})
		}
	}()

	<-done
	assert.Len(t, sub.C, cap(sub.C))
}

func TestCloseClosesAllSubscribers(t *testing.T) {
	hub := NewHub()

	sub := hub.Subscribe()
	require.NoError(t, hub.Close())

	_, ok := <-sub.C
	assert.False(t, ok)

	// Subscribing after close hands back an already-closed channel.
	late := hub.Subscribe()
	_, ok = <-late.C
	assert.False(t, ok)

	hub.Publish(Transaction{Code: "RCPT"}) // must not panic
}
