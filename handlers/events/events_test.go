package events

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thedevbrian1/paragon-net/broadcast"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventsServer(t *testing.T, hub broadcast.Broadcaster) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/events", Stream(hub))

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestStreamForwardsPublishedEvents(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()

	server := newEventsServer(t, hub)

	res, err := http.Get(server.URL + "/events")
	require.NoError(t, err)
	defer res.Body.Close()

	// Wait for the handler to register its subscription before publishing.
	require.Eventually(t, func() bool {
		return hub.Subscribers() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(broadcast.Transaction{
		Amount: 1500,
		Code:   "NLJ7RT61SV",
		Phone:  "254712345678",
		Status: broadcast.StatusSuccess,
	})

	reader := bufio.NewReader(res.Body)
	var data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			break
		}
	}

	assert.Contains(t, data, `"code":"NLJ7RT61SV"`)
	assert.Contains(t, data, `"phone":"254712345678"`)
	assert.Contains(t, data, `"amount":1500`)
}

func TestDisconnectCleansUpSubscription(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()

	server := newEventsServer(t, hub)

	res, err := http.Get(server.URL + "/events")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return hub.Subscribers() == 1
	}, time.Second, 10*time.Millisecond)

	// Closing the body is the client going away; the handler must
	// unsubscribe or the hub leaks a listener per abandoned tab.
	res.Body.Close()

	require.Eventually(t, func() bool {
		return hub.Subscribers() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Publishing afterwards reaches nobody and must not block or panic.
	hub.Publish(broadcast.Transaction{Code: "NLJ7RT61SV"})
}

func TestEachConnectionGetsItsOwnSubscription(t *testing.T) {
	hub := broadcast.NewHub()
	defer hub.Close()

	server := newEventsServer(t, hub)

	first, err := http.Get(server.URL + "/events")
	require.NoError(t, err)
	defer first.Body.Close()

	second, err := http.Get(server.URL + "/events")
	require.NoError(t, err)
	defer second.Body.Close()

	require.Eventually(t, func() bool {
		return hub.Subscribers() == 2
	}, time.Second, 10*time.Millisecond)
}
