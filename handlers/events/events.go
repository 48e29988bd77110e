package events

import (
	"io"

	"github.com/thedevbrian1/paragon-net/broadcast"

	"github.com/gin-gonic/gin"
)

// Stream holds the connection open and forwards every transaction event to
// the client as a server-sent event. Correlation to the right session happens
// when the browser submits the event back to the wizard, not here.
func Stream(hub broadcast.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := hub.Subscribe()
		// Dropping the subscription on disconnect is mandatory; a leaked
		// listener stays in the hub for the life of the process.
		defer hub.Unsubscribe(sub)

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.Stream(func(w io.Writer) bool {
			select {
			case tx, ok := <-sub.C:
				if !ok {
					return false
				}
				c.SSEvent("message", tx)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
