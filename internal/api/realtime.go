package api

import (
	"bug_tracker/internal/realtime" // Change events and bridge
	"io"                            // Stream writer
	"net/http"                      // HTTP status codes
	"time"                          // Keep-alive interval

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// keepAlive is how often an idle stream sends a ping event
const keepAlive = 15 * time.Second

// StreamChangesHandler relays a realtime topic to the client as
// server-sent events. topic picks the channel from the request.
func StreamChangesHandler(bridge *realtime.Bridge, topic func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context() // Ends when the client goes away
		events := make(chan realtime.ChangeEvent)
		stop := make(chan struct{}) // Closed before the subscription is released
		sub, err := bridge.Subscribe(ctx, topic(c), func(ev realtime.ChangeEvent) {
			select {
			case events <- ev:
			case <-stop:
			}
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"topic": topic(c),    // Requested topic
				"error": err.Error(), // Error message
			}).Error("Realtime subscribe failed")
			respondError(c, http.StatusInternalServerError, CodeInternal, "Realtime unavailable")
			return
		}
		defer sub.Close() // Release the channel on every exit path
		defer close(stop) // Unblock a pending delivery first

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.SSEvent("ready", gin.H{"topic": sub.Topic()})
		c.Writer.Flush()
		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case ev := <-events:
				c.SSEvent("change", ev)
				return true
			case <-ticker.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			}
		})
	}
}
