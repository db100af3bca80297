package v1

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/smartmarkhq/smartmark/pkg/utils"
	"github.com/valyala/fasthttp"
)

// FeedStream streams the caller's bookmark change events as Server-Sent
// Events. Each event is the JSON payload published by the feed package. The
// Redis subscription lives for as long as the client keeps the connection
// open and is closed when the stream ends.
func FeedStream(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// the request context dies with the handler; the subscription must
	// outlive it and is torn down by the stream writer instead
	sub := Feed.Subscribe(context.Background(), userID.String())
	events := sub.Channel()
	log := Logger
	uid := userID.String()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		keepAlive := time.NewTicker(30 * time.Second)
		defer keepAlive.Stop()

		for {
			select {
			case msg, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
				if err := w.Flush(); err != nil {
					log.Debug(context.Background()).WithFields("user_id", uid).Logs("Feed client disconnected")
					return
				}
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	log.Info(c.Context()).WithFields("user_id", uid).Logs("Feed stream opened")
	return nil
}
