package cli

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// event mirrors the hub's broadcast message.
type event struct {
	Event   string `json:"event"`
	Payload struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	} `json:"payload"`
}

// watchEvents maintains a websocket to the board event stream and forwards
// post_created notifications. It reconnects with a flat backoff and stops
// when ctx is cancelled. Connection failures are non-fatal: the client works
// fine without live updates.
func (a *App) watchEvents(ctx context.Context, notify func(event)) {
	url := wsURL(a.cfg.ServerURL) + "/api/v1/boards/events"

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			a.log.Debug("event stream unavailable", "error", err)
		} else {
			a.readEvents(ctx, conn, notify)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (a *App) readEvents(ctx context.Context, conn *websocket.Conn, notify func(event)) {
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		notify(ev)
	}
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
