package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	ws "github.com/coder/websocket"
)

// streamPath is the service's live feed of log changes.
const streamPath = "/api/v1/logs/stream"

// Event is a change notification from the live feed.
type Event struct {
	Type string      `json:"type"`
	Kind intake.Kind `json:"kind"`
	ID   string      `json:"id,omitempty"`
}

// UnmarshalJSON accepts the id as a JSON string or number.
func (e *Event) UnmarshalJSON(b []byte) error {
	var wire struct {
		Type string      `json:"type"`
		Kind intake.Kind `json:"kind"`
		ID   flexID      `json:"id"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	*e = Event{Type: wire.Type, Kind: wire.Kind, ID: string(wire.ID)}
	return nil
}

// Subscribe connects to the live feed and calls fn for every event until ctx
// is cancelled or the connection drops. A cancelled context returns
// ctx.Err().
func (c *Client) Subscribe(ctx context.Context, fn func(Event)) error {
	if err := c.checkToken(); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	u, err := streamURL(c.BaseURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}

	// The feed is long-lived; the context bounds it instead.
	hc := *c.httpClient()
	hc.Timeout = 0

	conn, _, err := ws.Dial(ctx, u, &ws.DialOptions{
		HTTPClient: &hc,
		HTTPHeader: header,
	})
	if err != nil {
		return fmt.Errorf("dial live feed: %w", err)
	}
	defer func() { _ = conn.CloseNow() }()

	c.logger().Debug("live feed connected", "url", u)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				_ = conn.Close(ws.StatusNormalClosure, "")
				return ctx.Err()
			}
			return fmt.Errorf("read live feed: %w", err)
		}
		if typ != ws.MessageText {
			continue
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger().Debug("skipping malformed live event", "error", err)
			continue
		}
		fn(ev)
	}
}

// streamURL maps the REST base URL onto the websocket scheme.
func streamURL(base string) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + streamPath, nil
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + streamPath, nil
	case base == "":
		return "", fmt.Errorf("subscribe: missing API base URL")
	default:
		return "", fmt.Errorf("subscribe: unsupported base URL scheme in %q", base)
	}
}
