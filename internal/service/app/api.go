package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"login_gateway/internal/service/server"

	"github.com/gorilla/websocket"
)

// getSession returns nil, nil when the ops server knows nothing of name.
func (c *App) getSession(ctx context.Context, name string) (*server.SessionView, error) {
	u := url.URL{
		Scheme: "http",
		Host:   c.opsAddr,
		Path:   fmt.Sprintf("/sessions/%s", name),
	}

	var view server.SessionView
	found, err := c.getJSON(ctx, u, &view)
	if err != nil || !found {
		return nil, err
	}
	return &view, nil
}

func (c *App) getOnlineCount(ctx context.Context) (int, error) {
	u := url.URL{
		Scheme: "http",
		Host:   c.opsAddr,
		Path:   "/sessions",
	}

	var body map[string]int
	if _, err := c.getJSON(ctx, u, &body); err != nil {
		return 0, err
	}
	return body["online"], nil
}

func (c *App) getJSON(ctx context.Context, u url.URL, v any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}

	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("GET %s: %s", u.Path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, err
	}
	return true, nil
}

func (c *App) initEventStream(ctx context.Context) (*websocket.Conn, error) {
	u := url.URL{
		Scheme: "ws",
		Host:   c.opsAddr,
		Path:   "/events",
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	return conn, nil
}
