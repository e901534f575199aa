package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"login_gateway/internal/model"
	"login_gateway/internal/service/server"
	"login_gateway/internal/utils/log"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const requestTimeout = 5 * time.Second

type (
	// App is the operator console: a live feed of login events and a lookup
	// box for player sessions.
	App struct {
		app     *tview.Application
		feed    *tview.TextView
		details *tview.TextView
		input   *tview.InputField

		opsAddr string
		conn    *websocket.Conn
	}
)

func NewApp(opsAddr string) *App {
	return &App{
		app:     tview.NewApplication(),
		opsAddr: opsAddr,
	}
}

// Run connects to the event stream and blocks until the UI exits.
func (c *App) Run(ctx context.Context) error {
	conn, err := c.initEventStream(ctx)
	if err != nil {
		return fmt.Errorf("connect event stream: %w", err)
	}
	c.conn = conn

	c.buildUI()
	go c.listenOnEvents()
	go c.refreshTitle(ctx)

	return c.app.SetRoot(c.layout(), true).SetFocus(c.input).Run()
}

func (c *App) Stop() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.app.Stop()
}

func (c *App) buildUI() {
	c.feed = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	c.feed.SetBorder(true).SetTitle(" Logins ")

	c.details = tview.NewTextView().
		SetDynamicColors(true)
	c.details.SetBorder(true).SetTitle(" Session ")

	c.input = tview.NewInputField().
		SetLabel("Player: ").
		SetFieldWidth(0)
	c.input.SetBorder(true).SetTitle(" Lookup ")

	c.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		name := strings.TrimSpace(c.input.GetText())
		if name == "" {
			return
		}
		go c.lookup(name)
	})
}

func (c *App) layout() tview.Primitive {
	top := tview.NewFlex().
		AddItem(c.feed, 0, 2, false).
		AddItem(c.details, 0, 1, false)

	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 1, false).
		AddItem(c.input, 3, 0, true)
}

func (c *App) lookup(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	view, err := c.getSession(ctx, name)
	text := formatSession(name, view)
	if err != nil {
		log.Debug("session lookup failed", zap.String("name", name), zap.Error(err))
		text = fmt.Sprintf("[red]lookup failed:[-] %s", tview.Escape(err.Error()))
	}

	c.app.QueueUpdateDraw(func() {
		c.details.SetText(text)
		c.input.SetText("")
	})
}

func (c *App) listenOnEvents() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug("event stream closed", zap.Error(err))
			c.conn.Close()
			c.app.QueueUpdateDraw(func() {
				fmt.Fprintln(c.feed, "[red]event stream closed[-]")
			})
			return
		}

		var ev model.LoginEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Error("unmarshal event failed", zap.Error(err))
			continue
		}

		line := formatEvent(ev)
		c.app.QueueUpdateDraw(func() {
			fmt.Fprintln(c.feed, line)
			c.feed.ScrollToEnd()
		})
	}
}

func (c *App) refreshTitle(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		online, err := c.getOnlineCount(reqCtx)
		cancel()
		if err != nil {
			continue
		}
		c.app.QueueUpdateDraw(func() {
			c.feed.SetTitle(fmt.Sprintf(" Logins (%d online) ", online))
		})
	}
}

var eventColors = map[model.EventKind]string{
	model.EventAccepted:      "white",
	model.EventAuthenticated: "green",
	model.EventRejected:      "red",
	model.EventDenied:        "yellow",
	model.EventDisconnected:  "gray",
}

func formatEvent(ev model.LoginEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]%-13s[-] %s",
		ev.At.Format(time.TimeOnly), eventColors[ev.Kind], ev.Kind, tview.Escape(ev.Address))

	if ev.Username != "" {
		fmt.Fprintf(&b, " %s", tview.Escape(ev.Username))
	}
	if ev.Reconnecting {
		b.WriteString(" (reconnect)")
	}
	if ev.StatusName != "" {
		fmt.Fprintf(&b, " -> %s", ev.StatusName)
	}
	if ev.Reason != "" {
		fmt.Fprintf(&b, " (%s)", ev.Reason)
	}
	return b.String()
}

func formatSession(name string, view *server.SessionView) string {
	if view == nil {
		return fmt.Sprintf("%s: no session", tview.Escape(name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[::b]%s[::-]\n", tview.Escape(name))
	switch {
	case view.Online && view.Since != nil:
		fmt.Fprintf(&b, "[green]online[-] since %s\n", view.Since.Format(time.DateTime))
	case view.Online:
		b.WriteString("[green]online[-]\n")
	default:
		b.WriteString("[gray]offline[-]\n")
	}

	if s := view.Session; s != nil {
		fmt.Fprintf(&b, "address  %s\n", tview.Escape(s.Address))
		fmt.Fprintf(&b, "client   %s r%d\n", s.Client, s.Release)
		fmt.Fprintf(&b, "memory   %s\n", map[bool]string{true: "low", false: "high"}[s.LowMemory])
		fmt.Fprintf(&b, "login    %s\n", s.LoginAt.Format(time.DateTime))
	}
	return b.String()
}
