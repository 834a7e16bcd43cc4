package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log15 "github.com/inconshreveable/log15"
	"github.com/jpillora/backoff"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/logging"
)

var errEnoughEvents = errors.New("received requested events")

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Print a board's events as they happen, reconnecting on failure",
		ArgsUsage: "BOARD_ID",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Usage: "exit after this many events (0 waits forever)"},
			&cli.IntFlag{Name: "retries", Usage: "give up after this many failed connections in a row (0 retries forever)"},
			&cli.DurationFlag{Name: "max-backoff", Value: 30 * time.Second, Usage: "longest wait between reconnects"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := strings.TrimSpace(cmd.Args().First())
			if id == "" {
				return fmt.Errorf("BOARD_ID is required")
			}
			target, err := websocketURL(cmd.String("server"), id)
			if err != nil {
				return err
			}

			w := &watcher{
				url:     target,
				out:     cmd.Root().Writer,
				count:   cmd.Int("count"),
				retries: cmd.Int("retries"),
				backoff: &backoff.Backoff{
					Min:    200 * time.Millisecond,
					Max:    cmd.Duration("max-backoff"),
					Factor: 2,
					Jitter: true,
				},
				log: logging.New(cmd.Bool("debug")).New("cmd", "watch", "board_id", id),
			}
			return w.run(ctx)
		},
	}
}

// websocketURL turns the server base URL into the /ws subscription URL
// for boardID.
func websocketURL(server, boardID string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"board": {boardID}}.Encode()
	return u.String(), nil
}

type watcher struct {
	url     string
	out     io.Writer
	count   int
	retries int
	backoff *backoff.Backoff
	log     log15.Logger

	seen int
}

func (w *watcher) run(ctx context.Context) error {
	failures := 0
	for {
		err := w.session(ctx)
		if errors.Is(err, errEnoughEvents) || ctx.Err() != nil {
			return nil
		}

		failures++
		if w.retries > 0 && failures >= w.retries {
			return fmt.Errorf("giving up after %d failed connections: %w", failures, err)
		}

		wait := w.backoff.Duration()
		w.log.Warn("connection lost", "err", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session reads events from one connection until it fails or enough events
// have been printed.
func (w *watcher) session(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	w.backoff.Reset()
	w.log.Debug("connected", "url", w.url)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var event service.Event
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		printEvent(w.out, event)

		w.seen++
		if w.count > 0 && w.seen >= w.count {
			return errEnoughEvents
		}
	}
}

func printEvent(out io.Writer, event service.Event) {
	switch event.Type {
	case service.EventUpdateBoard, service.EventAdvanceCompleted:
		fmt.Fprintf(out, "%s %s generation %d\n%s\n\n", event.Type, event.BoardID, event.Generation, event.Grid.String())
	case service.EventAdvanceFailed:
		reason := event.Error
		if reason == "" {
			reason = "did not conclude"
		}
		fmt.Fprintf(out, "%s %s: %s\n", event.Type, event.BoardID, reason)
	case service.EventBoardStopped:
		fmt.Fprintf(out, "%s %s: %s\n", event.Type, event.BoardID, event.Error)
	default:
		fmt.Fprintf(out, "%s %s\n", event.Type, event.BoardID)
	}
}
