// Command wsprobe is an exploratory client for the order-book websocket feed.
// It subscribes to the market and trade channels of one market and logs every
// frame it receives for a bounded window, then exits. It is a diagnostic
// tool, not part of the serving path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// subscription is the subscribe frame the feed expects, one per channel.
type subscription struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Market  string `json:"market"`
}

func main() {
	endpoint := flag.String("endpoint", "wss://ws-subscriptions-clob.polymarket.com/ws", "websocket endpoint")
	marketID := flag.String("market", "", "market id to subscribe to")
	window := flag.Duration("window", 30*time.Second, "how long to listen before exiting")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *marketID == "" {
		logger.Error("missing -market flag")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *window)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *endpoint, nil)
	if err != nil {
		logger.Error("dial failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer conn.Close()

	for _, channel := range []string{"markets", "trades"} {
		sub := subscription{Type: "subscribe", Channel: channel, Market: *marketID}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Error("subscribe failed",
				slog.String("channel", channel),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		logger.Info("subscribed", slog.String("channel", channel))
	}

	// Unblock the read loop when the window closes.
	go func() {
		<-ctx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("window elapsed")
				return
			}
			logger.Error("read failed", slog.String("error", err.Error()))
			os.Exit(1)
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(frame, &msg); err != nil {
			logger.Warn("frame is not JSON", slog.String("frame", string(frame)))
			continue
		}
		logger.Info("frame received",
			slog.String("type", msg.Type),
			slog.String("payload", string(frame)),
		)
	}
}
