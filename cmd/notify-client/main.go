// Command notify-client connects to the realtime notification channel and
// prints leave request updates as they arrive.
//
// Commands read from stdin: "list" prints the inbox, "read" marks every
// notification as read, "read <id>" marks one.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prajwalc1/employee-timeline/internal/config"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/logging"
	"github.com/prajwalc1/employee-timeline/internal/realtime"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	url := flag.String("url", cfg.Realtime.URL, "realtime endpoint (ws:// or wss://)")
	token := flag.String("token", cfg.Realtime.Token, "access token")
	flag.Parse()

	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		AddSource:   cfg.Logging.AddSource,
		Output:      os.Stderr,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	})

	client, err := realtime.NewClient(realtime.Options{
		URL:            *url,
		Token:          *token,
		ReconnectDelay: cfg.Realtime.ReconnectDelay,
		MaxAttempts:    cfg.Realtime.MaxAttempts,
		ShowAlerts:     cfg.Realtime.ShowAlerts,
		Alerter:        consoleAlerter{out: os.Stdout},
		Logger:         logger,
	})
	if err != nil {
		logger.Error("invalid client configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	unsubscribe := client.Subscribe(func(s realtime.Snapshot) {
		logger.Debug("client state", "state", s.State.String(), "unread", s.Unread)
	})
	defer unsubscribe()

	go readCommands(os.Stdin, os.Stdout, client)

	if err := client.Run(ctx); err != nil {
		logger.Error("realtime client stopped", "error", err)
		os.Exit(1)
	}
}

type consoleAlerter struct {
	out io.Writer
}

func (a consoleAlerter) Alert(_ context.Context, alert realtime.Alert) {
	switch alert.Kind {
	case realtime.AlertNotification:
		fmt.Fprintf(a.out, "* %s\n", alert.Message)
	default:
		fmt.Fprintf(a.out, "! %s\n", alert.Message)
	}
}

func readCommands(in io.Reader, out io.Writer, client *realtime.Client) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "list":
			snap := client.Snapshot()
			fmt.Fprintf(out, "%s, %d unread\n", snap.State, snap.Unread)
			for _, n := range snap.Notifications {
				marker := " "
				if !n.Read {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s  %s  %s\n", marker, n.ID, n.Timestamp.Format("2006-01-02 15:04:05"), n.Message)
			}
		case "read":
			if len(fields) > 1 {
				if !client.MarkAsRead(fields[1]) {
					fmt.Fprintf(out, "no notification %s\n", fields[1])
				}
				continue
			}
			client.MarkAllAsRead()
		default:
			fmt.Fprintln(out, "commands: list, read [id]")
		}
	}
}
