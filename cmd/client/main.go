package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Server   string `long:"server" description:"Server WebSocket URL" default:"ws://localhost:8080/ws"`
	Verbose  bool   `short:"v" long:"verbose" description:"Log every notification"`
	LogLevel string `long:"log-level" description:"Log level (debug, info, warn, error)" default:"info"`
}

var opts Options

type ParticipationCommand struct{}

func (cmd *ParticipationCommand) Execute(args []string) error {
	return withClient(func(ctx context.Context, c *Client) error {
		resp, err := c.Participation(ctx)
		if err != nil {
			return fmt.Errorf("participation failed: %w", err)
		}
		return printJSON(resp)
	})
}

type PinCommand struct {
	ChannelID string `long:"channel-id" description:"Channel ID" required:"true"`
	Unpin     bool   `long:"unpin" description:"Remove the pin instead"`
}

func (cmd *PinCommand) Execute(args []string) error {
	return withClient(func(ctx context.Context, c *Client) error {
		if err := c.Pin(ctx, cmd.ChannelID, !cmd.Unpin); err != nil {
			return fmt.Errorf("pin failed: %w", err)
		}
		fmt.Println("Pin updated successfully")
		return nil
	})
}

type SpeakersCommand struct {
	Count int `long:"count" description:"Number of active speakers" required:"true"`
}

func (cmd *SpeakersCommand) Execute(args []string) error {
	return withClient(func(ctx context.Context, c *Client) error {
		if err := c.SetActiveSpeakers(ctx, cmd.Count); err != nil {
			return fmt.Errorf("set active speakers failed: %w", err)
		}
		fmt.Println("Active speakers updated successfully")
		return nil
	})
}

type ThresholdCommand struct {
	Threshold float64 `long:"threshold" description:"Voice level threshold in [0, 1]" required:"true"`
}

func (cmd *ThresholdCommand) Execute(args []string) error {
	return withClient(func(ctx context.Context, c *Client) error {
		if err := c.SetThreshold(ctx, cmd.Threshold); err != nil {
			return fmt.Errorf("set threshold failed: %w", err)
		}
		fmt.Println("Threshold updated successfully")
		return nil
	})
}

func withClient(fn func(ctx context.Context, c *Client) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := Dial(ctx, opts.Server, opts.Verbose)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

func printJSON(v any) error {
	respJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling response: %w", err)
	}
	fmt.Printf("Response: %s\n", respJSON)
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// setupLogger はオプションの解析後、コマンドの実行前に呼ばれます。
func setupLogger(command flags.Commander, args []string) error {
	level, err := parseLogLevel(opts.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if command == nil {
		return nil
	}
	return command.Execute(args)
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = setupLogger
	parser.AddCommand("simulate", "Simulate talking participants", "", &SimulateCommand{})
	parser.AddCommand("participation", "Show accumulated speaking time", "", &ParticipationCommand{})
	parser.AddCommand("pin", "Pin or unpin a channel", "", &PinCommand{})
	parser.AddCommand("speakers", "Change the number of active speakers", "", &SpeakersCommand{})
	parser.AddCommand("threshold", "Change the voice level threshold", "", &ThresholdCommand{})

	_, err := parser.Parse()
	if err != nil {
		log.Fatal(err)
	}
}
