package main

import (
	"context"
	"fmt"
	"log/slog"

	payload "github.com/HMasataka/spotlight/payload/speaker"
	"github.com/HMasataka/spotlight/pkg/retry"
	"github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	wsjsonrpc2 "github.com/sourcegraph/jsonrpc2/websocket"
)

// Client はサーバーとの JSON-RPC 接続を保持します。
type Client struct {
	conn *jsonrpc2.Conn
}

// Dial はサーバーに接続します。接続に失敗した場合はバックオフしながら再試行します。
func Dial(ctx context.Context, url string, verbose bool) (*Client, error) {
	var wsConn *websocket.Conn

	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			slog.Warn("failed to dial server", "url", url, "attempt", attempt, "error", err)
			return err
		}
		wsConn = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	conn := jsonrpc2.NewConn(ctx, wsjsonrpc2.NewObjectStream(wsConn), jsonrpc2.HandlerWithError(notificationLogger(verbose)))

	return &Client{conn: conn}, nil
}

func notificationLogger(verbose bool) func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (any, error) {
	return func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		if !req.Notif {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: req.Method}
		}

		var params string
		if req.Params != nil {
			params = string(*req.Params)
		}

		switch req.Method {
		case payload.NotifyActiveSpeakers, payload.NotifyMostActiveSpeaker:
			slog.Info("notification", "method", req.Method, "params", params)
		default:
			if verbose {
				slog.Info("notification", "method", req.Method, "params", params)
			}
		}

		return nil, nil
	}
}

func (c *Client) Join(ctx context.Context, channelID string) (string, error) {
	var resp payload.JoinResponse
	if err := c.conn.Call(ctx, payload.MethodJoin, payload.JoinRequest{ChannelID: channelID}, &resp); err != nil {
		return "", err
	}
	return resp.ChannelID, nil
}

func (c *Client) Leave(ctx context.Context, channelID string) error {
	return c.conn.Call(ctx, payload.MethodLeave, payload.LeaveRequest{ChannelID: channelID}, nil)
}

func (c *Client) Pin(ctx context.Context, channelID string, pinned bool) error {
	return c.conn.Call(ctx, payload.MethodPin, payload.PinRequest{ChannelID: channelID, Pinned: pinned}, nil)
}

func (c *Client) SetActiveSpeakers(ctx context.Context, count int) error {
	return c.conn.Call(ctx, payload.MethodSetActiveSpeakers, payload.ActiveSpeakersRequest{Count: count}, nil)
}

func (c *Client) SetThreshold(ctx context.Context, threshold float64) error {
	return c.conn.Call(ctx, payload.MethodSetThreshold, payload.ThresholdRequest{Threshold: threshold}, nil)
}

func (c *Client) Participation(ctx context.Context) (*payload.ParticipationResponse, error) {
	var resp payload.ParticipationResponse
	if err := c.conn.Call(ctx, payload.MethodParticipation, payload.ParticipationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sink は音声レベルを audioLevel 通知としてサーバーへ送ります。
func (c *Client) Sink(ctx context.Context) *RPCSink {
	return &RPCSink{ctx: ctx, conn: c.conn}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// RPCSink は audiolevel.Sink を満たします。
type RPCSink struct {
	ctx  context.Context
	conn *jsonrpc2.Conn
}

func (s *RPCSink) PushAudioLevel(channelID string, level float64) error {
	return s.conn.Notify(s.ctx, payload.MethodAudioLevel, payload.AudioLevelRequest{ChannelID: channelID, Level: level})
}
