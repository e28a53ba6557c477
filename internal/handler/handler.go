//go:generate mockgen -source handler.go -destination mock/handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	payload "github.com/HMasataka/spotlight/payload/speaker"
	"github.com/HMasataka/spotlight/pkg/speaker"
	"github.com/sourcegraph/jsonrpc2"
)

// Engine は Handler から使う speaker.Engine の操作です。
type Engine interface {
	AddChannel(id string, kind speaker.Kind, pinned bool)
	RemoveChannel(id string) error
	PushAudioLevel(id string, level float64) error
	SetPinned(id string, pinned bool) error
	SetNumberOfActiveSpeakers(n int) error
	SetVoiceLevelThreshold(threshold float64) error
	Participations() map[string]time.Duration
}

// Recorder は RPC のメトリクスの記録先です。
type Recorder interface {
	RecordRPC(ctx context.Context, method string, err error)
}

type Option func(*Handler)

func WithRecorder(r Recorder) Option {
	return func(h *Handler) {
		h.recorder = r
	}
}

// WithRegistry は接続間で共有する Registry を指定します。指定しない場合は接続ごとに持ちます。
func WithRegistry(r *Registry) Option {
	return func(h *Handler) {
		h.registry = r
	}
}

func NewHandler(engine Engine, opts ...Option) *Handler {
	h := &Handler{
		engine:   engine,
		channels: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.registry == nil {
		h.registry = NewRegistry()
	}

	return h
}

// Handler は1つの接続の JSON-RPC リクエストを処理します。
// 接続が join したチャネルを覚えておき、Close で参照を外します。
// 他の接続も同じチャネルを join している場合、チャネルは残ります。
type Handler struct {
	engine   Engine
	recorder Recorder
	registry *Registry

	mu       sync.Mutex
	channels map[string]struct{}
}

func (h *Handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) {
	var err error

	switch request.Method {
	case payload.MethodJoin:
		err = h.Join(ctx, conn, request)
	case payload.MethodLeave:
		err = h.Leave(ctx, conn, request)
	case payload.MethodAudioLevel:
		err = h.AudioLevel(ctx, conn, request)
	case payload.MethodPin:
		err = h.Pin(ctx, conn, request)
	case payload.MethodSetActiveSpeakers:
		err = h.SetActiveSpeakers(ctx, conn, request)
	case payload.MethodSetThreshold:
		err = h.SetThreshold(ctx, conn, request)
	case payload.MethodParticipation:
		err = h.Participation(ctx, conn, request)
	default:
		slog.Warn("unknown method", "method", request.Method)
		err = &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found: " + request.Method}
		replyError(ctx, conn, request, err)
	}

	if h.recorder != nil {
		h.recorder.RecordRPC(ctx, request.Method, err)
	}
}

// Close は接続が join した全てのチャネルの参照を外し、最後の参照だったものを削除します。
func (h *Handler) Close() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.channels))
	for id := range h.channels {
		ids = append(ids, id)
	}
	clear(h.channels)
	h.mu.Unlock()

	for _, id := range ids {
		_, err := h.registry.leave(id, func() error {
			return h.engine.RemoveChannel(id)
		})
		if err != nil && !errors.Is(err, speaker.ErrUnknownChannel) {
			slog.Error("failed to remove channel on close", "channel_id", id, "error", err)
		}
	}
}

// track は id を記録し、この接続で初めて join した場合に true を返します。
func (h *Handler) track(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[id]; ok {
		return false
	}
	h.channels[id] = struct{}{}
	return true
}

// untrack は id の記録を消し、記録があった場合に true を返します。
func (h *Handler) untrack(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[id]; !ok {
		return false
	}
	delete(h.channels, id)
	return true
}

var errMissingParams = errors.New("missing params")

func decodeParams(request *jsonrpc2.Request, v any) error {
	if request.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: errMissingParams.Error()}
	}

	if err := json.Unmarshal(*request.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "Invalid params"}
	}

	return nil
}

// toRPCError は engine のエラーを JSON-RPC のエラーコードに対応付けます。
func toRPCError(err error) *jsonrpc2.Error {
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch {
	case errors.Is(err, speaker.ErrUnknownChannel):
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: err.Error()}
	case errors.Is(err, speaker.ErrInvalidSample), errors.Is(err, speaker.ErrInvalidConfig):
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	default:
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	}
}

// reply は通知(ID なし)の場合は何も返しません。
func reply(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request, result any) {
	if request.Notif {
		return
	}

	if err := conn.Reply(ctx, request.ID, result); err != nil {
		slog.Error("failed to send reply", "method", request.Method, "error", err)
	}
}

func replyError(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request, err error) {
	if request.Notif {
		slog.Debug("notification failed", "method", request.Method, "error", err)
		return
	}

	if replyErr := conn.ReplyWithError(ctx, request.ID, toRPCError(err)); replyErr != nil {
		slog.Error("failed to send error reply", "method", request.Method, "error", replyErr)
	}
}
