package handler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	mock_handler "github.com/HMasataka/spotlight/internal/handler/mock"
	payload "github.com/HMasataka/spotlight/payload/speaker"
	"github.com/HMasataka/spotlight/pkg/speaker"
	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type notification struct {
	method string
	params []byte
}

// newTestConn は h をサーバー側に持つ接続を作り、クライアント側の接続を返します。
// クライアントが受け取った通知は notifications に流れます。
func newTestConn(t *testing.T, h jsonrpc2.Handler) (client, server *jsonrpc2.Conn, notifications chan notification) {
	t.Helper()

	serverSide, clientSide := net.Pipe()
	ctx := context.Background()
	notifications = make(chan notification, 64)

	server = jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}), h)
	client = jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
			n := notification{method: req.Method}
			if req.Params != nil {
				n.params = []byte(*req.Params)
			}
			notifications <- n
			return nil, nil
		}))

	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})

	return client, server, notifications
}

func requireRPCError(t *testing.T, err error, code int64) {
	t.Helper()

	var rpcErr *jsonrpc2.Error
	require.True(t, errors.As(err, &rpcErr), "error %v is not a jsonrpc2 error", err)
	assert.Equal(t, code, rpcErr.Code)
}

func TestHandler_Join(t *testing.T) {
	t.Run("指定したIDで参加", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)
		engine.EXPECT().AddChannel("alice", speaker.KindRemote, false)

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.JoinResponse
		err := client.Call(context.Background(), payload.MethodJoin, payload.JoinRequest{ChannelID: "alice"}, &resp)

		require.NoError(t, err)
		assert.Equal(t, "alice", resp.ChannelID)
	})

	t.Run("IDを省略するとサーバーが採番", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)
		engine.EXPECT().AddChannel(gomock.Any(), speaker.KindSelf, true)

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.JoinResponse
		err := client.Call(context.Background(), payload.MethodJoin, payload.JoinRequest{Kind: "self", Pinned: true}, &resp)

		require.NoError(t, err)
		_, err = uuid.Parse(resp.ChannelID)
		assert.NoError(t, err)
	})

	t.Run("不明なkind", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.JoinResponse
		err := client.Call(context.Background(), payload.MethodJoin, payload.JoinRequest{ChannelID: "alice", Kind: "robot"}, &resp)

		requireRPCError(t, err, jsonrpc2.CodeInvalidParams)
	})

	t.Run("パラメータの型が不正", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.JoinResponse
		err := client.Call(context.Background(), payload.MethodJoin, "alice", &resp)

		requireRPCError(t, err, jsonrpc2.CodeInvalidParams)
	})
}

func TestHandler_Leave(t *testing.T) {
	t.Run("退出", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)
		engine.EXPECT().RemoveChannel("alice").Return(nil)

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.LeaveResponse
		err := client.Call(context.Background(), payload.MethodLeave, payload.LeaveRequest{ChannelID: "alice"}, &resp)

		assert.NoError(t, err)
	})

	t.Run("存在しないチャネル", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)
		engine.EXPECT().RemoveChannel("ghost").Return(fmt.Errorf("remove channel %q: %w", "ghost", speaker.ErrUnknownChannel))

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.LeaveResponse
		err := client.Call(context.Background(), payload.MethodLeave, payload.LeaveRequest{ChannelID: "ghost"}, &resp)

		requireRPCError(t, err, jsonrpc2.CodeInvalidRequest)
	})
}

func TestHandler_AudioLevel(t *testing.T) {
	t.Run("不正なサンプル", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)
		engine.EXPECT().PushAudioLevel("alice", -1.0).Return(speaker.ErrInvalidSample)

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.AudioLevelResponse
		err := client.Call(context.Background(), payload.MethodAudioLevel, payload.AudioLevelRequest{ChannelID: "alice", Level: -1}, &resp)

		requireRPCError(t, err, jsonrpc2.CodeInvalidParams)
	})

	t.Run("通知でも受け付ける", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)

		pushed := make(chan struct{})
		engine.EXPECT().PushAudioLevel("alice", 0.5).DoAndReturn(func(string, float64) error {
			close(pushed)
			return nil
		})

		client, _, _ := newTestConn(t, NewHandler(engine))

		err := client.Notify(context.Background(), payload.MethodAudioLevel, payload.AudioLevelRequest{ChannelID: "alice", Level: 0.5})
		require.NoError(t, err)

		select {
		case <-pushed:
		case <-time.After(time.Second):
			t.Fatal("audio level was not pushed")
		}
	})
}

func TestHandler_Settings(t *testing.T) {
	t.Run("ピン留め", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)
		engine.EXPECT().SetPinned("alice", true).Return(nil)

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.PinResponse
		err := client.Call(context.Background(), payload.MethodPin, payload.PinRequest{ChannelID: "alice", Pinned: true}, &resp)

		assert.NoError(t, err)
	})

	t.Run("表示数が不正", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)
		engine.EXPECT().SetNumberOfActiveSpeakers(0).Return(fmt.Errorf("%w: number_of_active_speakers must be >= 1", speaker.ErrInvalidConfig))

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.ActiveSpeakersResponse
		err := client.Call(context.Background(), payload.MethodSetActiveSpeakers, payload.ActiveSpeakersRequest{Count: 0}, &resp)

		requireRPCError(t, err, jsonrpc2.CodeInvalidParams)
	})

	t.Run("閾値の変更", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)
		engine.EXPECT().SetVoiceLevelThreshold(0.3).Return(nil)

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.ThresholdResponse
		err := client.Call(context.Background(), payload.MethodSetThreshold, payload.ThresholdRequest{Threshold: 0.3}, &resp)

		assert.NoError(t, err)
	})

	t.Run("想定外のエラーは内部エラー", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)
		engine.EXPECT().SetVoiceLevelThreshold(0.3).Return(errors.New("boom"))

		client, _, _ := newTestConn(t, NewHandler(engine))

		var resp payload.ThresholdResponse
		err := client.Call(context.Background(), payload.MethodSetThreshold, payload.ThresholdRequest{Threshold: 0.3}, &resp)

		requireRPCError(t, err, jsonrpc2.CodeInternalError)
	})
}

func TestHandler_Participation(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock_handler.NewMockEngine(ctrl)
	engine.EXPECT().Participations().Return(map[string]time.Duration{
		"alice": 1500 * time.Millisecond,
		"bob":   250 * time.Millisecond,
	})

	client, _, _ := newTestConn(t, NewHandler(engine))

	var resp payload.ParticipationResponse
	err := client.Call(context.Background(), payload.MethodParticipation, payload.ParticipationRequest{}, &resp)

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"alice": 1500, "bob": 250}, resp.ParticipationsMs)
}

func TestHandler_UnknownMethod(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock_handler.NewMockEngine(ctrl)

	client, _, _ := newTestConn(t, NewHandler(engine))

	err := client.Call(context.Background(), "offer", struct{}{}, nil)

	requireRPCError(t, err, jsonrpc2.CodeMethodNotFound)
}

func TestHandler_Recorder(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock_handler.NewMockEngine(ctrl)
	engine.EXPECT().SetPinned("ghost", true).Return(speaker.ErrUnknownChannel)

	recorded := make(chan struct{})
	recorder := mock_handler.NewMockRecorder(ctrl)
	recorder.EXPECT().RecordRPC(gomock.Any(), payload.MethodPin, gomock.Not(gomock.Nil())).Do(func(context.Context, string, error) {
		close(recorded)
	})

	client, _, _ := newTestConn(t, NewHandler(engine, WithRecorder(recorder)))

	err := client.Call(context.Background(), payload.MethodPin, payload.PinRequest{ChannelID: "ghost", Pinned: true}, nil)
	requireRPCError(t, err, jsonrpc2.CodeInvalidRequest)

	select {
	case <-recorded:
	case <-time.After(time.Second):
		t.Fatal("rpc was not recorded")
	}
}

func TestHandler_Close(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mock_handler.NewMockEngine(ctrl)

	gomock.InOrder(
		engine.EXPECT().AddChannel("alice", speaker.KindRemote, false),
		engine.EXPECT().AddChannel("bob", speaker.KindRemote, false),
		engine.EXPECT().RemoveChannel("bob").Return(nil),
		engine.EXPECT().RemoveChannel("alice").Return(nil),
	)

	h := NewHandler(engine)
	client, _, _ := newTestConn(t, h)
	ctx := context.Background()

	require.NoError(t, client.Call(ctx, payload.MethodJoin, payload.JoinRequest{ChannelID: "alice"}, nil))
	require.NoError(t, client.Call(ctx, payload.MethodJoin, payload.JoinRequest{ChannelID: "bob"}, nil))
	require.NoError(t, client.Call(ctx, payload.MethodLeave, payload.LeaveRequest{ChannelID: "bob"}, nil))

	h.Close()
	// 2回目は何もしない
	h.Close()
}

func TestHandler_SharedChannel(t *testing.T) {
	t.Run("他の接続が参加中なら切断してもチャネルは残る", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)

		engine.EXPECT().AddChannel("alice", speaker.KindRemote, false).Times(2)

		registry := NewRegistry()
		h1 := NewHandler(engine, WithRegistry(registry))
		h2 := NewHandler(engine, WithRegistry(registry))
		client1, _, _ := newTestConn(t, h1)
		client2, _, _ := newTestConn(t, h2)
		ctx := context.Background()

		require.NoError(t, client1.Call(ctx, payload.MethodJoin, payload.JoinRequest{ChannelID: "alice"}, nil))
		require.NoError(t, client2.Call(ctx, payload.MethodJoin, payload.JoinRequest{ChannelID: "alice"}, nil))
		assert.Equal(t, 2, registry.Refs("alice"))

		h1.Close()
		assert.Equal(t, 1, registry.Refs("alice"))

		engine.EXPECT().RemoveChannel("alice").Return(nil)
		h2.Close()
		assert.Zero(t, registry.Refs("alice"))
	})

	t.Run("他の接続が参加中なら退出してもチャネルは残る", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)

		engine.EXPECT().AddChannel("alice", speaker.KindRemote, false).Times(2)

		registry := NewRegistry()
		h1 := NewHandler(engine, WithRegistry(registry))
		h2 := NewHandler(engine, WithRegistry(registry))
		client1, _, _ := newTestConn(t, h1)
		client2, _, _ := newTestConn(t, h2)
		ctx := context.Background()

		require.NoError(t, client1.Call(ctx, payload.MethodJoin, payload.JoinRequest{ChannelID: "alice"}, nil))
		require.NoError(t, client2.Call(ctx, payload.MethodJoin, payload.JoinRequest{ChannelID: "alice"}, nil))

		require.NoError(t, client1.Call(ctx, payload.MethodLeave, payload.LeaveRequest{ChannelID: "alice"}, nil))
		assert.Equal(t, 1, registry.Refs("alice"))

		engine.EXPECT().RemoveChannel("alice").Return(nil)
		require.NoError(t, client2.Call(ctx, payload.MethodLeave, payload.LeaveRequest{ChannelID: "alice"}, nil))
		assert.Zero(t, registry.Refs("alice"))
	})

	t.Run("同じ接続で再参加しても参照は1つ", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		engine := mock_handler.NewMockEngine(ctrl)

		gomock.InOrder(
			engine.EXPECT().AddChannel("alice", speaker.KindRemote, false),
			engine.EXPECT().AddChannel("alice", speaker.KindRemote, true),
			engine.EXPECT().RemoveChannel("alice").Return(nil),
		)

		registry := NewRegistry()
		h := NewHandler(engine, WithRegistry(registry))
		client, _, _ := newTestConn(t, h)
		ctx := context.Background()

		require.NoError(t, client.Call(ctx, payload.MethodJoin, payload.JoinRequest{ChannelID: "alice"}, nil))
		require.NoError(t, client.Call(ctx, payload.MethodJoin, payload.JoinRequest{ChannelID: "alice", Pinned: true}, nil))
		assert.Equal(t, 1, registry.Refs("alice"))

		h.Close()
		assert.Zero(t, registry.Refs("alice"))
	})
}
