package handler

import (
	"context"

	payload "github.com/HMasataka/spotlight/payload/speaker"
	"github.com/sourcegraph/jsonrpc2"
)

// AudioLevel は音声レベルを受け付けます。頻度が高いため通知(ID なし)でも送れます。
func (h *Handler) AudioLevel(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) error {
	var args payload.AudioLevelRequest
	if err := decodeParams(request, &args); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	if err := h.engine.PushAudioLevel(args.ChannelID, args.Level); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	reply(ctx, conn, request, payload.AudioLevelResponse{})
	return nil
}

func (h *Handler) Pin(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) error {
	var args payload.PinRequest
	if err := decodeParams(request, &args); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	if err := h.engine.SetPinned(args.ChannelID, args.Pinned); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	reply(ctx, conn, request, payload.PinResponse{})
	return nil
}
