package handler

import (
	"context"
	"log/slog"

	"github.com/HMasataka/logging"
	payload "github.com/HMasataka/spotlight/payload/speaker"
	"github.com/HMasataka/spotlight/pkg/speaker"
	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"
)

func (h *Handler) Join(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) error {
	var args payload.JoinRequest
	if err := decodeParams(request, &args); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	kind, err := speaker.ParseKind(args.Kind)
	if err != nil {
		err := &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		replyError(ctx, conn, request, err)
		return err
	}

	if args.ChannelID == "" {
		args.ChannelID = uuid.NewString()
	}

	h.registry.join(args.ChannelID, h.track(args.ChannelID), func() {
		h.engine.AddChannel(args.ChannelID, kind, args.Pinned)
	})

	reply(ctx, conn, request, payload.JoinResponse{ChannelID: args.ChannelID})

	if logging.HasLoggingContext(ctx) {
		slog.InfoContext(ctx, "channel joined", slog.String("channel_id", args.ChannelID), slog.String("kind", kind.String()))
	}

	return nil
}

func (h *Handler) Leave(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) error {
	var args payload.LeaveRequest
	if err := decodeParams(request, &args); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	var err error
	if h.untrack(args.ChannelID) {
		_, err = h.registry.leave(args.ChannelID, func() error {
			return h.engine.RemoveChannel(args.ChannelID)
		})
	} else {
		err = h.engine.RemoveChannel(args.ChannelID)
	}
	if err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	reply(ctx, conn, request, payload.LeaveResponse{})

	if logging.HasLoggingContext(ctx) {
		slog.InfoContext(ctx, "channel left", slog.String("channel_id", args.ChannelID))
	}

	return nil
}
