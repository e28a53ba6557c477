package handler

import (
	"context"
	"log/slog"

	payload "github.com/HMasataka/spotlight/payload/speaker"
	"github.com/sourcegraph/jsonrpc2"
)

func (h *Handler) SetActiveSpeakers(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) error {
	var args payload.ActiveSpeakersRequest
	if err := decodeParams(request, &args); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	if err := h.engine.SetNumberOfActiveSpeakers(args.Count); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	slog.Info("number of active speakers changed", "count", args.Count)
	reply(ctx, conn, request, payload.ActiveSpeakersResponse{})
	return nil
}

func (h *Handler) SetThreshold(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) error {
	var args payload.ThresholdRequest
	if err := decodeParams(request, &args); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	if err := h.engine.SetVoiceLevelThreshold(args.Threshold); err != nil {
		replyError(ctx, conn, request, err)
		return err
	}

	slog.Info("voice level threshold changed", "threshold", args.Threshold)
	reply(ctx, conn, request, payload.ThresholdResponse{})
	return nil
}

func (h *Handler) Participation(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) error {
	reply(ctx, conn, request, payload.ParticipationResponse{
		ParticipationsMs: toMillis(h.engine.Participations()),
	})
	return nil
}
