package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"github.com/HMasataka/spotlight/pkg/audiolevel"
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
	"golang.org/x/sync/errgroup"
)

const (
	audioLevelExtID = 1
	opusPayloadType = 111
	// 20ms の Opus フレーム
	samplesPerPacket = 960

	speakingDBov = 6
	silentDBov   = audiolevel.MaxDBov
)

type SimulateCommand struct {
	Participants int           `long:"participants" description:"Number of simulated participants" default:"3"`
	Duration     time.Duration `long:"duration" description:"Simulation length" default:"30s"`
	Interval     time.Duration `long:"interval" description:"Packet interval" default:"20ms"`
	TalkPeriod   time.Duration `long:"talk-period" description:"How long each participant talks in turn" default:"3s"`
}

func (cmd *SimulateCommand) Execute(args []string) error {
	if cmd.Participants < 1 {
		return fmt.Errorf("participants must be >= 1: %d", cmd.Participants)
	}
	if cmd.Interval <= 0 || cmd.TalkPeriod <= 0 {
		return fmt.Errorf("interval and talk-period must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration)
	defer cancel()

	c, err := Dial(ctx, opts.Server, opts.Verbose)
	if err != nil {
		return err
	}
	defer c.Close()

	params := webrtc.RTPParameters{
		HeaderExtensions: []webrtc.RTPHeaderExtensionParameter{
			{URI: sdp.AudioLevelURI, ID: audioLevelExtID},
		},
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	participants := make([]*participant, 0, cmd.Participants)
	for i := range cmd.Participants {
		id, err := c.Join(ctx, fmt.Sprintf("sim-%d", i))
		if err != nil {
			return fmt.Errorf("join failed: %w", err)
		}

		extractor, err := audiolevel.NewExtractor(params)
		if err != nil {
			return err
		}
		extractor.Bind(c.Sink(ctx), id)

		p := &participant{
			ctx:        gctx,
			index:      i,
			total:      cmd.Participants,
			start:      start,
			talkPeriod: cmd.TalkPeriod,
			channelID:  id,
			ssrc:       rand.Uint32(),
			ticker:     time.NewTicker(cmd.Interval),
		}
		defer p.ticker.Stop()
		participants = append(participants, p)

		track := audiolevel.NewTrack(id, p, extractor)
		g.Go(func() error {
			return track.Run(gctx)
		})
	}

	slog.Info("simulation started", "participants", len(participants), "duration", cmd.Duration)

	err = g.Wait()

	leaveCtx, leaveCancel := context.WithTimeout(context.Background(), time.Second)
	defer leaveCancel()

	if resp, perr := c.Participation(leaveCtx); perr == nil {
		_ = printJSON(resp)
	}
	for _, p := range participants {
		if lerr := c.Leave(leaveCtx, p.channelID); lerr != nil {
			slog.Warn("failed to leave", "channel_id", p.channelID, "error", lerr)
		}
	}

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// participant は RTPReader として振る舞い、順番が回ってきた間だけ発話レベルのパケットを返します。
type participant struct {
	ctx        context.Context
	index      int
	total      int
	start      time.Time
	talkPeriod time.Duration
	channelID  string
	ssrc       uint32
	seq        uint16
	timestamp  uint32
	ticker     *time.Ticker
}

func (p *participant) Read(b []byte) (int, interceptor.Attributes, error) {
	var now time.Time
	select {
	case <-p.ctx.Done():
		return 0, nil, io.EOF
	case now = <-p.ticker.C:
	}

	turn := int(now.Sub(p.start)/p.talkPeriod) % p.total

	level := uint8(silentDBov)
	if turn == p.index {
		level = uint8(speakingDBov + rand.IntN(4))
	}

	raw, err := p.packet(level)
	if err != nil {
		return 0, nil, err
	}

	return copy(b, raw), nil, nil
}

func (p *participant) packet(level uint8) ([]byte, error) {
	ext, err := rtp.AudioLevelExtension{Level: level, Voice: level < silentDBov}.Marshal()
	if err != nil {
		return nil, err
	}

	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    opusPayloadType,
			SequenceNumber: p.seq,
			Timestamp:      p.timestamp,
			SSRC:           p.ssrc,
		},
		Payload: []byte{0xf8, 0xff, 0xfe},
	}
	if err := packet.SetExtension(audioLevelExtID, ext); err != nil {
		return nil, err
	}

	p.seq++
	p.timestamp += samplesPerPacket

	return packet.Marshal()
}
