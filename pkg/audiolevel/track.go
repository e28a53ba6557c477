package audiolevel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

const (
	opusPayloadType = 111
	// UDP の上限
	maxRTPPacketSize = 65535
)

var ErrTrackClosed = errors.New("audio track closed")

// RTPReader は *webrtc.TrackRemote が満たします。
type RTPReader interface {
	Read(b []byte) (int, interceptor.Attributes, error)
}

type TrackStats struct {
	PacketsReceived uint64
	BytesReceived   uint64
	PacketsDropped  uint64
}

// Track は受信トラックから RTP パケットを読み続け、Extractor に渡します。
type Track struct {
	id        string
	reader    RTPReader
	extractor *Extractor

	mu     sync.RWMutex
	stats  TrackStats
	closed bool
}

func NewTrack(id string, reader RTPReader, extractor *Extractor) *Track {
	return &Track{
		id:        id,
		reader:    reader,
		extractor: extractor,
	}
}

func (t *Track) ID() string {
	return t.id
}

// Run は reader が io.EOF を返すか ctx が終了するまでパケットを処理します。
// 壊れたパケットは捨てて読み続けます。
func (t *Track) Run(ctx context.Context) error {
	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTrackClosed
	}

	buffer := make([]byte, maxRTPPacketSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, _, err := t.reader.Read(buffer)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read remote track data: %w", err)
		}

		if _, err := t.extractor.Write(buffer[:n]); err != nil {
			slog.Debug("dropped rtp packet", "track_id", t.id, "error", err)
			t.count(n, true)
			continue
		}

		t.count(n, false)

		t.mu.RLock()
		closed := t.closed
		t.mu.RUnlock()
		if closed {
			return nil
		}
	}
}

func (t *Track) count(n int, dropped bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.PacketsReceived++
	t.stats.BytesReceived += uint64(n)
	if dropped {
		t.stats.PacketsDropped++
	}
}

func (t *Track) Stats() TrackStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats
}

// Close は Run を次のパケットの処理後に止めます。
func (t *Track) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	return nil
}

func OpusCodec() webrtc.RTPCodecCapability {
	return webrtc.RTPCodecCapability{
		MimeType:    webrtc.MimeTypeOpus,
		ClockRate:   48000,
		Channels:    2,
		SDPFmtpLine: "minptime=10;useinbandfec=1",
	}
}

// NewMediaEngine は Opus と音声レベル拡張ヘッダーを登録した MediaEngine を作ります。
func NewMediaEngine() (*webrtc.MediaEngine, error) {
	m := &webrtc.MediaEngine{}

	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: OpusCodec(),
		PayloadType:        opusPayloadType,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, fmt.Errorf("failed to register Opus codec: %w", err)
	}

	if err := m.RegisterHeaderExtension(webrtc.RTPHeaderExtensionCapability{URI: sdp.AudioLevelURI}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, fmt.Errorf("failed to register audio level extension: %w", err)
	}

	return m, nil
}
