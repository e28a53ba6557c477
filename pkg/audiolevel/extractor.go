// Package audiolevel は RTP パケットの音声レベル拡張ヘッダー(RFC 6464)を読み取り、
// アクティブスピーカー判定に使える線形の音声エネルギーに変換します。
package audiolevel

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

// MaxDBov は RFC 6464 で表現できる最小の音量(-127 dBov)の絶対値です。
const MaxDBov = 127

var ErrNotNegotiated = errors.New("audio level extension not negotiated")

// Sink は変換後の音声レベルの送り先です。*speaker.Engine が満たします。
type Sink interface {
	PushAudioLevel(channelID string, level float64) error
}

// Extractor は1つの音声トラックから音声レベルを取り出します。
type Extractor struct {
	mu      sync.RWMutex
	extID   uint8
	onLevel func(level float64, voice bool)
}

// NewExtractor は SDP で合意されたヘッダー拡張から音声レベル拡張の ID を探します。
// 見つからない場合は ErrNotNegotiated を返します。
func NewExtractor(params webrtc.RTPParameters) (*Extractor, error) {
	for _, h := range params.HeaderExtensions {
		if h.URI == sdp.AudioLevelURI {
			return &Extractor{extID: uint8(h.ID)}, nil
		}
	}

	return nil, ErrNotNegotiated
}

// OnLevel は音声レベルを受け取るコールバックを登録します。
func (e *Extractor) OnLevel(fn func(level float64, voice bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onLevel = fn
}

// Bind は音声レベルを sink の channelID に流し込みます。
func (e *Extractor) Bind(sink Sink, channelID string) {
	e.OnLevel(func(level float64, _ bool) {
		if err := sink.PushAudioLevel(channelID, level); err != nil {
			slog.Debug("failed to push audio level", "channel_id", channelID, "error", err)
		}
	})
}

// Write は RTP パケットを1つ処理します。拡張ヘッダーを持たないパケットは無視します。
func (e *Extractor) Write(pkt []byte) (int, error) {
	var packet rtp.Packet
	if err := packet.Unmarshal(pkt); err != nil {
		return 0, fmt.Errorf("audiolevel: unmarshal rtp: %w", err)
	}

	if err := e.WritePacket(&packet); err != nil {
		return 0, err
	}

	return len(pkt), nil
}

// WritePacket はパース済みの RTP パケットを処理します。
func (e *Extractor) WritePacket(packet *rtp.Packet) error {
	raw := packet.GetExtension(e.extID)
	if raw == nil {
		return nil
	}

	var ext rtp.AudioLevelExtension
	if err := ext.Unmarshal(raw); err != nil {
		return fmt.Errorf("audiolevel: unmarshal extension: %w", err)
	}

	e.mu.RLock()
	fn := e.onLevel
	e.mu.RUnlock()

	if fn != nil {
		fn(DBovToLinear(ext.Level), ext.Voice)
	}

	return nil
}

// DBovToLinear は -dBov を [0, 1] の線形振幅に変換します。127 は無音として 0 を返します。
func DBovToLinear(dBov uint8) float64 {
	if dBov >= MaxDBov {
		return 0
	}

	return math.Pow(10, -float64(dBov)/20)
}
