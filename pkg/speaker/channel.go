package speaker

import (
	"fmt"
	"time"
)

// Kind はチャネルが自分自身(ローカルのPublisher)かリモート参加者かを表します。
type Kind int

const (
	KindRemote Kind = iota
	KindSelf
)

func (k Kind) String() string {
	switch k {
	case KindSelf:
		return "self"
	case KindRemote:
		return "remote"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind は "self" / "remote" を Kind に変換します。空文字は remote として扱います。
func ParseKind(s string) (Kind, error) {
	switch s {
	case "self", "publisher":
		return KindSelf, nil
	case "", "remote", "subscriber":
		return KindRemote, nil
	default:
		return KindRemote, fmt.Errorf("unknown channel kind %q", s)
	}
}

// Channel は1参加者の音声チャネルの状態です。
// Engine が排他的に所有し、外部には Engine.Channel でコピーのみを返します。
type Channel struct {
	ID       string
	Kind     Kind
	Level    float64 // 平滑化済みの音声レベル
	RawLevel float64 // 最後に受け取った生の音声レベル
	InSpeech bool
	// SpeechStart は現在の発話区間の開始時刻。発話中でなければゼロ値
	SpeechStart time.Time
	Pinned      bool

	hasLevel        bool
	speechStartTest time.Time
	speechEndTest   time.Time

	unsubscribeTimer Timer
	unsubscribeGen   uint64

	seq uint64
}

func newChannel(id string, kind Kind, pinned bool, seq uint64) *Channel {
	return &Channel{
		ID:     id,
		Kind:   kind,
		Pinned: pinned,
		seq:    seq,
	}
}

func (c *Channel) IsSelf() bool {
	return c.Kind == KindSelf
}

// observe は生の音声レベルを1サンプル取り込み、移動平均と発話状態を更新します。
func (c *Channel) observe(raw float64, now time.Time, cfg Config) {
	c.RawLevel = raw
	c.Level = MovingAverage(c.Level, c.hasLevel, raw, cfg.AudioLevelPreviousWeight, cfg.AudioLevelCurrentWeight)
	c.hasLevel = true

	c.track(IsVoice(c.Level, cfg.VoiceLevelThreshold), now, cfg)
}

func (c *Channel) cancelUnsubscribe() {
	if c.unsubscribeTimer == nil {
		return
	}

	c.unsubscribeTimer.Stop()
	c.unsubscribeTimer = nil
	c.unsubscribeGen++
}

func (c *Channel) snapshot() Channel {
	cp := *c
	cp.unsubscribeTimer = nil
	return cp
}
