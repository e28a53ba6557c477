package speaker

import "github.com/HMasataka/spotlight/pkg/speaker"

const (
	MethodJoin              = "join"
	MethodLeave             = "leave"
	MethodAudioLevel        = "audioLevel"
	MethodPin               = "pin"
	MethodSetActiveSpeakers = "setActiveSpeakers"
	MethodSetThreshold      = "setThreshold"
	MethodParticipation     = "participation"
)

// サーバーからクライアントへの通知
const (
	NotifyActiveSpeakers    = "activeSpeakers"
	NotifyMostActiveSpeaker = "mostActiveSpeaker"
	NotifySubscription      = "subscription"
	NotifyParticipation     = "participation"
)

type JoinRequest struct {
	// ChannelID が空の場合はサーバーが採番する
	ChannelID string `json:"channel_id,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Pinned    bool   `json:"pinned,omitempty"`
}

type JoinResponse struct {
	ChannelID string `json:"channel_id"`
}

type LeaveRequest struct {
	ChannelID string `json:"channel_id"`
}

type LeaveResponse struct{}

type AudioLevelRequest struct {
	ChannelID string  `json:"channel_id"`
	Level     float64 `json:"level"`
}

type AudioLevelResponse struct{}

type PinRequest struct {
	ChannelID string `json:"channel_id"`
	Pinned    bool   `json:"pinned"`
}

type PinResponse struct{}

type ActiveSpeakersRequest struct {
	Count int `json:"count"`
}

type ActiveSpeakersResponse struct{}

type ThresholdRequest struct {
	Threshold float64 `json:"threshold"`
}

type ThresholdResponse struct{}

type ParticipationRequest struct{}

type ParticipationResponse struct {
	// ParticipationsMs はチャネルごとの累計時間(ミリ秒)
	ParticipationsMs map[string]int64 `json:"participations_ms"`
}

type ActiveSpeakersNotification struct {
	Ranked   []speaker.RankedEntry `json:"ranked"`
	Slots    []string              `json:"slots"`
	Capacity int                   `json:"capacity"`
}

type MostActiveSpeakerNotification struct {
	// ChannelID は誰もいない場合 null
	ChannelID *string `json:"channel_id"`
}

type SubscriptionNotification struct {
	ChannelID string `json:"channel_id"`
	Subscribe bool   `json:"subscribe"`
}

type ParticipationNotification struct {
	ParticipationsMs map[string]int64 `json:"participations_ms"`
}
