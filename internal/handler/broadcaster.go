//go:generate mockgen -source broadcaster.go -destination mock/broadcaster.go
package handler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	payload "github.com/HMasataka/spotlight/payload/speaker"
	"github.com/HMasataka/spotlight/pkg/speaker"
	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sourcegraph/jsonrpc2"
)

// Notifier はクライアントへの通知の送り先です。*jsonrpc2.Conn が満たします。
type Notifier interface {
	Notify(ctx context.Context, method string, params any, opts ...jsonrpc2.CallOption) error
}

// Source は Broadcaster が購読するイベントの発生元です。*speaker.Engine が満たします。
type Source interface {
	OnActiveSpeakerSetChanged(f speaker.ActiveSpeakerSetChangedFunc)
	OnMostActiveSpeakerChanged(f speaker.MostActiveSpeakerChangedFunc)
	OnSubscriptionIntent(f speaker.SubscriptionIntentFunc)
	OnParticipationChanged(f speaker.ParticipationChangedFunc)
}

// Broadcaster は engine のイベントを接続中の全クライアントに通知します。
// 表示対象の変更は debounce し、最後の状態だけを送ります。
type Broadcaster struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier

	pendingMu sync.Mutex
	pending   *payload.ActiveSpeakersNotification
	debounced func(f func())
}

// NewBroadcaster は表示対象の変更を delay だけまとめる Broadcaster を作ります。delay が0なら即座に送ります。
func NewBroadcaster(delay time.Duration) *Broadcaster {
	b := &Broadcaster{
		notifiers: make(map[string]Notifier),
	}

	if delay > 0 {
		b.debounced = debounce.New(delay)
	} else {
		b.debounced = func(f func()) { f() }
	}

	return b
}

// Attach は Broadcaster を source の各イベントの購読者として登録します。
// 各イベントの購読者は1つだけなので、既存の購読者は置き換えられます。
func (b *Broadcaster) Attach(source Source) {
	source.OnActiveSpeakerSetChanged(b.activeSpeakerSetChanged)
	source.OnMostActiveSpeakerChanged(b.mostActiveSpeakerChanged)
	source.OnSubscriptionIntent(b.subscriptionIntent)
	source.OnParticipationChanged(b.participationChanged)
}

// Add は通知先を登録し、削除に使う ID を返します。
func (b *Broadcaster) Add(n Notifier) string {
	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.notifiers[id] = n
	return id
}

func (b *Broadcaster) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.notifiers, id)
}

func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.notifiers)
}

func (b *Broadcaster) activeSpeakerSetChanged(ranked []speaker.RankedEntry, slots []string, capacity int) {
	b.pendingMu.Lock()
	b.pending = &payload.ActiveSpeakersNotification{
		Ranked:   ranked,
		Slots:    slots,
		Capacity: capacity,
	}
	b.pendingMu.Unlock()

	b.debounced(b.flushActiveSpeakers)
}

func (b *Broadcaster) flushActiveSpeakers() {
	b.pendingMu.Lock()
	n := b.pending
	b.pending = nil
	b.pendingMu.Unlock()

	if n == nil {
		return
	}

	b.broadcast(payload.NotifyActiveSpeakers, n)
}

func (b *Broadcaster) mostActiveSpeakerChanged(channelID string) {
	var id *string
	if channelID != "" {
		id = &channelID
	}

	b.broadcast(payload.NotifyMostActiveSpeaker, payload.MostActiveSpeakerNotification{ChannelID: id})
}

func (b *Broadcaster) subscriptionIntent(channelID string, subscribe bool) {
	b.broadcast(payload.NotifySubscription, payload.SubscriptionNotification{
		ChannelID: channelID,
		Subscribe: subscribe,
	})
}

func (b *Broadcaster) participationChanged(participations map[string]time.Duration) {
	b.broadcast(payload.NotifyParticipation, payload.ParticipationNotification{
		ParticipationsMs: toMillis(participations),
	})
}

func (b *Broadcaster) broadcast(method string, params any) {
	b.mu.RLock()
	notifiers := lo.Entries(b.notifiers)
	b.mu.RUnlock()

	ctx := context.Background()
	for _, n := range notifiers {
		if err := n.Value.Notify(ctx, method, params); err != nil {
			slog.Warn("failed to notify client", "client_id", n.Key, "method", method, "error", err)
		}
	}
}

func toMillis(participations map[string]time.Duration) map[string]int64 {
	return lo.MapValues(participations, func(d time.Duration, _ string) int64 {
		return d.Milliseconds()
	})
}
