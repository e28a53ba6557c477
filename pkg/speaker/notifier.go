package speaker

import (
	"log/slog"
	"math"
	"slices"
)

// evaluateLocked は順位付けとスロット割り当てをやり直し、前回の評価との差分から
// リスナー呼び出しを組み立てます。呼び出しは e.mu を保持したまま行い、
// 返された関数はロックを外してから dispatch に渡します。
//
// force が true の場合、表示対象の顔ぶれが変わっていなくても購読制御と通知を行います。
func (e *Engine) evaluateLocked(force bool) []func() {
	start := e.clock.Now()
	cfg := e.cfg
	capacity := cfg.NumberOfActiveSpeakers

	ranking := Rank(e.orderedChannelsLocked(), rankedIDs(e.ranking))
	ids := rankedIDs(ranking)

	slots, err := AssignSlots(ids, e.slots, capacity)
	if err != nil {
		slog.Warn("slot assignment incomplete", "error", err)
	}

	target := ranking[:len(slots)]
	activeSet := slices.Sorted(slices.Values(ids[:len(slots)]))

	e.ranking = ranking
	e.slots = slots

	var events []func()

	if mostActive := mostActiveSpeaker(target); mostActive != e.mostActive {
		slog.Debug("most active speaker changed", "from", e.mostActive, "to", mostActive)

		e.mostActive = mostActive
		e.participation.SetCurrent(mostActive, start)
		e.recorder.RecordMostActiveChange()

		events = append(events, e.mostActiveEventLocked(mostActive)...)
		events = append(events, e.participationEventLocked()...)
	}

	changed := !slices.Equal(activeSet, e.activeSet)
	e.activeSet = activeSet

	if changed || force {
		if changed {
			slog.Debug("active speaker set changed", "active", activeSet, "capacity", capacity)
			e.recorder.RecordActiveSetChange(capacity)
		}

		if cfg.AutoSubscription {
			events = append(events, e.updateSubscriptionsLocked(ranking, capacity)...)
		}

		events = append(events, e.notifyActiveSpeakersLocked(cfg)...)
	}

	e.recorder.RecordEvaluation(e.clock.Now().Sub(start), force)

	return events
}

// mostActiveSpeaker は表示対象のうち音声レベルが最も高いチャネルを返します。
// 同じレベルの場合は順位が上のものを優先します。
func mostActiveSpeaker(target []RankedEntry) string {
	best := ""
	bestLevel := math.Inf(-1)

	for _, r := range target {
		if r.AudioLevel > bestLevel {
			best = r.ChannelID
			bestLevel = r.AudioLevel
		}
	}

	return best
}

// updateSubscriptionsLocked は順位 capacity 以内のリモートチャネルを購読し、それ以外の購読解除を予約します。
// 自分自身のチャネルは購読の対象外です。
func (e *Engine) updateSubscriptionsLocked(ranking []RankedEntry, capacity int) []func() {
	var events []func()

	for i, r := range ranking {
		if r.IsSelf {
			continue
		}

		c, ok := e.channels[r.ChannelID]
		if !ok {
			continue
		}

		if i < capacity {
			c.cancelUnsubscribe()
			events = append(events, e.intentEventLocked(c.ID, true)...)
			continue
		}

		events = append(events, e.scheduleUnsubscribeLocked(c)...)
	}

	return events
}

func (e *Engine) scheduleUnsubscribeLocked(c *Channel) []func() {
	c.cancelUnsubscribe()

	delay := e.cfg.unsubscribeDelay()
	if delay <= 0 {
		return e.intentEventLocked(c.ID, false)
	}

	c.unsubscribeGen++
	gen := c.unsubscribeGen
	id := c.ID

	c.unsubscribeTimer = e.clock.AfterFunc(delay, func() {
		e.fireUnsubscribe(id, gen)
	})

	return nil
}

func (e *Engine) fireUnsubscribe(id string, gen uint64) {
	e.mu.Lock()

	c, ok := e.channels[id]
	if e.closed || !ok || c.unsubscribeTimer == nil || c.unsubscribeGen != gen {
		// 取り消し済み、または置き換えられたタイマー
		e.mu.Unlock()
		return
	}

	c.unsubscribeTimer = nil
	events := e.intentEventLocked(id, false)
	e.unlockAndDispatch(events)
}

// notifyActiveSpeakersLocked は自動購読が有効なら購読状態が落ち着くのを待ってから通知します。
// 待機中に再度変化があればタイマーを置き換えます。
func (e *Engine) notifyActiveSpeakersLocked(cfg Config) []func() {
	delay := cfg.callbackDelay()
	if !cfg.AutoSubscription || delay <= 0 {
		return e.activeSpeakerEventLocked()
	}

	if e.notifyTimer != nil {
		e.notifyTimer.Stop()
	}

	e.notifyGen++
	gen := e.notifyGen

	e.notifyTimer = e.clock.AfterFunc(delay, func() {
		e.fireActiveSpeakerNotification(gen)
	})

	return nil
}

// fireActiveSpeakerNotification は発火時点の最新の順位とスロットで通知します。
func (e *Engine) fireActiveSpeakerNotification(gen uint64) {
	e.mu.Lock()

	if e.closed || e.notifyTimer == nil || e.notifyGen != gen {
		e.mu.Unlock()
		return
	}

	e.notifyTimer = nil
	events := e.activeSpeakerEventLocked()
	e.unlockAndDispatch(events)
}

func (e *Engine) activeSpeakerEventLocked() []func() {
	f := e.onActiveSpeakerSetChanged
	if f == nil {
		return nil
	}

	ranking := slices.Clone(e.ranking)
	slots := slices.Clone(e.slots)
	capacity := e.cfg.NumberOfActiveSpeakers

	return []func(){guard("active_speaker_set_changed", func() {
		f(ranking, slots, capacity)
	})}
}

func (e *Engine) mostActiveEventLocked(id string) []func() {
	f := e.onMostActiveSpeakerChanged
	if f == nil {
		return nil
	}

	return []func(){guard("most_active_speaker_changed", func() {
		f(id)
	})}
}

func (e *Engine) intentEventLocked(id string, subscribe bool) []func() {
	e.recorder.RecordSubscriptionIntent(subscribe)

	f := e.onSubscriptionIntent
	if f == nil {
		return nil
	}

	return []func(){guard("subscription_intent", func() {
		f(id, subscribe)
	})}
}

func (e *Engine) participationEventLocked() []func() {
	f := e.onParticipationChanged
	if f == nil {
		return nil
	}

	snapshot := e.participation.Snapshot(e.clock.Now())

	return []func(){guard("participation_changed", func() {
		f(snapshot)
	})}
}
