package speaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock は Advance で手動で進める時計です。期限の来たタイマーは時刻順に同じゴルーチンで実行します。
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	end := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()

		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(end) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}

		if next == nil {
			c.now = end
			c.mu.Unlock()
			return
		}

		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()

		next.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// syncDispatcher はリスナーを呼び出し元のゴルーチンでそのまま実行します。
type syncDispatcher struct{}

func (syncDispatcher) Submit(task func()) {
	task()
}

type intent struct {
	channelID string
	subscribe bool
}

type activeSetCall struct {
	ranked   []RankedEntry
	slots    []string
	capacity int
}

// listenerLog は全てのリスナー呼び出しを記録します。
type listenerLog struct {
	mu         sync.Mutex
	intents    []intent
	activeSets []activeSetCall
	mostActive []string
}

func (l *listenerLog) attach(e *Engine) {
	e.OnSubscriptionIntent(func(id string, subscribe bool) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.intents = append(l.intents, intent{channelID: id, subscribe: subscribe})
	})
	e.OnActiveSpeakerSetChanged(func(ranked []RankedEntry, slots []string, capacity int) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.activeSets = append(l.activeSets, activeSetCall{ranked: ranked, slots: slots, capacity: capacity})
	})
	e.OnMostActiveSpeakerChanged(func(id string) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.mostActive = append(l.mostActive, id)
	})
}

func (l *listenerLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.intents = nil
	l.activeSets = nil
	l.mostActive = nil
}

// testConfig は平滑化を無効にし、生のレベルがそのまま判定に使われる設定です。
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AudioLevelPreviousWeight = 0
	cfg.AudioLevelCurrentWeight = 1
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	e, err := NewEngine(cfg, WithClock(clock), WithDispatcher(syncDispatcher{}))
	require.NoError(t, err)
	t.Cleanup(e.Close)

	return e, clock
}

// speak は ids を発話中にします。ConsecutiveVoiceMs 間隔で2回サンプルを入れます。
func speak(t *testing.T, e *Engine, clock *fakeClock, level float64, ids ...string) {
	t.Helper()

	for range 2 {
		for _, id := range ids {
			require.NoError(t, e.PushAudioLevel(id, level))
		}
		e.Tick()
		clock.Advance(e.Config().consecutiveVoice())
	}
}
