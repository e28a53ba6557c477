package speaker

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/samber/lo"
)

type (
	// ActiveSpeakerSetChangedFunc は上位 capacity 件の顔ぶれが変わったときに呼ばれます。
	ActiveSpeakerSetChangedFunc  func(ranked []RankedEntry, slots []string, capacity int)
	// MostActiveSpeakerChangedFunc は最もアクティブな話者が変わったときに呼ばれます。誰もいなければ空文字
	MostActiveSpeakerChangedFunc func(channelID string)
	// SubscriptionIntentFunc はチャネルの映像を購読すべきかどうかを通知します。
	SubscriptionIntentFunc       func(channelID string, subscribe bool)
	// ParticipationChangedFunc は話者ごとの累計時間が変わったときに呼ばれます。
	ParticipationChangedFunc     func(participations map[string]time.Duration)
)

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithDispatcher はリスナー呼び出しの実行先を差し替えます。
// 指定しない場合は単一ワーカーの workerpool で順番に実行します。
// Submit は評価の順に呼ばれます。Submit の中で同期的にリスナーを実行する場合、
// リスナーから Engine の状態を変更するメソッドを呼んではいけません。
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// Engine はチャネルごとの発話状態を追跡し、話者の順位付け、表示スロットの割り当て、
// 変更通知と購読制御を行います。
//
// 状態は全て Engine が所有し、1つのロックで保護されます。
// リスナーはロックの外で Dispatcher 経由で呼ばれ、各種リスナーは1つずつしか登録できません。
type Engine struct {
	mu sync.Mutex

	cfg      Config
	clock    Clock
	recorder Recorder
	inbox    *inbox

	// emitMu は評価結果の発行を状態の変化と同じ順に並べます。e.mu を保持したまま取得します。
	emitMu         sync.Mutex
	dispatchMu     sync.RWMutex
	dispatcher     Dispatcher
	pool           *workerpool.WorkerPool
	dispatchClosed bool

	channels map[string]*Channel
	nextSeq  uint64

	ranking    []RankedEntry
	slots      []string
	activeSet  []string
	mostActive string

	participation *Participation

	notifyTimer Timer
	notifyGen   uint64

	closed bool

	onActiveSpeakerSetChanged  ActiveSpeakerSetChangedFunc
	onMostActiveSpeakerChanged MostActiveSpeakerChangedFunc
	onSubscriptionIntent       SubscriptionIntentFunc
	onParticipationChanged     ParticipationChangedFunc
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:           cfg,
		clock:         systemClock{},
		recorder:      nopRecorder{},
		inbox:         newInbox(),
		channels:      make(map[string]*Channel),
		participation: NewParticipation(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.dispatcher == nil {
		e.pool = workerpool.New(1)
		e.dispatcher = e.pool
	}

	return e, nil
}

// OnActiveSpeakerSetChanged はリスナーを登録します。後から登録したものが前のものを置き換え、nil で解除します。
func (e *Engine) OnActiveSpeakerSetChanged(f ActiveSpeakerSetChangedFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onActiveSpeakerSetChanged = f
}

func (e *Engine) OnMostActiveSpeakerChanged(f MostActiveSpeakerChangedFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onMostActiveSpeakerChanged = f
}

func (e *Engine) OnSubscriptionIntent(f SubscriptionIntentFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onSubscriptionIntent = f
}

func (e *Engine) OnParticipationChanged(f ParticipationChangedFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.onParticipationChanged = f
}

// AddChannel はチャネルを登録します。既に存在する場合は kind と pinned のみ更新します。
func (e *Engine) AddChannel(id string, kind Kind, pinned bool) {
	if id == "" {
		slog.Warn("ignoring channel with empty id")
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	c, existed := e.channels[id]
	if existed {
		c.Kind = kind
		c.Pinned = pinned
	} else {
		e.nextSeq++
		e.channels[id] = newChannel(id, kind, pinned, e.nextSeq)
		e.recorder.RecordChannels(1)
	}

	events := e.evaluateLocked(existed)
	e.unlockAndDispatch(events)

	slog.Debug("channel added", "channel_id", id, "kind", kind.String(), "pinned", pinned, "existed", existed)
}

// RemoveChannel はチャネルを削除し、保留中の購読解除タイマーを取り消します。
func (e *Engine) RemoveChannel(id string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	c, ok := e.channels[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("remove channel %q: %w", id, ErrUnknownChannel)
	}

	c.cancelUnsubscribe()
	delete(e.channels, id)
	e.recorder.RecordChannels(-1)

	e.ranking = lo.Filter(e.ranking, func(r RankedEntry, _ int) bool {
		return r.ChannelID != id
	})
	e.slots = lo.Map(e.slots, func(s string, _ int) string {
		if s == id {
			return ""
		}
		return s
	})

	events := e.evaluateLocked(false)

	e.participation.Delete(id)
	events = append(events, e.participationEventLocked()...)
	e.unlockAndDispatch(events)

	slog.Debug("channel removed", "channel_id", id)

	return nil
}

// PushAudioLevel は生の音声レベルを受け付けます。
// サンプルは次の Tick でまとめて処理され、同じチャネルのサンプルは最新のものだけが使われます。
func (e *Engine) PushAudioLevel(id string, level float64) error {
	if math.IsNaN(level) || math.IsInf(level, 0) || level < 0 {
		return fmt.Errorf("push audio level %q (%v): %w", id, level, ErrInvalidSample)
	}

	e.mu.Lock()
	_, ok := e.channels[id]
	closed := e.closed
	e.mu.Unlock()

	if closed {
		return nil
	}
	if !ok {
		return fmt.Errorf("push audio level %q: %w", id, ErrUnknownChannel)
	}

	e.inbox.push(sample{channelID: id, level: level})
	return nil
}

// Tick は溜まったサンプルを取り込み、順位付けからリスナー通知までを1回実行します。
func (e *Engine) Tick() {
	samples := e.inbox.drain()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	now := e.clock.Now()
	applied := 0

	if pending := e.inbox.len(); pending > 0 {
		slog.Debug("samples queued for next tick", "pending", pending)
	}

	for _, s := range samples {
		c, ok := e.channels[s.channelID]
		if !ok {
			// Tick までの間に削除されたチャネル
			slog.Debug("dropping sample for removed channel", "channel_id", s.channelID)
			continue
		}

		c.observe(s.level, now, e.cfg)
		applied++
	}

	var events []func()
	if applied > 0 {
		events = e.evaluateLocked(false)
	}
	e.unlockAndDispatch(events)
}

// Run は ctx がキャンセルされるまで TickInterval ごとに Tick を実行します。
func (e *Engine) Run(ctx context.Context) error {
	interval := e.Config().TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Tick()

			if next := e.Config().TickInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// SetPinned はピン留めを切り替えます。音声がなくても再評価を強制します。
func (e *Engine) SetPinned(id string, pinned bool) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	c, ok := e.channels[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("set pinned %q: %w", id, ErrUnknownChannel)
	}

	c.Pinned = pinned
	events := e.evaluateLocked(true)
	e.unlockAndDispatch(events)

	return nil
}

// SetNumberOfActiveSpeakers は表示スロット数を変更します。1未満は拒否し、現在の値を保持します。
func (e *Engine) SetNumberOfActiveSpeakers(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: number_of_active_speakers must be >= 1, got %d", ErrInvalidConfig, n)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	e.cfg.NumberOfActiveSpeakers = n
	events := e.evaluateLocked(true)
	e.unlockAndDispatch(events)

	return nil
}

// SetVoiceLevelThreshold は発話判定の閾値を変更します。[0, 1] の範囲外は拒否します。
func (e *Engine) SetVoiceLevelThreshold(threshold float64) error {
	if err := validateThreshold(threshold); err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	e.cfg.VoiceLevelThreshold = threshold
	events := e.evaluateLocked(true)
	e.unlockAndDispatch(events)

	return nil
}

// UpdateConfig は設定全体を置き換えて再評価します。検証に失敗した場合は何も変更しません。
func (e *Engine) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	e.cfg = cfg
	events := e.evaluateLocked(true)
	e.unlockAndDispatch(events)

	return nil
}

func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cfg
}

// Ranking は直近の評価結果のコピーを返します。
func (e *Engine) Ranking() []RankedEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.ranking)
}

func (e *Engine) Slots() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return slices.Clone(e.slots)
}

func (e *Engine) MostActiveSpeaker() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.mostActive
}

// Channel はチャネル状態のコピーを返します。
func (e *Engine) Channel(id string) (Channel, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.channels[id]
	if !ok {
		return Channel{}, false
	}
	return c.snapshot(), true
}

// Participations は話者ごとに最もアクティブだった累計時間を返します。
func (e *Engine) Participations() map[string]time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.participation.Snapshot(e.clock.Now())
}

// IsSelfActiveSpeaker は自分自身のチャネルが表示対象に含まれているかを返します。
func (e *Engine) IsSelfActiveSpeaker() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return lo.SomeBy(e.ranking[:len(e.slots)], func(r RankedEntry) bool {
		return r.IsSelf
	})
}

// Close は全てのタイマーを止め、保留中のリスナー呼び出しが終わるまで待ちます。
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	e.closed = true
	if e.notifyTimer != nil {
		e.notifyTimer.Stop()
		e.notifyTimer = nil
	}
	for _, c := range e.channels {
		c.cancelUnsubscribe()
	}
	e.mu.Unlock()

	e.dispatchMu.Lock()
	e.dispatchClosed = true
	e.dispatchMu.Unlock()

	if e.pool != nil {
		e.pool.StopWait()
	}
}

// unlockAndDispatch は e.mu を外して events を発行します。
// 発行が終わるまで次の評価の発行を待たせるため、リスナーには状態が変わった順に届きます。
func (e *Engine) unlockAndDispatch(events []func()) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Unlock()
	e.dispatch(events)
}

func (e *Engine) dispatch(events []func()) {
	if len(events) == 0 {
		return
	}

	e.dispatchMu.RLock()
	defer e.dispatchMu.RUnlock()

	if e.dispatchClosed {
		return
	}

	for _, ev := range events {
		e.dispatcher.Submit(ev)
	}
}

func (e *Engine) orderedChannelsLocked() []*Channel {
	channels := make([]*Channel, 0, len(e.channels))
	for _, c := range e.channels {
		channels = append(channels, c)
	}

	slices.SortFunc(channels, func(a, b *Channel) int {
		return cmp.Compare(a.seq, b.seq)
	})

	return channels
}

