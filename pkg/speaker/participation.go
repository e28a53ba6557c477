package speaker

import (
	"maps"
	"time"
)

// Participation は各チャネルが最もアクティブな話者だった累計時間を記録します。
// ゴルーチンセーフではありません。Engine のロック下で使います。
type Participation struct {
	current string
	since   time.Time
	totals  map[string]time.Duration
}

func NewParticipation() *Participation {
	return &Participation{
		totals: make(map[string]time.Duration),
	}
}

// SetCurrent は現在の話者を切り替え、直前の話者の経過時間を加算します。
// id が空文字の場合は誰も話していない状態になります。
func (p *Participation) SetCurrent(id string, now time.Time) {
	if p.current != "" && !p.since.IsZero() {
		p.totals[p.current] += now.Sub(p.since)
	}

	p.current = id
	p.since = now
}

// Delete はチャネルの記録を削除します。
func (p *Participation) Delete(id string) {
	delete(p.totals, id)

	if p.current == id {
		p.current = ""
		p.since = time.Time{}
	}
}

// Snapshot は累計時間のコピーを返します。現在の話者の進行中の時間も含みます。
func (p *Participation) Snapshot(now time.Time) map[string]time.Duration {
	out := maps.Clone(p.totals)
	if out == nil {
		out = make(map[string]time.Duration)
	}

	if p.current != "" && !p.since.IsZero() {
		out[p.current] += now.Sub(p.since)
	}

	return out
}
