package speaker

import (
	"sync"

	"github.com/gammazero/deque"
)

type sample struct {
	channelID string
	level     float64
}

// inbox は PushAudioLevel で受け取ったサンプルを次のTickまで溜めておくキューです。
type inbox struct {
	mu sync.Mutex
	q  deque.Deque[sample]
}

func newInbox() *inbox {
	b := &inbox{}
	b.q.SetBaseCap(64)
	return b
}

func (b *inbox) push(s sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.q.PushBack(s)
}

// drain はキューを空にし、チャネルごとに最新の1サンプルだけを返します。
// 返す順序は各チャネルが最初に現れた順です。
func (b *inbox) drain() []sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.q.Len() == 0 {
		return nil
	}

	latest := make([]sample, 0, b.q.Len())
	index := make(map[string]int, b.q.Len())

	for b.q.Len() > 0 {
		s := b.q.PopFront()
		if i, ok := index[s.channelID]; ok {
			latest[i] = s
			continue
		}

		index[s.channelID] = len(latest)
		latest = append(latest, s)
	}

	return latest
}

func (b *inbox) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.q.Len()
}
