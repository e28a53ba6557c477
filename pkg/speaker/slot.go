package speaker

import (
	"fmt"

	"github.com/samber/lo"
)

// AssignSlots は順位上位 capacity 件を表示スロットに割り当てます。
//
// 前回と同じスロットに居たチャネルが引き続き上位に残っていれば、順位が変わっても同じ位置に留めます。
// 空いたスロットは残りの上位チャネルで順位順に埋めます。
// 候補が足りずに埋められないスロットがあった場合は空文字のまま残し、ErrSlotStarvation を返します。
// エラーが返っても slots は有効です。
func AssignSlots(ranked, previous []string, capacity int) ([]string, error) {
	n := min(max(capacity, 0), len(ranked))
	target := ranked[:n]

	inTarget := lo.SliceToMap(target, func(id string) (string, struct{}) {
		return id, struct{}{}
	})

	slots := make([]string, n)
	consumed := make(map[string]bool, n)

	for i, id := range previous {
		if i >= n {
			break
		}
		if id == "" || consumed[id] {
			continue
		}
		if _, ok := inTarget[id]; !ok {
			continue
		}

		slots[i] = id
		consumed[id] = true
	}

	remaining := lo.Filter(target, func(id string, _ int) bool {
		return !consumed[id]
	})

	var err error
	for i := range slots {
		if slots[i] != "" {
			continue
		}
		if len(remaining) == 0 {
			err = fmt.Errorf("%w: slot %d of %d", ErrSlotStarvation, i, n)
			continue
		}

		slots[i] = remaining[0]
		remaining = remaining[1:]
	}

	return slots, err
}
