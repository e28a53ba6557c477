package speaker

import (
	"fmt"
	"log/slog"
)

// Dispatcher はリスナー呼び出しを評価パスの外で実行します。
// *workerpool.WorkerPool がそのまま満たします。
type Dispatcher interface {
	Submit(task func())
}

// guard はリスナーのpanicを回収し、内部状態に影響させないようにします。
func guard(name string, task func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("listener panicked", "listener", name, "error", fmt.Sprint(r))
			}
		}()

		task()
	}
}
