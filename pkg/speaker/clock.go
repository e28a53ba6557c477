package speaker

import "time"

// Clock は現在時刻と遅延実行を提供します。テストでは手動で進める実装に差し替えます。
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer はキャンセル可能な遅延実行のハンドルです。*time.Timer が満たします。
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
