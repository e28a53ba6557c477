package speaker

import "time"

// Recorder は評価パスの計測値を受け取ります。internal/observe.Metrics が実装します。
type Recorder interface {
	RecordEvaluation(d time.Duration, forced bool)
	RecordActiveSetChange(capacity int)
	RecordMostActiveChange()
	RecordSubscriptionIntent(subscribe bool)
	RecordChannels(delta int)
}

type nopRecorder struct{}

func (nopRecorder) RecordEvaluation(time.Duration, bool) {}
func (nopRecorder) RecordActiveSetChange(int)            {}
func (nopRecorder) RecordMostActiveChange()              {}
func (nopRecorder) RecordSubscriptionIntent(bool)        {}
func (nopRecorder) RecordChannels(int)                   {}
