package speaker

import "errors"

var (
	// ErrUnknownChannel 登録されていないチャネルIDが指定された
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrInvalidConfig 設定値が範囲外。直前の有効な値が保持される
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidSample NaN・無限大・負の音声レベル
	ErrInvalidSample = errors.New("invalid audio level sample")
	// ErrSlotStarvation スロットを埋める候補が足りない
	ErrSlotStarvation = errors.New("not enough candidates to fill slot")
)
