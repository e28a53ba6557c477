package speaker

import "math"

// logLevel は音声エネルギーを対数圧縮して [0, 1] に正規化します。
// 0以下やNaNの入力は0になります。
func logLevel(level float64) float64 {
	if math.IsNaN(level) || level <= 0 {
		return 0
	}

	l := math.Log10(level)/1.5 + 1

	return math.Min(math.Max(l, 0), 1)
}

// IsVoice は平滑化済みの音声レベルが発話とみなせるかを判定します。
func IsVoice(level, threshold float64) bool {
	return logLevel(level) > threshold
}

// MovingAverage は音声レベルの移動平均を更新します。
// 立ち上がりは即時に追従し、減衰のみ重み付き平均でゆっくり下げます。
func MovingAverage(previous float64, hasPrevious bool, current, previousWeight, currentWeight float64) float64 {
	if !hasPrevious || previous <= current {
		return current
	}

	return previousWeight*previous + currentWeight*current
}
