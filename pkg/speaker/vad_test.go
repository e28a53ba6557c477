package speaker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevel(t *testing.T) {
	testCases := []struct {
		name  string
		level float64
		want  float64
	}{
		{"最大値", 1, 1},
		{"1より大きい値はクランプ", 10, 1},
		{"0.1", 0.1, 1 - 1/1.5},
		{"十分小さい値は0", 0.001, 0},
		{"0", 0, 0},
		{"負の値", -1, 0},
		{"NaN", math.NaN(), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, logLevel(tc.level), 1e-9)
		})
	}
}

func TestIsVoice(t *testing.T) {
	t.Run("閾値を超えたら発話", func(t *testing.T) {
		assert.True(t, IsVoice(0.9, 0.5))
		assert.False(t, IsVoice(0.01, 0.5))
	})

	t.Run("閾値ちょうどは発話ではない", func(t *testing.T) {
		assert.False(t, IsVoice(1, 1))
	})

	t.Run("0以下は閾値0でも発話ではない", func(t *testing.T) {
		assert.False(t, IsVoice(0, 0))
		assert.False(t, IsVoice(-0.5, 0))
	})

	t.Run("レベルに対して単調", func(t *testing.T) {
		for _, threshold := range []float64{0, 0.25, 0.5, 0.75, 1} {
			prev := false
			for i := 1; i <= 1000; i++ {
				level := float64(i) / 1000
				got := IsVoice(level, threshold)
				if prev {
					assert.True(t, got, "level=%v threshold=%v", level, threshold)
				}
				prev = got
			}
		}
	})
}

func TestMovingAverage(t *testing.T) {
	t.Run("前回値がなければ今回値", func(t *testing.T) {
		assert.Equal(t, 0.2, MovingAverage(0.9, false, 0.2, 0.7, 0.3))
	})

	t.Run("上昇は即座に追従", func(t *testing.T) {
		assert.Equal(t, 0.8, MovingAverage(0.1, true, 0.8, 0.7, 0.3))
	})

	t.Run("下降は重み付き平均", func(t *testing.T) {
		assert.InDelta(t, 0.7, MovingAverage(1, true, 0, 0.7, 0.3), 1e-9)
		assert.InDelta(t, 0.55, MovingAverage(0.7, true, 0.2, 0.7, 0.3), 1e-9)
	})
}
