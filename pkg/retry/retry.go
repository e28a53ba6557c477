package retry

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"time"
)

// Config はリトライの設定を保持する
type Config struct {
	Attempts     int
	BaseInterval time.Duration
	MaxBackoff   time.Duration
}

// DefaultConfig はデフォルトのリトライ設定を返す
func DefaultConfig() Config {
	return Config{
		Attempts:     6,
		BaseInterval: 20 * time.Millisecond,
		MaxBackoff:   500 * time.Millisecond,
	}
}

// Backoff は指数バックオフ + ジッターを計算する
func Backoff(attempt int, baseInterval, maxBackoff time.Duration) time.Duration {
	d := baseInterval << attempt
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	// -10% ~ +10% のジッター
	return time.Duration(int64(d) * int64(9+rand.IntN(3)) / 10)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent は err をリトライしないエラーとして包む
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// ShouldRetry はエラーに基づいてリトライすべきか判定する
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// Do は fn が成功するか、リトライ不可のエラーを返すか、試行回数を使い切るまで fn を呼ぶ。
// 試行の間はバックオフだけ待ち、その間に ctx が終了すれば ctx のエラーを返す。
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context, attempt int) error) error {
	attempts := max(cfg.Attempts, 1)

	var err error
	for i := range attempts {
		if err = fn(ctx, i); !ShouldRetry(err) {
			return err
		}

		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(Backoff(i, cfg.BaseInterval, cfg.MaxBackoff))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}

	return err
}
