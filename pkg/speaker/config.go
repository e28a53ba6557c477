package speaker

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config はアクティブスピーカー判定の設定です。
// 評価のたびに読み直されるため、実行中に変更しても次の評価から反映されます。
type Config struct {
	NumberOfActiveSpeakers          int     `toml:"number_of_active_speakers" yaml:"number_of_active_speakers"`
	VoiceLevelThreshold             float64 `toml:"voice_level_threshold" yaml:"voice_level_threshold"`
	ConsecutiveVoiceMs              int     `toml:"consecutive_voice_ms" yaml:"consecutive_voice_ms"`
	ConsecutiveSilenceMs            int     `toml:"consecutive_silence_ms" yaml:"consecutive_silence_ms"`
	AudioLevelPreviousWeight        float64 `toml:"audio_level_previous_weight" yaml:"audio_level_previous_weight"`
	AudioLevelCurrentWeight         float64 `toml:"audio_level_current_weight" yaml:"audio_level_current_weight"`
	AutoSubscription                bool    `toml:"auto_subscription" yaml:"auto_subscription"`
	AutoSubscriptionCallbackDelayMs int     `toml:"auto_subscription_callback_delay_ms" yaml:"auto_subscription_callback_delay_ms"`
	UnsubscribeDelayMs              int     `toml:"unsubscribe_delay_ms" yaml:"unsubscribe_delay_ms"`
	TickIntervalMs                  int     `toml:"tick_interval_ms" yaml:"tick_interval_ms"`
}

const defaultTickInterval = 100 * time.Millisecond

func DefaultConfig() Config {
	return Config{
		NumberOfActiveSpeakers:          2,
		VoiceLevelThreshold:             0.5,
		ConsecutiveVoiceMs:              100,
		ConsecutiveSilenceMs:            300,
		AudioLevelPreviousWeight:        0.7,
		AudioLevelCurrentWeight:         0.3,
		AutoSubscription:                false,
		AutoSubscriptionCallbackDelayMs: 500,
		UnsubscribeDelayMs:              1000,
		TickIntervalMs:                  100,
	}
}

// Validate は設定値の範囲を検査し、見つかった全ての違反をまとめて返します。
func (c Config) Validate() error {
	var errs []error

	if c.NumberOfActiveSpeakers < 1 {
		errs = append(errs, fmt.Errorf("%w: number_of_active_speakers must be >= 1, got %d", ErrInvalidConfig, c.NumberOfActiveSpeakers))
	}
	if err := validateThreshold(c.VoiceLevelThreshold); err != nil {
		errs = append(errs, err)
	}
	if c.ConsecutiveVoiceMs < 0 {
		errs = append(errs, fmt.Errorf("%w: consecutive_voice_ms must be >= 0, got %d", ErrInvalidConfig, c.ConsecutiveVoiceMs))
	}
	if c.ConsecutiveSilenceMs < 0 {
		errs = append(errs, fmt.Errorf("%w: consecutive_silence_ms must be >= 0, got %d", ErrInvalidConfig, c.ConsecutiveSilenceMs))
	}
	if !isFiniteNonNegative(c.AudioLevelPreviousWeight) {
		errs = append(errs, fmt.Errorf("%w: audio_level_previous_weight must be finite and >= 0, got %v", ErrInvalidConfig, c.AudioLevelPreviousWeight))
	}
	if !isFiniteNonNegative(c.AudioLevelCurrentWeight) {
		errs = append(errs, fmt.Errorf("%w: audio_level_current_weight must be finite and >= 0, got %v", ErrInvalidConfig, c.AudioLevelCurrentWeight))
	}
	if c.AutoSubscriptionCallbackDelayMs < 0 {
		errs = append(errs, fmt.Errorf("%w: auto_subscription_callback_delay_ms must be >= 0, got %d", ErrInvalidConfig, c.AutoSubscriptionCallbackDelayMs))
	}
	if c.UnsubscribeDelayMs < 0 {
		errs = append(errs, fmt.Errorf("%w: unsubscribe_delay_ms must be >= 0, got %d", ErrInvalidConfig, c.UnsubscribeDelayMs))
	}
	if c.TickIntervalMs < 0 {
		errs = append(errs, fmt.Errorf("%w: tick_interval_ms must be >= 0, got %d", ErrInvalidConfig, c.TickIntervalMs))
	}

	return errors.Join(errs...)
}

func validateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: voice_level_threshold must be within [0, 1], got %v", ErrInvalidConfig, threshold)
	}
	return nil
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func (c Config) consecutiveVoice() time.Duration {
	return time.Duration(c.ConsecutiveVoiceMs) * time.Millisecond
}

func (c Config) consecutiveSilence() time.Duration {
	return time.Duration(c.ConsecutiveSilenceMs) * time.Millisecond
}

func (c Config) callbackDelay() time.Duration {
	return time.Duration(c.AutoSubscriptionCallbackDelayMs) * time.Millisecond
}

func (c Config) unsubscribeDelay() time.Duration {
	return time.Duration(c.UnsubscribeDelayMs) * time.Millisecond
}

// TickInterval は評価ループの間隔です。0のときは100msを使います。
func (c Config) TickInterval() time.Duration {
	if c.TickIntervalMs == 0 {
		return defaultTickInterval
	}
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Format は設定ファイルのエンコーディングです。
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath は拡張子から設定ファイルの形式を判定します。
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("config: unsupported file extension %q", filepath.Ext(path))
	}
}

// LoadConfig は path の設定ファイルを読み込み、検証済みの Config を返します。
func LoadConfig(path string) (Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Config{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := DecodeConfig(f, format)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig は r から設定をデコードします。
// 記述されていない項目は DefaultConfig の値のままになります。
func DecodeConfig(r io.Reader, format Format) (Config, error) {
	cfg := DefaultConfig()

	switch format {
	case FormatTOML:
		if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode toml: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: decode yaml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("config: unsupported format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EncodeConfig は cfg を format で w に書き出します。
func EncodeConfig(w io.Writer, cfg Config, format Format) error {
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("config: encode toml: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("config: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("config: encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("config: unsupported format %q", format)
	}
	return nil
}
