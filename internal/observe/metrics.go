// Package observe はアクティブスピーカー判定のメトリクスを OpenTelemetry で記録します。
//
// Prometheus へは InitProvider のエクスポーター経由で /metrics から公開します。
// テストでは NewMetrics に ManualReader を持つ MeterProvider を渡してください。
package observe

import (
	"context"
	"time"

	"github.com/HMasataka/spotlight/pkg/speaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/HMasataka/spotlight"

var _ speaker.Recorder = (*Metrics)(nil)

// Metrics は speaker.Recorder を満たします。
type Metrics struct {
	// EvaluationDuration は1回の評価にかかった時間。attribute.Bool("forced", ...) 付き
	EvaluationDuration metric.Float64Histogram

	// ActiveSetChanges は表示対象の顔ぶれが変わった回数
	ActiveSetChanges metric.Int64Counter

	// MostActiveChanges は最もアクティブな話者が変わった回数
	MostActiveChanges metric.Int64Counter

	// SubscriptionIntents は購読/購読解除の通知数。attribute.Bool("subscribe", ...) 付き
	SubscriptionIntents metric.Int64Counter

	// Channels は登録中のチャネル数
	Channels metric.Int64UpDownCounter

	// Capacity は直近に変更が起きたときの表示スロット数
	Capacity metric.Int64Gauge

	// RPCRequests は JSON-RPC のリクエスト数。attribute.String("method", ...), attribute.String("status", ...) 付き
	RPCRequests metric.Int64Counter

	// Connections は接続中のクライアント数
	Connections metric.Int64UpDownCounter
}

// evaluationBuckets は評価時間のバケット境界(秒)
var evaluationBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.EvaluationDuration, err = m.Float64Histogram("spotlight.evaluation.duration",
		metric.WithDescription("Latency of one ranking and slot assignment pass."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(evaluationBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ActiveSetChanges, err = m.Int64Counter("spotlight.active_set.changes",
		metric.WithDescription("Total changes of the active speaker set."),
	); err != nil {
		return nil, err
	}
	if met.MostActiveChanges, err = m.Int64Counter("spotlight.most_active.changes",
		metric.WithDescription("Total changes of the most active speaker."),
	); err != nil {
		return nil, err
	}
	if met.SubscriptionIntents, err = m.Int64Counter("spotlight.subscription.intents",
		metric.WithDescription("Total subscribe and unsubscribe intents."),
	); err != nil {
		return nil, err
	}
	if met.RPCRequests, err = m.Int64Counter("spotlight.rpc.requests",
		metric.WithDescription("Total JSON-RPC requests by method and status."),
	); err != nil {
		return nil, err
	}

	if met.Channels, err = m.Int64UpDownCounter("spotlight.channels",
		metric.WithDescription("Number of registered audio channels."),
	); err != nil {
		return nil, err
	}
	if met.Connections, err = m.Int64UpDownCounter("spotlight.connections",
		metric.WithDescription("Number of connected JSON-RPC clients."),
	); err != nil {
		return nil, err
	}

	if met.Capacity, err = m.Int64Gauge("spotlight.capacity",
		metric.WithDescription("Number of active speaker slots."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func (m *Metrics) RecordEvaluation(d time.Duration, forced bool) {
	m.EvaluationDuration.Record(context.Background(), d.Seconds(),
		metric.WithAttributes(attribute.Bool("forced", forced)))
}

func (m *Metrics) RecordActiveSetChange(capacity int) {
	ctx := context.Background()

	m.ActiveSetChanges.Add(ctx, 1)
	m.Capacity.Record(ctx, int64(capacity))
}

func (m *Metrics) RecordMostActiveChange() {
	m.MostActiveChanges.Add(context.Background(), 1)
}

func (m *Metrics) RecordSubscriptionIntent(subscribe bool) {
	m.SubscriptionIntents.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("subscribe", subscribe)))
}

func (m *Metrics) RecordChannels(delta int) {
	m.Channels.Add(context.Background(), int64(delta))
}

// RecordRPC は JSON-RPC の1リクエストを記録します。
func (m *Metrics) RecordRPC(ctx context.Context, method string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	m.RPCRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordConnection(ctx context.Context, delta int) {
	m.Connections.Add(ctx, int64(delta))
}
