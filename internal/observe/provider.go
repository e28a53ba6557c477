package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type ProviderConfig struct {
	// ServiceName は既定で "spotlight"
	ServiceName    string
	ServiceVersion string

	// Registerer は Prometheus エクスポーターの登録先。nil の場合は prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

// InitProvider は Prometheus エクスポーターを持つ MeterProvider を作り、グローバルに登録します。
// 返り値の shutdown は main の終了時に呼んでください。
func InitProvider(ctx context.Context, cfg ProviderConfig) (*sdkmetric.MeterProvider, func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "spotlight"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	var opts []promexporter.Option
	if cfg.Registerer != nil {
		opts = append(opts, promexporter.WithRegisterer(cfg.Registerer))
	}

	exporter, err := promexporter.New(opts...)
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	return mp, mp.Shutdown, nil
}
