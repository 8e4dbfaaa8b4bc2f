package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sloglogrus "github.com/samber/slog-logrus/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	logglobal "go.opentelemetry.io/otel/log/global"
	logsdk "go.opentelemetry.io/otel/sdk/log"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

// setupTelemetry wires metrics, traces and logs before the listener
// starts. Metrics always flow to the prometheus registry behind /metrics;
// everything else is driven by the standard OTEL_* env vars, which
// default to "none" here because autoexport would otherwise try an OTLP
// collector on localhost and log connection errors forever.
func setupTelemetry(ctx context.Context) error {
	for _, signal := range []string{"TRACES", "LOGS", "METRICS"} {
		key := "OTEL_" + signal + "_EXPORTER"
		if _, ok := os.LookupEnv(key); !ok {
			os.Setenv(key, "none")
		}
	}

	if err := setupMetrics(ctx); err != nil {
		return err
	}
	if err := setupTraces(ctx); err != nil {
		return err
	}
	if err := setupLogs(ctx); err != nil {
		return err
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(
		sloglogrus.Option{Level: slog.LevelDebug, Logger: logrus.StandardLogger()}.NewLogrusHandler(),
		otelslog.NewHandler(""),
	)))

	return nil
}

func setupMetrics(ctx context.Context) error {
	promExporter, err := prometheus.New(prometheus.WithNamespace("radiuszip"))
	if err != nil {
		return fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	metricExporter, err := autoexport.NewMetricReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize metric exporter: %w", err)
	}

	otel.SetMeterProvider(metricsdk.NewMeterProvider(
		metricsdk.WithReader(promExporter),
		metricsdk.WithReader(metricExporter),
	))
	return nil
}

func setupTraces(ctx context.Context) error {
	spanExporter, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize trace exporter: %w", err)
	}

	otel.SetTracerProvider(tracesdk.NewTracerProvider(tracesdk.WithBatcher(spanExporter)))
	return nil
}

func setupLogs(ctx context.Context) error {
	logsExporter, err := autoexport.NewLogExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize log exporter: %w", err)
	}

	logglobal.SetLoggerProvider(logsdk.NewLoggerProvider(
		logsdk.WithProcessor(logsdk.NewBatchProcessor(logsExporter)),
	))
	return nil
}
