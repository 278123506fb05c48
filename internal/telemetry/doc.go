// Package telemetry sets up OpenTelemetry tracing and metrics export for
// projectindex.
//
// Export is off by default. When enabled, spans and metrics go to an OTLP
// collector over gRPC or HTTP/protobuf:
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc
//	  insecure: true
//	  sample_rate: 0.25
//	  export_interval: 30s
//
// Failures to build a provider do not stop the service; Health reports the
// instance as degraded and the global no-op providers stay in place.
//
// Prometheus metrics served at /metrics are independent of this package.
//
// Use TestTelemetry in tests:
//
//	tt := telemetry.NewTestTelemetry()
//	mw := http.NewHTTPMetrics(tt.Meter("test"), logger)
//	...
//	tt.CollectSum(t, "projectindex.http.requests_total")
package telemetry
