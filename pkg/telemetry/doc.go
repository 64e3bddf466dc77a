// Package telemetry sets up the OpenTelemetry tracer provider of the API:
// service resource attributes, parent based ratio sampling and W3C trace
// context propagation. middleware.Tracing uses the provider to open a server
// span per request.
package telemetry
