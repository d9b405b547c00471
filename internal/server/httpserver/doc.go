// Package httpserver serves the synckit operational endpoints:
//
//	GET /metrics   Prometheus exposition of the primitives' metrics
//	GET /health    liveness
//	GET /ready     readiness, driven by a caller-supplied probe
//
// It uses net/http with a small middleware chain (request ID, panic
// recovery, access logging).
package httpserver
