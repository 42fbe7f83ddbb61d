// Package server provides the HTTP API server: Gin on a ServeMux with h2c
// support, a net/http middleware chain and the default endpoints.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation
//   - CORS: cross-origin resource sharing
//   - BodySizeLimit: request body size limits for uploads
//   - RequestLogger: request logging with duration
//   - RateLimit: per-client sliding-window limit on /v1
//
// # Endpoints
//
// Built-in endpoints (server/endpoint): /health and /info.
package server
