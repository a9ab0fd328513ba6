// Package middleware provides the HTTP middleware of the frame server.
//
// Middleware stack includes:
//   - RequestID: X-Request-ID assignment and echo
//   - Logger: one zap line per request
//   - CORS: cross-origin reads with configurable origins
//   - RateLimit: per-IP token buckets with idle eviction
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(logger))
//	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.Server.AllowedOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
