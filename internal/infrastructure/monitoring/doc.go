/*
Package monitoring provides Prometheus metrics for the facade server.

# Overview

Metrics live on a private registry exposed through Handler. They cover HTTP
requests, navigation outcomes (loaded, failed, discarded), repository fetch
latency, live frames and bridge traffic.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordNavigation(monitoring.OutcomeDiscarded)

A nil *Metrics is valid and records nothing.
*/
package monitoring
