// Package http provides the JSON endpoints of the frame server.
//
// Endpoints:
//   - Service: / and /health
//   - Sessions: /facade/sessions and /facade/sessions/:id, mounted only when
//     session listing is enabled
//
// Example Usage:
//
//	handlers := http.NewHandlers(sessions, apiClient, cfg.Repository.BaseURL)
//	router.GET("/health", handlers.Health)
//	router.GET("/facade/sessions/:id", handlers.GetSession)
package http
