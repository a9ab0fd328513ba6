// Package ws serves frame runtimes over WebSocket.
//
// Each connection to /facade/ws gets its own frame document and facade
// module. The host side speaks the bridge protocol: it waits for ready,
// sends init with the owner and basket, then drives navigation with
// hashchange and click messages while the frame reports navigate, resize
// and render.
//
// API calls carry the upgrade request's cookies, so upgrades are admitted
// from the same origin unless Options.CheckOrigin says otherwise.
//
// Example Usage:
//
//	handler := ws.NewHandler(ws.Options{
//		Repository:  repo,
//		Sessions:    sessions,
//		CheckOrigin: ws.AllowOrigins(cfg.Server.WebSocketOrigins),
//	})
//	router.GET("/facade/ws", handler.HandleConnection)
package ws
