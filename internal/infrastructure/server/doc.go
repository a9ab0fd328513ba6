// Package server assembles the frame server: repository client, session
// registry, middleware and routes, served behind gzip with graceful
// shutdown.
//
//	srv, err := server.NewServer(cfg, logger)
//	if err != nil {
//		return err
//	}
//	return srv.Run(ctx)
package server
