// Package server runs the HTTP listener with graceful shutdown.
//
//	srv, err := server.New(cfg.Server, server.WithLogger(log), server.WithAccessLog())
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, handler))
//	return g.Wait()
//
// Start binds before serving, so a busy port surfaces as ErrListen. Addr returns
// the bound address, which makes "127.0.0.1:0" usable in tests.
package server
