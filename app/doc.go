// Package app wires configuration, storage backends, the job registry and the
// ops HTTP server into one runnable application.
//
//	var cfg app.Config
//	config.MustLoad(&cfg)
//
//	a, err := app.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//	return a.Run(ctx)
//
// STORAGE_DRIVER=memory runs without Redis; an empty PG_CONN_URL selects the
// in-memory repository. Both are meant for local development only.
package app
