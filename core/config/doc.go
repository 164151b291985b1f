// Package config loads environment variables into typed structs and caches the
// result per struct type.
//
// A .env file in the working directory is read once on first use (missing files
// are ignored), then caarlos0/env parses the struct tags:
//
//	import "github.com/dmitrymomot/fitqueue/core/config"
//
//	var qc queue.Config
//	if err := config.Load(&qc); err != nil {
//		return err
//	}
//
//	// Or panic on failure during startup.
//	config.MustLoad(&qc)
//
// # Caching Behavior
//
// Each struct type is parsed once per process. Later calls for the same type get
// a copy of the cached value; different types are cached independently:
//
//	config.MustLoad(&redis.Config{})
//	config.MustLoad(&pg.Config{})
//
// Tests that change the environment with t.Setenv call Reset before Load.
package config
