// Package server runs the relay as a standalone HTTP server.
//
// The relay handler answers every path that is not an operational
// endpoint, so clients can POST to "/" exactly as they would to the
// serverless function. Operational endpoints (/health, /ready, /version
// and /metrics) sit beside it and skip the CORS layer.
//
// Basic usage:
//
//	r, err := relay.New(cfg, relay.Options{})
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	srv := server.NewServer(cfg, r, health.VersionInfo{Version: version})
//	return srv.Start(ctx) // returns after ctx is cancelled and requests drain
package server
