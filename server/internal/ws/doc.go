// Package ws implements the WebSocket hub for torstats-server.
//
// Hub manages a set of connected clients and broadcasts the current summary
// to all of them on a configurable interval (default 5s in production).
//
// New(store, interval) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker; it blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the current
// summary immediately on connect, then streams updates on each tick.
// Hub.Notify pushes an "update" message as soon as the store reloads.
//
// Message format sent to clients:
//
//	{
//	  "event": "summary" | "update",
//	  "data":  { /* same schema as GET /api/v1/summary */ }
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at /ws by the server.
package ws
