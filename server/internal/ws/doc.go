// Package ws implements the WebSocket hub for localrank-server.
//
// Hub pushes the business board (the GET /api/v1/snapshot document) to every
// connected client on connect and then every interval (DefaultInterval, 5s).
//
// Message format sent to clients:
//
//	{
//	  "event": "board",
//	  "data":  { /* same schema as GET /api/v1/snapshot */ }
//	}
//
// Clients that fall sendBufSize messages behind are disconnected. The server
// mounts the hub at /ws/stream and passes an origin check built from
// cors.allowed_origins.
package ws
