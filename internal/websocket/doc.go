// Package websocket pushes live processing events to dashboard clients.
//
// A single Hub fans out JSON events to every connected browser. Handlers
// publish typed events while the cleaning pipeline runs, so the upload
// page can show progress without polling:
//
//	hub.Broadcast(ctx, websocket.TypeUploadReceived, info)
//	hub.BroadcastProgress(ctx, id, "flagging", 30, "")
//	hub.Broadcast(ctx, websocket.TypeCleaningComplete, report)
//
// Clients that cannot keep up with the broadcast rate are disconnected
// rather than blocking the hub.
package websocket
