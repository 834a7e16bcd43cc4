// Package websocket pushes board events to browser and CLI subscribers.
//
// Hub implements service.Notifier. Every board has a subscriber group named
// "board-{id}"; Notify delivers an event to that group only.
//
// Message Protocol:
//
// Clients subscribe with the board query parameter (/ws?board={id}) or by
// sending actions on the open connection:
//
//	{"action": "join", "board_id": "..."}
//	{"action": "leave", "board_id": "..."}
//
// A join is announced to the whole board group with a StartBoard event; a
// leave is answered to the leaving client with LeftBoard.
//
// Board events are JSON objects:
//
//	{"event": "UpdateBoard", "board_id": "...", "grid": [[0,1],[1,0]], "generation": 12}
//	{"event": "AdvanceCompleted", "board_id": "...", "grid": [[0,1],[1,0]], "generation": 40}
//	{"event": "AdvanceFailed", "board_id": "...", "error": "..."}
//
// Concurrency:
//
// All membership state is owned by the goroutine running Hub.Run. Clients
// whose send buffer fills up are dropped rather than blocking the hub.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("board"))
//	})
package websocket
