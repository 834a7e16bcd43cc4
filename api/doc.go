// Package api provides the HTTP REST API for the Game of Life server and a
// typed client for it.
//
// Endpoints:
//
// Boards:
//   - POST /api/boards - Create a board from a grid or a named pattern
//   - GET /api/boards - List all boards
//   - GET /api/boards/{id} - Get one board
//
// Simulation:
//   - GET /api/boards/{id}/next - Apply one generation and return the board
//   - POST /api/boards/{id}/start - Hand the board to the live loop (202)
//   - POST /api/boards/{id}/stop - Take the board out of the live loop (202)
//   - POST /api/boards/{id}/advance/{steps} - Queue a batch advance (202)
//
// Patterns:
//   - GET /api/patterns - List seed patterns
//
// Notifications:
//   - GET /ws?board={id} - WebSocket subscription to a board's events
//
// Health:
//   - GET /health, /health/live, /health/ready
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Successful responses wrap the
// payload in a data field and failures carry a list of messages:
//
//	{"data": {"board_id": "...", "board": {...}}}
//	{"errors": ["invalid steps: 0 is outside [1, 100]"]}
//
// Error Handling:
//
// Unknown boards answer 404. Bad input and boards in the wrong state
// (running, not running) answer 400. A request abandoned while waiting on
// the advance queue answers 503. Everything else, including corrupt stored
// state, answers 500.
//
// Usage:
//
//	server := api.NewServer(boardService, hub, logger)
//	http.ListenAndServe(":8080", server)
//
//	client := api.NewClient("http://localhost:8080")
//	resp, err := client.CreateBoard(ctx, service.CreateBoardRequest{Pattern: "glider", Rows: 20, Cols: 20})
package api
