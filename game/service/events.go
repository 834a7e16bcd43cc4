package service

import (
	"github.com/wricardo/mcp-training/gameoflife/game/engine"
)

// EventType names a notification sent to board subscribers.
type EventType string

const (
	EventUpdateBoard      EventType = "UpdateBoard"
	EventAdvanceCompleted EventType = "AdvanceCompleted"
	EventAdvanceFailed    EventType = "AdvanceFailed"
	EventStartBoard       EventType = "StartBoard"
	EventLeftBoard        EventType = "LeftBoard"
	EventBoardStopped     EventType = "BoardStopped"
)

// Event is delivered to every subscriber of BoardID's group.
type Event struct {
	Type       EventType   `json:"event"`
	BoardID    string      `json:"board_id"`
	Grid       engine.Grid `json:"grid,omitempty"`
	Generation int         `json:"generation,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// GroupName is the subscriber group that receives events for boardID.
func GroupName(boardID string) string {
	return "board-" + boardID
}

// UpdateBoardEvent is sent by the live loop after each tick.
func UpdateBoardEvent(boardID string, grid engine.Grid, generation int) Event {
	return Event{Type: EventUpdateBoard, BoardID: boardID, Grid: grid, Generation: generation}
}

// AdvanceCompletedEvent is sent when a batch advance concluded.
func AdvanceCompletedEvent(boardID string, grid engine.Grid, generation int) Event {
	return Event{Type: EventAdvanceCompleted, BoardID: boardID, Grid: grid, Generation: generation}
}

// AdvanceFailedEvent is sent when a batch advance did not conclude or errored.
// err may be nil.
func AdvanceFailedEvent(boardID string, err error) Event {
	ev := Event{Type: EventAdvanceFailed, BoardID: boardID}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// BoardStoppedEvent is sent when the live loop stops a board on its own,
// such as when its state turns out to be corrupt.
func BoardStoppedEvent(boardID string, err error) Event {
	ev := Event{Type: EventBoardStopped, BoardID: boardID}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}
