package service

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/gameoflife/game/engine"
)

func TestEventJSON(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		want    []string
		missing []string
	}{
		{
			name:    "Membership event has no generation",
			event:   Event{Type: EventStartBoard, BoardID: "b1"},
			want:    []string{`"event":"StartBoard"`, `"board_id":"b1"`},
			missing: []string{"generation", "grid", "error"},
		},
		{
			name:    "Failed advance carries only the error",
			event:   AdvanceFailedEvent("b1", errors.New("board is running")),
			want:    []string{`"error":"board is running"`},
			missing: []string{"generation"},
		},
		{
			name:  "Update carries grid and generation",
			event: UpdateBoardEvent("b1", engine.Grid{{0, 1}}, 4),
			want:  []string{`"grid":[[0,1]]`, `"generation":4`},
		},
		{
			name:    "Stopped board explains why",
			event:   BoardStoppedEvent("b1", engine.ErrMalformedState),
			want:    []string{`"event":"BoardStopped"`, `"error":"`},
			missing: []string{"generation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			out := string(data)
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("Expected %s in %s", s, out)
				}
			}
			for _, s := range tt.missing {
				if strings.Contains(out, s) {
					t.Errorf("Did not expect %s in %s", s, out)
				}
			}
		})
	}
}
