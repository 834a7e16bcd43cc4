// Package config provides runtime settings and seed patterns for the Game of
// Life server.
//
// Settings are resolved in three layers: built-in defaults, an optional YAML
// file, then GOL_* environment variables:
//
//	GOL_QUEUE_CAPACITY   advance queue capacity (default 100)
//	GOL_TICK_INTERVAL    live loop tick (default 1s)
//	GOL_TICK_BACKOFF     maximum live loop backoff after a failure (default 3s)
//	GOL_MIN_STEPS        smallest accepted batch advance (default 1)
//	GOL_MAX_STEPS        largest accepted batch advance (default 100)
//	GOL_MIN_GRID_SIZE    smallest grid side (default 1)
//	GOL_MAX_GRID_SIZE    largest grid side (default 100)
//	GOL_DATA_DIR         board files directory (default boards)
//	GOL_PATTERNS_DIR     pattern files directory (default patterns)
//
// Patterns:
//
// PatternManager serves named seed layouts. Each pattern file is a JSON
// document in the patterns directory:
//
//	{
//	  "name": "Beacon",
//	  "description": "Period 2 oscillator",
//	  "period": 2,
//	  "layout": ["##..", "##..", "..##", "..##"]
//	}
//
// '#' marks a live cell and '.' a dead one. A file overrides the built-in
// pattern of the same name (blinker, block, glider, toad, r-pentomino).
//
// Usage:
//
//	settings, err := config.LoadSettings("configs/gameoflife.yaml")
//	if err != nil {
//		return err
//	}
//	patterns, err := config.NewPatternManager(settings.PatternsDir)
package config
