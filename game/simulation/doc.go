// Package simulation runs the background side of the Game of Life server.
//
// Worker drains the advance queue one request at a time. Each request is
// handled by Advancer, which holds the board lock, evolves the board with
// Evolve and saves it only when the run concluded: a fixed point, extinction
// or a state already seen in the same run. The outcome is pushed to the
// board's subscribers as AdvanceCompleted or AdvanceFailed.
//
// LiveLoop ticks every running board once per interval and pushes
// UpdateBoard events. On start it reconciles boards left flagged as running
// by an unclean shutdown. Failures in either loop are logged and retried;
// only context cancellation stops them.
package simulation
