// Package queue holds pending batch-advance requests.
//
// Queue is a bounded, strictly FIFO buffer with many producers (request
// handlers) and a single consumer (the advance worker). A full queue applies
// backpressure: Enqueue waits for space instead of dropping the request.
// Every blocking call takes a context and returns ctx.Err() when it is
// cancelled, which callers can tell apart from ErrClosed.
package queue
