// Package lock provides per-board mutual exclusion.
//
// A Registry maps board ids to single-slot semaphores. Each entry carries a
// reference count that is incremented when a goroutine starts to acquire and
// decremented when it releases or gives up waiting; the entry is deleted when
// the count reaches zero, so the registry only holds ids that are in use.
//
//	lease, err := locks.Acquire(ctx, boardID)
//	if err != nil {
//		return err // ctx was cancelled while waiting
//	}
//	defer lease.Release()
package lock
