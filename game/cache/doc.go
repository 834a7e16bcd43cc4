// Package cache keeps the working copies of running boards.
//
// A board is in the cache exactly while it is running. The board service adds
// it on Start and removes it on Stop; the live simulation loop replaces each
// entry once per tick with CompareAndSwap so that a board stopped during a
// tick is not put back.
package cache
