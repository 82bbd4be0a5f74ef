// Package watch observes the managed directory and turns bursts of
// filesystem events into debounced batches.
//
// A Watcher registers every directory below its root (new directories are
// added as they appear), discards events inside ignored subtrees such as
// .git, and calls a handler once per quiet period. The handler runs
// synchronously on the watch loop; events arriving meanwhile accumulate into
// the next batch.
package watch
