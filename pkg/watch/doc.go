// Package watch turns filesystem activity under a root directory into
// classified, debounced, collision-safe moves.
//
// An Engine subscribes to the root with the best available strategy
// (native fsnotify watches, or a polling scanner), feeds every raw event to
// a debouncer owned by a single actor goroutine, classifies files once they
// settle, and hands the moves to a bounded worker pool. Every processed file
// produces exactly one types.MoveOutcome through the callback given to
// Start; callbacks always run on the actor goroutine and never after Stop
// returns.
package watch
