// Package types defines the value types and interfaces shared across rocas.
// This includes the watch configuration, the transient PendingFile record
// tracked while a file settles, the MoveOutcome emitted for every processed
// file, and the FS abstraction used by the mover and the watch sources.
package types
