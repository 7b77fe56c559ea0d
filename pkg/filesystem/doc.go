// Package filesystem provides filesystem implementations for rocas.
//
// This package contains implementations of the types.FS interface: the
// standard OS filesystem used in production and an afero-backed adapter used
// by tests that should not touch the disk.
package filesystem
