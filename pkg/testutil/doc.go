// Package testutil provides helpers shared by rocas tests.
//
// Key components:
//   - Environment: an isolated HOME with XDG directories and a clean
//     ROCAS_* environment
//   - CreateFile, CreateDir, ReadFile: fail-fast filesystem helpers
//   - WriteChunked: simulates a download arriving in pieces
package testutil
