// Package autostart registers rocas to start when the user logs in.
//
// Linux gets a systemd user unit, macOS a LaunchAgent and Windows a value
// under the current user's Run registry key. Files are written through
// types.FS and service managers are driven through a Runner, so both can be
// replaced in tests.
package autostart
