// Package mover relocates files into destination directories.
//
// A move never overwrites an existing file. The target name is reserved with
// an exclusive create; when the name is taken a numeric disambiguator is
// inserted before the extension ("a.txt" -> "a (1).txt" -> "a (2).txt") and
// the reservation is retried. The source is then renamed onto the
// reservation. When the rename crosses a filesystem boundary the file is
// copied into the reservation instead, and the source is only removed once
// the copy is complete and its size matches the source.
package mover
