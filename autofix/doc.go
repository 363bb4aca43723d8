// Package autofix turns a rule's suggestions into concrete, applicable text
// edits, resolves overlapping edits to a conflict-free set, and applies the
// survivors to in-memory file content.
//
// Fixes are grouped by source file and sorted by descending byte offset
// before application, so an earlier fix's offsets stay valid while a later
// one in the same file is applied first. File I/O (reading the original
// content, writing the result) is left to the caller, the same split the
// [github.com/fshlint/maki/format] package uses: this package never reads or
// writes a file itself.
package autofix
