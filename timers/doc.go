// Package timers implements the deadline-based callback scheduling core of a
// single-threaded event-loop runtime: setTimeout/setInterval/setImmediate and
// the lower-level enroll/active/unenroll protocol they are built on.
//
// Timers sharing an identical duration are grouped into a bucket so that a
// single native timer handle can serve all of them; this keeps the per-timer
// scheduling cost near O(1) regardless of how many timers are armed.
package timers
