// Package memory provides the in-memory storage backends: a retained delta
// history ring and an action log. They are the default wiring for a single
// server process and the backends used by tests.
//
// @design DS-0302
package memory
