// Package storage composes the per-session backends behind the engine: the
// retained delta history and the action log. The server layer owns one
// storage Engine and asks it for the wiring of each session it registers.
//
// @design DS-0302
package storage
