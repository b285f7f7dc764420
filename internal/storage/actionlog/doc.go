// Package actionlog provides the durable per-session action log: an
// append-only file of length-prefixed, CRC32-checked JSON frames. The log
// backs RecoveryResult missed-action reporting; a corrupt or unreadable log
// reports unavailability rather than a partial or fabricated view.
//
// File format (DS-0303): 8 magic bytes, then frames of
// [length:4][crc32:4][payload]. The CRC covers the payload.
//
// @req RQ-0108
package actionlog
