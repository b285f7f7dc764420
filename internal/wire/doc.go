// Package wire encodes snapshots for transfer and at-rest storage. The
// encoding is mode-tagged: the encoder tries plain JSON, gzip JSON,
// protobuf struct, and gzip protobuf, and emits whichever is smallest, so
// encoded form is never larger than the verbose JSON rendering. Decoding
// verifies the embedded content hash against a recomputation.
//
// @req RQ-0107
// @design DS-0301
package wire
