// Package domain defines the core domain models for TableSync.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling: the schema-free Value tree,
// versioned state snapshots, field-level deltas, submitted actions,
// and the conflict/sync/recovery result types exchanged with the
// session layer.
package domain
