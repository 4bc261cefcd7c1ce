// Package zalacontent implements the content lifecycle and publication
// consistency engine: a state machine over creator content (draft,
// scheduled, published), a replicator that fans the canonical record out
// into denormalized feed and discovery tables, a periodic scheduler that
// promotes due content exactly once, and an idempotent per-user engagement
// ledger.
//
// The engine is storage-agnostic: persistence goes through the Repository
// interface (memory and Postgres implementations live under repo/), and
// media objects go through the BlobStore interface (memory, filesystem and
// S3 implementations under storage/). All multi-row mutations run inside a
// single repository transaction; cross-entity consistency is delegated
// entirely to the store's transaction isolation, with no in-process locks.
package zalacontent
