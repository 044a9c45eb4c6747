// Package stealth implements the stealth row table on top of a memory.Region.
//
// # Layout
//
//	offset 0        8                      8+92                 8+92*n
//	       ┌────────┬──────────────────────┬─────┬──────────────────────┐
//	       │ count  │ row 0                │ ... │ row n-1              │
//	       └────────┴──────────────────────┴─────┴──────────────────────┘
//
//	row:   prefix u32 BE │ height u32 BE │ ephemeral key hash [32]
//	       public key hash [20] │ transaction hash [32]
//
// The count is a little-endian u64 on every host. Rows are appended in
// non-decreasing height order. The count is written
// with an atomic store after the row bytes, so readers that load it see
// complete rows only.
//
// # Concurrency
//
// The table adds no locking of its own. Scans hold a shared accessor;
// Store holds the upgradeable accessor and lets the region remap when the
// file has to grow. Any number of scans run alongside one Store.
package stealth
