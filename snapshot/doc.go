// Package snapshot copies a memory.Region to a blob store and back.
//
// # Format
//
//	offset 0      4        5             6          8           16         20       24
//	       ┌──────┬────────┬─────────────┬──────────┬───────────┬──────────┬────────┐
//	       │ CMSS │ ver(1) │ compression │ reserved │ size u64  │ crc32c   │ resvd  │
//	       └──────┴────────┴─────────────┴──────────┴───────────┴──────────┴────────┘
//	       followed by the region's logical bytes, compressed as a single stream.
//
// All integers are big-endian. The checksum covers the uncompressed bytes.
//
// Write holds the region's upgradeable accessor while it uploads: readers
// keep running, writers wait until the image is complete, so the image is
// consistent.
package snapshot
