// Package memory provides remap-safe access to a growable memory-mapped region.
//
// # Overview
//
// A [Region] owns one mapping, the reader/writer/upgrade lock guarding it,
// and a generation counter. Callers never touch the mapping directly; they
// ask the region for an [Accessor]:
//
//	acc, err := region.Read() // shared: many readers at once
//	if err != nil { ... }
//	defer acc.Release()
//
//	acc.Advance(headerSize)
//	record := acc.Buffer()[:recordSize]
//
// # Growth
//
// Writers that may extend the mapping ask for an upgradeable accessor and
// call [Region.Reserve]. Only one upgradeable accessor exists at a time, and
// it coexists with readers until a remap is actually needed:
//
//	acc, err := region.Grow()
//	if err != nil { ... }
//	defer acc.Release()
//
//	if err := region.Reserve(acc, end); err != nil {
//	    // *ResizeError: the mapping is unchanged and the lock is intact
//	}
//	copy(acc.Buffer()[off:], record)
//
// When Reserve must remap it promotes the accessor's token to exclusive,
// which waits for every reader to release, resizes the mapping, bumps the
// generation, points the accessor at the new base and demotes again.
//
// # Pointer Lifetime
//
// A slice returned by [Accessor.Buffer] is valid only while the accessor is
// live and no remap has happened since it was obtained. After Reserve,
// call Buffer again. Using an accessor after Release, or one whose
// generation no longer matches the region, panics: continuing would read
// unmapped or reused memory.
//
// Holding a shared accessor while asking the same region for growth on the
// same goroutine deadlocks once a remap is needed. Release readers first.
//
// # Bounds
//
// Buffer and Advance do not check record bounds. The record-layout consumer
// knows its record sizes; the region only knows the mapping size. Go slice
// bounds still trap a cursor moved past the end of the mapping.
package memory
