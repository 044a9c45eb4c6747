// Package mmap provides writable, resizable memory mappings.
//
// # Overview
//
// A [Mapping] maps an [fs.File] read-write and shared, so stores through the
// returned slice reach the file. [Mapping.Resize] grows or shrinks the file
// and replaces the view. An [Anon] provides the same contract over anonymous
// memory for tests and ephemeral tables.
//
// # Usage
//
//	m, err := mmap.OpenFile(fs.Default, "rows", os.O_RDWR|os.O_CREATE, 0644)
//	if err != nil { ... }
//	defer m.Close()
//
//	data, err := m.Resize(1 << 20)
//	copy(data, record)
//	_ = m.Sync(0, len(record))
//
// # Remapping
//
// Resize maps the new view before unmapping the old one. A failed Resize
// leaves the old view valid. A successful Resize invalidates every slice
// obtained from the previous view: touching one afterwards faults. Callers
// coordinate that with their own locking; this package does none.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2), msync(2), madvise(2)
//   - Windows: CreateFileMapping/MapViewOfFile/FlushViewOfFile (madvise is a no-op)
package mmap
