// Package fs provides the filesystem seam used by mapped regions.
//
// The package defines two interfaces:
//
//   - [File]: an open file that can be mapped, resized and synced
//   - [FileSystem]: opens, stats, truncates and removes files
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects I/O failures
//
// # Usage
//
// Production code uses fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests inject [FaultyFS] to simulate a backing store that cannot grow:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("rows", fs.Fault{FailOnTruncate: true, FailAfterBytes: -1})
//	// pass ffs to memory.WithFileSystem
//
// # Design Notes
//
// The package intentionally does NOT take context.Context parameters.
// Truncate and mmap are non-interruptible at the syscall level.
package fs
