// Package chainmap is an embedded store for blockchain index tables kept in
// growable memory-mapped files.
//
// Each table is a memory.Region: a file mapping that many goroutines read
// concurrently while a single writer appends, remapping the file to a larger
// size when it runs out of room. Readers never observe a mapping while it
// is being replaced; a pending remap waits for running readers and holds
// back new ones.
//
// # Quick Start
//
//	db, _ := chainmap.Open("./data")
//	defer db.Close()
//
//	_ = db.Store(ctx, chainmap.Row{Prefix: prefix, Height: 1000})
//
//	filter, _ := chainmap.ParseFilter("101")
//	rows, _ := db.Scan(ctx, filter, 1000)
//
// # Durability
//
// Rows are written to the shared mapping and reach the file when the kernel
// writes back dirty pages, on Flush, or on Close. Close trims the file to
// its logical size.
//
// # Backups
//
// Backup streams a compressed, checksummed image of a table to any
// blobstore.BlobStore (local directory, S3, MinIO) and can commit it to a
// blobstore.Catalog. Scans keep running during a backup; appends wait.
// Restore and RestoreLatest rebuild a database directory from an image.
//
//	store := blobstore.NewLocalStore("./backups")
//	catalog := blobstore.NewBlobCatalog(store, "")
//	_, _ = db.Backup(ctx, store, catalog)
//
//	restored, _ := chainmap.RestoreLatest(ctx, "./restored", store, catalog)
//
// # Observability
//
// WithLogger enables structured logging through log/slog and
// WithMetricsCollector receives per-operation timings, lock waits and
// remap events.
package chainmap
