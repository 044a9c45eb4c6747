// Package s3 provides Amazon S3 implementations of blobstore.BlobStore and
// blobstore.Catalog.
//
// # Usage
//
//	store, err := s3.New(ctx, "chain-snapshots",
//	    s3.WithPrefix("mainnet/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	catalog := s3.NewDDBCatalog(dynamodb.NewFromConfig(cfg), "chainmap-snapshots", "s3://chain-snapshots/mainnet")
//
//	info, err := db.Backup(ctx, store, catalog)
//
// Create streams through the multipart uploader, so snapshots larger than
// memory upload without buffering. Put attaches a CRC32C checksum.
package s3
