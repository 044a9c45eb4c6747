// Package blobstore abstracts the object stores chainmap writes table
// snapshots to.
//
// # Implementations
//
//   - LocalStore: a directory on the local file system
//   - MemoryStore: in-process, for tests
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with multipart uploads
//
// A Catalog records which snapshot is current. BlobCatalog keeps the
// pointer in a blob and assumes a single writer; s3.DDBCatalog uses
// DynamoDB conditional writes so concurrent writers cannot lose a commit.
package blobstore
