// Package hash provides the CRC32-Castagnoli checksum used for snapshot
// images and S3 upload integrity headers.
package hash
