package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/chainmap/blobstore"
	"github.com/hupe1980/chainmap/internal/hash"
	"github.com/minio/minio-go/v7"
)

// Snapshot images are opaque compressed bytes.
const contentType = "application/octet-stream"

// ChecksumMetadata is the user metadata key Put stores the CRC32C under.
const ChecksumMetadata = "Crc32c"

// Store keeps snapshot images as objects in one bucket, all under a common
// key prefix so several chains can share the bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore returns a Store writing to bucket. Every key is joined onto
// rootPrefix, for example "mainnet/" yields "mainnet/CURRENT".
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: rootPrefix}
}

func (s *Store) objectKey(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) blobName(key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

func missing(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// Open stats the object so the reader knows the image size up front.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.objectKey(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	switch {
	case err == nil:
		return &objectReader{store: s, key: key, size: info.Size}, nil
	case missing(err):
		return nil, blobstore.ErrNotFound
	default:
		return nil, err
	}
}

// Put uploads data in one request and tags the object with its CRC32C.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{ChecksumMetadata: hash.CRC32CBase64(data)},
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey(name), bytes.NewReader(data), int64(len(data)), opts)
	return err
}

// Create streams the upload through a pipe. The size is unknown, so the
// client sends a multipart upload and the object appears when Close returns.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	up := &objectUpload{pw: pw, result: make(chan error, 1)}

	go func(key string) {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{ContentType: contentType})
		_ = pr.CloseWithError(err)
		up.result <- err
	}(s.objectKey(name))

	return up, nil
}

// Delete removes the object. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(name), minio.RemoveObjectOptions{}); err != nil && !missing(err) {
		return err
	}
	return nil
}

// List walks the bucket under prefix and returns names relative to the
// store's root prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	opts := minio.ListObjectsOptions{Prefix: s.objectKey(prefix), Recursive: true}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := s.blobName(obj.Key); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// objectReader fetches byte ranges on demand; nothing is held open between
// calls.
type objectReader struct {
	store *Store
	key   string
	size  int64
}

func (r *objectReader) Size() int64 { return r.size }

func (r *objectReader) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= r.size {
		return 0, io.EOF
	}
	rc, err := r.ReadRange(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	n, err := io.ReadFull(rc, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return n, io.EOF
	}
	return n, err
}

func (r *objectReader) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if length <= 0 || off >= r.size {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	var opts minio.GetObjectOptions
	// SetRange takes an inclusive end.
	if err := opts.SetRange(off, min(off+length, r.size)-1); err != nil {
		return nil, err
	}
	obj, err := r.store.client.GetObject(ctx, r.store.bucket, r.key, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (r *objectReader) Close() error { return nil }

type objectUpload struct {
	pw     *io.PipeWriter
	result chan error
	ended  atomic.Bool
}

func (u *objectUpload) Write(p []byte) (int, error) {
	return u.pw.Write(p)
}

// Close finishes the stream and waits for the server to commit the object.
func (u *objectUpload) Close() error {
	if !u.ended.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := u.pw.Close(); err != nil {
		return err
	}
	return <-u.result
}

// Abort fails the stream, so the server discards the partial upload.
func (u *objectUpload) Abort() error {
	if !u.ended.CompareAndSwap(false, true) {
		return nil
	}
	_ = u.pw.CloseWithError(blobstore.ErrAborted)
	<-u.result
	return nil
}

var _ blobstore.BlobStore = (*Store)(nil)
