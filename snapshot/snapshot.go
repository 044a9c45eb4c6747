package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/chainmap/blobstore"
	"github.com/hupe1980/chainmap/internal/conv"
	"github.com/hupe1980/chainmap/internal/hash"
	"github.com/hupe1980/chainmap/internal/resource"
	"github.com/hupe1980/chainmap/memory"
)

// Info describes a written or restored snapshot.
type Info struct {
	Name        string
	Size        int64 // uncompressed bytes
	Stored      int64 // bytes in the blob, header included
	Checksum    uint32
	Compression Compression
	// Generation is the region generation the image was taken at.
	Generation uint64
	Duration   time.Duration
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Write stores the logical contents of r as the blob name.
//
// A failed or cancelled write aborts the upload; nothing is published.
func Write(ctx context.Context, r *memory.Region, store blobstore.BlobStore, name string, optFns ...Option) (Info, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	start := time.Now()
	var info Info
	err := r.Update(func(acc *memory.Accessor) error {
		data := acc.Buffer()[:r.Size()]
		info = Info{
			Name:        name,
			Size:        int64(len(data)),
			Checksum:    hash.CRC32C(data),
			Compression: o.compression,
			Generation:  acc.Generation(),
		}

		w, err := store.Create(ctx, name)
		if err != nil {
			return err
		}
		stored, err := writeImage(ctx, resource.NewPacedWriter(ctx, w, o.resources), data, info, o)
		if err != nil {
			_ = w.Abort()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		info.Stored = stored
		return nil
	})
	if err != nil {
		o.logger.Warn("snapshot write failed", "name", name, "error", err)
		return Info{}, fmt.Errorf("snapshot: write %s: %w", name, err)
	}

	info.Duration = time.Since(start)
	o.logger.Info("snapshot written",
		"name", name,
		"size", info.Size,
		"stored", info.Stored,
		"compression", info.Compression.String(),
		"generation", info.Generation,
	)
	return info, nil
}

func writeImage(ctx context.Context, w io.Writer, data []byte, info Info, o options) (int64, error) {
	cw := &countingWriter{w: w}
	h := header{compression: info.Compression, size: uint64(info.Size), checksum: info.Checksum}
	if _, err := cw.Write(h.marshal()); err != nil {
		return 0, err
	}

	enc, err := newEncoder(cw, info.Compression, o.level)
	if err != nil {
		return 0, err
	}
	for off := 0; off < len(data); off += o.chunkSize {
		if err := ctx.Err(); err != nil {
			_ = enc.Close()
			return 0, err
		}
		if _, err := enc.Write(data[off:min(off+o.chunkSize, len(data))]); err != nil {
			_ = enc.Close()
			return 0, err
		}
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}
	return cw.n, nil
}

// Restore fills dst, which must be empty, with the snapshot stored as name.
//
// On ErrChecksum dst holds the corrupt bytes; the caller should discard it.
func Restore(ctx context.Context, store blobstore.BlobStore, name string, dst *memory.Region, optFns ...Option) (Info, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	start := time.Now()
	info, err := restore(ctx, store, name, dst, o)
	if err != nil {
		o.logger.Warn("snapshot restore failed", "name", name, "error", err)
		return Info{}, fmt.Errorf("snapshot: restore %s: %w", name, err)
	}
	info.Duration = time.Since(start)
	o.logger.Info("snapshot restored", "name", name, "size", info.Size, "generation", info.Generation)
	return info, nil
}

func restore(ctx context.Context, store blobstore.BlobStore, name string, dst *memory.Region, o options) (Info, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return Info{}, err
	}
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return Info{}, err
	}
	defer rc.Close()

	body := resource.NewPacedReader(ctx, rc, o.resources)
	h, err := readHeader(body)
	if err != nil {
		return Info{}, err
	}
	dec, closeDec, err := newDecoder(body, h.compression)
	if err != nil {
		return Info{}, err
	}
	defer closeDec()

	size, err := conv.Uint64ToInt(h.size)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	info := Info{
		Name:        name,
		Size:        int64(size),
		Stored:      blob.Size(),
		Checksum:    h.checksum,
		Compression: h.compression,
	}

	err = dst.Update(func(acc *memory.Accessor) error {
		if dst.Size() != 0 {
			return ErrNotEmpty
		}
		if err := dst.Reserve(acc, size); err != nil {
			return err
		}
		buf := acc.Buffer()[:size]
		if _, err := io.ReadFull(dec, buf); err != nil {
			return fmt.Errorf("%w: body: %w", ErrFormat, err)
		}
		if sum := hash.CRC32C(buf); sum != h.checksum {
			return fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, sum, h.checksum)
		}
		info.Generation = acc.Generation()
		return nil
	})
	if err != nil {
		return Info{}, err
	}

	// Trailing bytes mean the header lied about the size.
	var extra [1]byte
	if n, err := dec.Read(extra[:]); n > 0 || (err != nil && !errors.Is(err, io.EOF)) {
		return Info{}, fmt.Errorf("%w: trailing data after %d bytes", ErrFormat, h.size)
	}
	return info, nil
}
