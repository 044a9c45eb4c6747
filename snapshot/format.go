package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrFormat is returned for blobs that are not snapshots.
	ErrFormat = errors.New("snapshot: invalid format")
	// ErrChecksum is returned when the restored bytes do not match.
	ErrChecksum = errors.New("snapshot: checksum mismatch")
	// ErrNotEmpty is returned when restoring into a region that has data.
	ErrNotEmpty = errors.New("snapshot: target region is not empty")
)

var magic = [4]byte{'C', 'M', 'S', 'S'}

const (
	formatVersion = 1
	headerSize    = 24
)

type header struct {
	compression Compression
	size        uint64
	checksum    uint32
}

func (h header) marshal() []byte {
	buf := make([]byte, headerSize)
	copy(buf, magic[:])
	buf[4] = formatVersion
	buf[5] = byte(h.compression)
	binary.BigEndian.PutUint64(buf[8:], h.size)
	binary.BigEndian.PutUint32(buf[16:], h.checksum)
	return buf
}

func readHeader(r io.Reader) (header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return header{}, fmt.Errorf("%w: short header: %w", ErrFormat, err)
	}
	if [4]byte(buf[:4]) != magic {
		return header{}, fmt.Errorf("%w: bad magic %q", ErrFormat, buf[:4])
	}
	if buf[4] != formatVersion {
		return header{}, fmt.Errorf("%w: unsupported version %d", ErrFormat, buf[4])
	}
	h := header{
		compression: Compression(buf[5]),
		size:        binary.BigEndian.Uint64(buf[8:]),
		checksum:    binary.BigEndian.Uint32(buf[16:]),
	}
	if !h.compression.valid() {
		return header{}, fmt.Errorf("%w: unknown compression %d", ErrFormat, buf[5])
	}
	return h, nil
}
