package stealth

import (
	"encoding/binary"
	"math/bits"
	"sync/atomic"
	"unsafe"
)

const (
	// HashSize is the width of the ephemeral key and transaction hashes.
	HashSize = 32
	// ShortHashSize is the width of the public key hash.
	ShortHashSize = 20

	headerSize = 8
	// RowSize is the encoded width of one row.
	RowSize = 4 + 4 + HashSize + ShortHashSize + HashSize
)

const (
	offPrefix       = 0
	offHeight       = 4
	offEphemeralKey = 8
	offPublicKey    = offEphemeralKey + HashSize
	offTransaction  = offPublicKey + ShortHashSize
)

// Row is one stealth payment entry.
type Row struct {
	// Prefix is the 32-bit stealth prefix the filter matches against.
	Prefix uint32
	// Height is the block height the transaction was confirmed at.
	Height uint32

	EphemeralKeyHash [HashSize]byte
	PublicKeyHash    [ShortHashSize]byte
	TransactionHash  [HashSize]byte
}

func encodeRow(dst []byte, r *Row) {
	_ = dst[RowSize-1]
	binary.BigEndian.PutUint32(dst[offPrefix:], r.Prefix)
	binary.BigEndian.PutUint32(dst[offHeight:], r.Height)
	copy(dst[offEphemeralKey:], r.EphemeralKeyHash[:])
	copy(dst[offPublicKey:], r.PublicKeyHash[:])
	copy(dst[offTransaction:], r.TransactionHash[:])
}

func decodeRow(src []byte) Row {
	_ = src[RowSize-1]
	var r Row
	r.Prefix = binary.BigEndian.Uint32(src[offPrefix:])
	r.Height = binary.BigEndian.Uint32(src[offHeight:])
	copy(r.EphemeralKeyHash[:], src[offEphemeralKey:])
	copy(r.PublicKeyHash[:], src[offPublicKey:])
	copy(r.TransactionHash[:], src[offTransaction:])
	return r
}

func rowPrefix(row []byte) uint32 {
	return binary.BigEndian.Uint32(row[offPrefix:])
}

func rowHeight(row []byte) uint32 {
	return binary.BigEndian.Uint32(row[offHeight:])
}

// The count lives at offset 0 of a page-aligned mapping, so it is
// naturally aligned for 64-bit atomics. On disk it is little-endian; big
// endian hosts swap after loading and before storing.
func countWord(header []byte) *uint64 {
	_ = header[headerSize-1]
	return (*uint64)(unsafe.Pointer(&header[0]))
}

var nativeLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

func toDisk(n uint64) uint64 {
	if nativeLittleEndian {
		return n
	}
	return bits.ReverseBytes64(n)
}

func loadCount(header []byte) uint64 {
	return toDisk(atomic.LoadUint64(countWord(header)))
}

func storeCount(header []byte, n uint64) {
	atomic.StoreUint64(countWord(header), toDisk(n))
}
