package stealth

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/chainmap/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newAnonStore(t *testing.T, optFns ...memory.Option) *Store {
	t.Helper()
	r, err := memory.OpenAnon(optFns...)
	require.NoError(t, err)
	s, err := New(r)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// makeRow fills every hash with seq so torn rows are detectable.
func makeRow(seq byte, prefix, height uint32) Row {
	r := Row{Prefix: prefix, Height: height}
	for i := range r.EphemeralKeyHash {
		r.EphemeralKeyHash[i] = seq
	}
	for i := range r.PublicKeyHash {
		r.PublicKeyHash[i] = seq
	}
	for i := range r.TransactionHash {
		r.TransactionHash[i] = seq
	}
	return r
}

func consistent(r Row) bool {
	seq := r.EphemeralKeyHash[0]
	for _, b := range r.EphemeralKeyHash {
		if b != seq {
			return false
		}
	}
	for _, b := range r.PublicKeyHash {
		if b != seq {
			return false
		}
	}
	for _, b := range r.TransactionHash {
		if b != seq {
			return false
		}
	}
	return true
}

func TestStore_ScanByPrefixAndHeight(t *testing.T) {
	s := newAnonStore(t)

	rows := []Row{
		makeRow(1, 0b101<<29, 990),  // too low
		makeRow(2, 0b101<<29, 1000), // match
		makeRow(3, 0b100<<29, 1000), // wrong prefix
		makeRow(4, 0b1011<<28, 1005),
		makeRow(5, 0b011<<29, 1010),
		makeRow(6, 0b101<<29|0x1234, 1010),
	}
	for _, r := range rows {
		require.NoError(t, s.Store(r))
	}

	f, err := ParseFilter("101")
	require.NoError(t, err)
	got, err := s.Scan(f, 1000)
	require.NoError(t, err)
	assert.Equal(t, []Row{rows[1], rows[3], rows[5]}, got)

	all, err := s.Scan(Filter{}, 0)
	require.NoError(t, err)
	assert.Equal(t, rows, all)
}

func TestStore_ScanNoMatch(t *testing.T) {
	s := newAnonStore(t)

	got, err := s.Scan(Filter{Bits: 3, Value: 0b101 << 29}, 1000)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, s.Store(makeRow(1, 0b111<<29, 2000)))
	got, err = s.Scan(Filter{Bits: 3, Value: 0b101 << 29}, 1000)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = s.Scan(Filter{Bits: 33}, 0)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestStore_HeightOrder(t *testing.T) {
	s := newAnonStore(t)

	require.NoError(t, s.Store(makeRow(1, 0, 100)))
	require.NoError(t, s.Store(makeRow(2, 0, 100)))
	assert.ErrorIs(t, s.Store(makeRow(3, 0, 99)), ErrHeightOrder)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_GrowsAcrossRemaps(t *testing.T) {
	s := newAnonStore(t)

	const rows = 500
	for i := 0; i < rows; i++ {
		require.NoError(t, s.Store(makeRow(byte(i), uint32(i)<<16, uint32(i))))
	}
	assert.Greater(t, s.Region().Generation(), uint64(1))
	assert.GreaterOrEqual(t, s.Region().Size(), headerSize+rows*RowSize)

	got, err := s.Scan(Filter{}, 250)
	require.NoError(t, err)
	require.Len(t, got, 250)
	for i, r := range got {
		assert.Equal(t, uint32(250+i), r.Height)
		assert.True(t, consistent(r))
	}
}

func TestStore_Unlink(t *testing.T) {
	s := newAnonStore(t)

	for h := uint32(1); h <= 10; h++ {
		require.NoError(t, s.Store(makeRow(byte(h), 0, h)))
	}
	dropped, err := s.Unlink(7)
	require.NoError(t, err)
	assert.Equal(t, 4, dropped)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	// The cut height can be stored again.
	require.NoError(t, s.Store(makeRow(42, 0, 7)))
	got, err := s.Scan(Filter{}, 6)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, makeRow(42, 0, 7), got[1])

	dropped, err = s.Unlink(100)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	dropped, err = s.Unlink(0)
	require.NoError(t, err)
	assert.Equal(t, 7, dropped)
	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stealth_rows")

	s, err := Open(path)
	require.NoError(t, err)
	for h := uint32(0); h < 20; h++ {
		require.NoError(t, s.Store(makeRow(byte(h), h<<24, h)))
	}
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, headerSize+20*RowSize, s.Region().Size())

	got, err := s.Scan(Filter{}, 19)
	require.NoError(t, err)
	assert.Equal(t, []Row{makeRow(19, 19<<24, 19)}, got)
}

func TestStore_CorruptCount(t *testing.T) {
	r, err := memory.OpenAnon()
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Update(func(acc *memory.Accessor) error {
		if err := r.Reserve(acc, headerSize); err != nil {
			return err
		}
		// Capacity is at least a page, but the logical size is the header only.
		storeCount(acc.Buffer(), 5)
		return nil
	}))

	_, err = New(r)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpen_ShortFileIsCorrupt(t *testing.T) {
	for _, size := range []int{1, 3, headerSize - 1} {
		path := filepath.Join(t.TempDir(), "stealth_rows")
		require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xff}, size), 0o644))

		s, err := Open(path)
		require.ErrorIs(t, err, ErrCorrupt, "size %d", size)
		assert.Nil(t, s)

		// The file is left as it was for inspection.
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, data, size)
	}
}

func TestNew_EmptyRegionGetsHeader(t *testing.T) {
	r, err := memory.OpenAnon()
	require.NoError(t, err)

	s, err := New(r)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, headerSize, r.Size())
	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, s.Store(makeRow(1, 0, 1)))
}

func TestStore_ScansDuringGrowth(t *testing.T) {
	s := newAnonStore(t)

	const rows = 2000
	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < rows; i++ {
			if err := s.Store(makeRow(byte(i), uint32(i), uint32(i/3))); err != nil {
				return err
			}
		}
		return nil
	})

	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for {
				got, err := s.Scan(Filter{}, 0)
				if err != nil {
					return err
				}
				var last uint32
				for i, r := range got {
					if !consistent(r) || r.Height < last || r.Prefix != uint32(i) {
						t.Errorf("row %d torn or out of order: %+v", i, r)
						return nil
					}
					last = r.Height
				}
				if len(got) == rows {
					return nil
				}
			}
		})
	}
	require.NoError(t, g.Wait())
}
