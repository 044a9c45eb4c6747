package stealth

import (
	"fmt"
	"strings"
)

// Filter selects rows whose leading Bits prefix bits equal those of Value.
// The zero Filter matches every row.
type Filter struct {
	Bits  int
	Value uint32 // left-aligned: the first filter bit is bit 31
}

// ParseFilter parses a bit string such as "101".
func ParseFilter(s string) (Filter, error) {
	if len(s) > 32 {
		return Filter{}, fmt.Errorf("%w: %d bits, at most 32", ErrInvalidFilter, len(s))
	}
	var f Filter
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			f.Value |= 1 << (31 - i)
		default:
			return Filter{}, fmt.Errorf("%w: %q at position %d", ErrInvalidFilter, c, i)
		}
	}
	f.Bits = len(s)
	return f, nil
}

// NewFilter returns the filter matching the low bits bits of value, so
// NewFilter(3, 0b101) equals ParseFilter("101").
func NewFilter(bits int, value uint32) (Filter, error) {
	if bits < 0 || bits > 32 {
		return Filter{}, fmt.Errorf("%w: %d bits", ErrInvalidFilter, bits)
	}
	if bits == 0 {
		if value != 0 {
			return Filter{}, fmt.Errorf("%w: value %#x with 0 bits", ErrInvalidFilter, value)
		}
		return Filter{}, nil
	}
	if bits < 32 && value>>bits != 0 {
		return Filter{}, fmt.Errorf("%w: value %#b wider than %d bits", ErrInvalidFilter, value, bits)
	}
	return Filter{Bits: bits, Value: value << (32 - bits)}, nil
}

// Match reports whether prefix starts with the filter bits.
func (f Filter) Match(prefix uint32) bool {
	if f.Bits <= 0 {
		return true
	}
	mask := ^uint32(0) << (32 - f.Bits)
	return prefix&mask == f.Value&mask
}

func (f Filter) validate() error {
	if f.Bits < 0 || f.Bits > 32 {
		return fmt.Errorf("%w: %d bits", ErrInvalidFilter, f.Bits)
	}
	// Value is left-aligned; bits past Bits mean a right-aligned literal.
	if f.Value&(^uint32(0)>>f.Bits) != 0 {
		return fmt.Errorf("%w: value %#08x has bits past the first %d", ErrInvalidFilter, f.Value, f.Bits)
	}
	return nil
}

func (f Filter) String() string {
	var sb strings.Builder
	for i := 0; i < f.Bits; i++ {
		if f.Value&(1<<(31-i)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
