package stealth

import "errors"

var (
	// ErrHeightOrder is returned when a row is older than the last stored row.
	ErrHeightOrder = errors.New("stealth: row height below last stored height")
	// ErrInvalidFilter is returned for malformed prefix filters.
	ErrInvalidFilter = errors.New("stealth: invalid prefix filter")
	// ErrCorrupt is returned when the row count does not fit the mapping.
	ErrCorrupt = errors.New("stealth: corrupt table")
)
